package lifecycle

import (
	"time"

	"futures-signal-engine/internal/indicator"
	"futures-signal-engine/internal/signal"
)

// Time-stop reasons.
const (
	ReasonTimeStopReversal = "time_stop_with_momentum_reversal"
	ReasonExtendedTimeStop = "extended_time_stop"
)

// Time-stop defaults.
const (
	DefaultTimeStopMinutes     = 60
	DefaultExtendedStopMinutes = 120
	DefaultContractionCutoff   = 0.8
	DefaultPartialExitFraction = 0.5
)

// TimeStopConfig controls the stagnation exits.
type TimeStopConfig struct {
	TimeStopMinutes     int     `json:"time_stop_minutes"`
	ExtendedStopMinutes int     `json:"extended_stop_minutes"`
	ContractionCutoff   float64 `json:"contraction_cutoff"`
	PartialExitFraction float64 `json:"partial_exit_fraction"`
}

// DefaultTimeStopConfig returns the stock stagnation parameters.
func DefaultTimeStopConfig() TimeStopConfig {
	return TimeStopConfig{
		TimeStopMinutes:     DefaultTimeStopMinutes,
		ExtendedStopMinutes: DefaultExtendedStopMinutes,
		ContractionCutoff:   DefaultContractionCutoff,
		PartialExitFraction: DefaultPartialExitFraction,
	}
}

func (c TimeStopConfig) withDefaults() TimeStopConfig {
	d := DefaultTimeStopConfig()
	if c.TimeStopMinutes <= 0 {
		c.TimeStopMinutes = d.TimeStopMinutes
	}
	if c.ExtendedStopMinutes <= 0 {
		c.ExtendedStopMinutes = d.ExtendedStopMinutes
	}
	if c.ContractionCutoff <= 0 {
		c.ContractionCutoff = d.ContractionCutoff
	}
	if c.PartialExitFraction <= 0 {
		c.PartialExitFraction = d.PartialExitFraction
	}
	return c
}

// PositionSnapshot is the open-position view the time stop needs.
type PositionSnapshot struct {
	Direction    signal.Direction
	EntryPrice   float64
	CurrentPrice float64
	OpenedAt     time.Time

	// Momentum readings from the monitored timeframe, previous and current.
	PrevMACDHist float64
	CurMACDHist  float64

	// EMA20 on the monitored timeframe; an adverse close across it also
	// counts as a momentum reversal.
	EMA20 float64
}

// TimeStopDecision is the exit instruction, if any.
type TimeStopDecision struct {
	ShouldStop   bool    `json:"should_stop"`
	Reason       string  `json:"reason"`
	ExitFraction float64 `json:"exit_fraction"` // 1 = full exit
}

// unrealizedProfit reports whether the position is in profit.
func (p PositionSnapshot) unrealizedProfit() bool {
	if p.Direction == signal.Long {
		return p.CurrentPrice > p.EntryPrice
	}
	return p.CurrentPrice < p.EntryPrice
}

// momentumReversed reports a MACD-histogram contraction over the cutoff or
// an adverse EMA20 cross.
func (p PositionSnapshot) momentumReversed(cutoff float64) bool {
	if indicator.HistogramContraction(p.PrevMACDHist, p.CurMACDHist) >= cutoff {
		return true
	}
	if p.EMA20 > 0 {
		if p.Direction == signal.Long && p.CurrentPrice < p.EMA20 {
			return true
		}
		if p.Direction == signal.Short && p.CurrentPrice > p.EMA20 {
			return true
		}
	}
	return false
}

// ShouldTimeStop applies the stagnation rules. A position past the short
// threshold with no profit and a momentum reversal exits fully; past the
// long threshold with no profit it sheds a partial fraction regardless of
// momentum.
func ShouldTimeStop(pos PositionSnapshot, now time.Time, cfg TimeStopConfig) TimeStopDecision {
	cfg = cfg.withDefaults()

	if pos.unrealizedProfit() {
		return TimeStopDecision{}
	}
	age := now.Sub(pos.OpenedAt)

	if age >= time.Duration(cfg.TimeStopMinutes)*time.Minute && pos.momentumReversed(cfg.ContractionCutoff) {
		return TimeStopDecision{
			ShouldStop:   true,
			Reason:       ReasonTimeStopReversal,
			ExitFraction: 1,
		}
	}

	if age >= time.Duration(cfg.ExtendedStopMinutes)*time.Minute {
		return TimeStopDecision{
			ShouldStop:   true,
			Reason:       ReasonExtendedTimeStop,
			ExitFraction: cfg.PartialExitFraction,
		}
	}
	return TimeStopDecision{}
}
