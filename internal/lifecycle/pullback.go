package lifecycle

import (
	"math"

	"futures-signal-engine/internal/indicator"
	"futures-signal-engine/internal/market"
	"futures-signal-engine/internal/signal"
)

// Pullback reasons.
const (
	ReasonNoRetrace         = "no_retrace_to_level"
	ReasonMANotHeld         = "ma_not_held"
	ReasonNoMicroStructure  = "no_micro_structure"
	ReasonPullbackConfirmed = "pullback_confirmed"
)

// Pullback defaults.
const (
	DefaultRetraceTolerance = 0.015
	DefaultHoldBars         = 2
	DefaultMAPeriod         = 20
	DefaultWBottomTolerance = 0.005
)

// PullbackConfig controls the retest entry path.
type PullbackConfig struct {
	RetraceTolerance float64 `json:"retrace_tolerance"` // band around the breakout level
	HoldBars         int     `json:"hold_bars"`         // consecutive bars holding the MA
	MAPeriod         int     `json:"ma_period"`
	WBottomTolerance float64 `json:"w_bottom_tolerance"` // max spread between the two lows
}

// DefaultPullbackConfig returns the stock retest parameters.
func DefaultPullbackConfig() PullbackConfig {
	return PullbackConfig{
		RetraceTolerance: DefaultRetraceTolerance,
		HoldBars:         DefaultHoldBars,
		MAPeriod:         DefaultMAPeriod,
		WBottomTolerance: DefaultWBottomTolerance,
	}
}

func (c PullbackConfig) withDefaults() PullbackConfig {
	d := DefaultPullbackConfig()
	if c.RetraceTolerance <= 0 {
		c.RetraceTolerance = d.RetraceTolerance
	}
	if c.HoldBars <= 0 {
		c.HoldBars = d.HoldBars
	}
	if c.MAPeriod <= 0 {
		c.MAPeriod = d.MAPeriod
	}
	if c.WBottomTolerance <= 0 {
		c.WBottomTolerance = d.WBottomTolerance
	}
	return c
}

// MicroStructure names the support/resistance shape that sealed the
// confirmation.
type MicroStructure string

const (
	StructureNone          MicroStructure = "NONE"
	StructureVReversal     MicroStructure = "V_REVERSAL"
	StructureWBottom       MicroStructure = "W_BOTTOM"
	StructureRisingSupport MicroStructure = "RISING_SUPPORT"
)

// PullbackResult is the outcome of the retest check.
type PullbackResult struct {
	Confirmed bool           `json:"confirmed"`
	Reason    string         `json:"reason"`
	Structure MicroStructure `json:"structure"`
}

// ConfirmPullback validates the retest entry path: price must have retraced
// to within the tolerance band of the breakout level, held the reference MA
// for the required consecutive bars, and printed a reversal micro-structure.
// All three must pass. Shorts mirror every check.
func ConfirmPullback(dir signal.Direction, candles []market.Candle, breakoutLevel float64, cfg PullbackConfig) PullbackResult {
	cfg = cfg.withDefaults()
	long := dir == signal.Long

	if breakoutLevel <= 0 || len(candles) < cfg.MAPeriod+cfg.HoldBars {
		return PullbackResult{Reason: ReasonNoRetrace, Structure: StructureNone}
	}

	if !retracedToLevel(candles, breakoutLevel, cfg.RetraceTolerance, long) {
		return PullbackResult{Reason: ReasonNoRetrace, Structure: StructureNone}
	}

	if !heldMA(candles, cfg.MAPeriod, cfg.HoldBars, long) {
		return PullbackResult{Reason: ReasonMANotHeld, Structure: StructureNone}
	}

	structure := microStructure(candles, cfg.WBottomTolerance, long)
	if structure == StructureNone {
		return PullbackResult{Reason: ReasonNoMicroStructure, Structure: StructureNone}
	}

	return PullbackResult{Confirmed: true, Reason: ReasonPullbackConfirmed, Structure: structure}
}

// retracedToLevel reports whether any recent bar came back inside the
// tolerance band around the breakout level.
func retracedToLevel(candles []market.Candle, level, tolerance float64, long bool) bool {
	lookback := 5
	if len(candles) < lookback {
		lookback = len(candles)
	}
	for _, c := range candles[len(candles)-lookback:] {
		extreme := c.Low
		if !long {
			extreme = c.High
		}
		if math.Abs(extreme-level)/level <= tolerance {
			return true
		}
	}
	return false
}

// heldMA reports whether the last holdBars closes stayed on the right side
// of the reference MA.
func heldMA(candles []market.Candle, period, holdBars int, long bool) bool {
	for i := 0; i < holdBars; i++ {
		upto := candles[:len(candles)-i]
		ma := indicator.SMA(upto, period)
		if ma == 0 {
			return false
		}
		cl := upto[len(upto)-1].Close
		if long && cl < ma {
			return false
		}
		if !long && cl > ma {
			return false
		}
	}
	return true
}

// microStructure looks for a V-reversal, a W-bottom with matching lows, or
// rising support across the last few bars (mirrored for shorts).
func microStructure(candles []market.Candle, wTolerance float64, long bool) MicroStructure {
	if len(candles) < 5 {
		return StructureNone
	}
	last5 := candles[len(candles)-5:]

	lows := make([]float64, 5)
	for i, c := range last5 {
		if long {
			lows[i] = c.Low
		} else {
			lows[i] = c.High
		}
	}

	// V-reversal: a single extreme in the middle with both sides recovering.
	if long && lows[2] < lows[1] && lows[2] < lows[3] && last5[4].Close > last5[2].Close {
		return StructureVReversal
	}
	if !long && lows[2] > lows[1] && lows[2] > lows[3] && last5[4].Close < last5[2].Close {
		return StructureVReversal
	}

	// W-bottom (M-top for shorts): two extremes within tolerance of each
	// other separated by a bounce.
	if lows[1] != 0 && math.Abs(lows[1]-lows[3])/math.Abs(lows[1]) < wTolerance {
		if long && lows[2] > lows[1] && lows[2] > lows[3] {
			return StructureWBottom
		}
		if !long && lows[2] < lows[1] && lows[2] < lows[3] {
			return StructureWBottom
		}
	}

	// Rising support: monotone extremes over the window.
	monotone := true
	for i := 1; i < 5; i++ {
		if long && lows[i] < lows[i-1] {
			monotone = false
			break
		}
		if !long && lows[i] > lows[i-1] {
			monotone = false
			break
		}
	}
	if monotone {
		return StructureRisingSupport
	}
	return StructureNone
}
