package lifecycle

import (
	"fmt"
	"math"

	"futures-signal-engine/internal/market"
	"futures-signal-engine/internal/signal"
)

// EntryMode is how the position was entered; it scales the stop width.
type EntryMode string

const (
	ModeBreakout EntryMode = "BREAKOUT"
	ModePullback EntryMode = "PULLBACK"
	ModeMomentum EntryMode = "MOMENTUM"
)

// ATR multipliers by confidence tier and entry-mode scaling factors.
const (
	KHighConfidence = 1.4
	KMedConfidence  = 2.0
	KLowConfidence  = 3.0

	BreakoutScale = 1.25
	PullbackScale = 0.9
	MomentumScale = 1.0

	DefaultTPFactor = 2.0
)

// StopPlan is the initial stop-loss/take-profit computed at entry.
type StopPlan struct {
	StopLoss   float64               `json:"stop_loss"`
	TakeProfit float64               `json:"take_profit"`
	KUsed      float64               `json:"k_used"`
	Tier       signal.ConfidenceTier `json:"tier"`
	Mode       EntryMode             `json:"mode"`
}

// PlanStops derives the initial stop and target. K is picked by confidence
// tier, scaled by the entry mode; the stop sits K*ATR from the entry and
// the target at stopDistance*tpFactor on the other side.
func PlanStops(dir signal.Direction, entryPrice, atr float64, tier signal.ConfidenceTier, mode EntryMode, tpFactor float64) (StopPlan, error) {
	if entryPrice <= 0 || math.IsNaN(entryPrice) || math.IsInf(entryPrice, 0) {
		return StopPlan{}, fmt.Errorf("entry price %v: %w", entryPrice, market.ErrInvalidInput)
	}
	if atr <= 0 || math.IsNaN(atr) || math.IsInf(atr, 0) {
		return StopPlan{}, fmt.Errorf("atr %v: %w", atr, market.ErrInvalidInput)
	}
	if dir != signal.Long && dir != signal.Short {
		return StopPlan{}, fmt.Errorf("direction %q: %w", dir, market.ErrInvalidInput)
	}
	if tpFactor <= 0 {
		tpFactor = DefaultTPFactor
	}

	k := kForTier(tier) * scaleForMode(mode)
	stopDist := k * atr

	plan := StopPlan{KUsed: k, Tier: tier, Mode: mode}
	if dir == signal.Long {
		plan.StopLoss = entryPrice - stopDist
		plan.TakeProfit = entryPrice + stopDist*tpFactor
	} else {
		plan.StopLoss = entryPrice + stopDist
		plan.TakeProfit = entryPrice - stopDist*tpFactor
	}
	return plan, nil
}

func kForTier(tier signal.ConfidenceTier) float64 {
	switch tier {
	case signal.TierHigh:
		return KHighConfidence
	case signal.TierMedium:
		return KMedConfidence
	default:
		return KLowConfidence
	}
}

func scaleForMode(mode EntryMode) float64 {
	switch mode {
	case ModeBreakout:
		return BreakoutScale
	case ModePullback:
		return PullbackScale
	default:
		return MomentumScale
	}
}
