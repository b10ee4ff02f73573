// Package signal turns tier scores and pattern results into a final
// directional decision through a gate-then-tolerate model: every hard gate
// must pass and at least one tolerance condition must pass. Confidence is a
// single numeric value derived from the fused score by one pure function;
// no code path assigns a label or a literal score bonus.
package signal

import (
	"futures-signal-engine/internal/confluence"
	"futures-signal-engine/internal/patterns"
)

// Direction of the final decision.
type Direction string

const (
	Long     Direction = "LONG"
	Short    Direction = "SHORT"
	NoSignal Direction = "NONE"
)

// Rejection and acceptance reasons. Policy rejections are results, not
// errors.
const (
	ReasonConfirmed   = "confirmed"
	ReasonTrendRange  = "gate_trend_range"
	ReasonOrderBlock  = "gate_order_block_invalid"
	ReasonSweep       = "gate_sweep_unconfirmed"
	ReasonNoTolerance = "no_tolerance_met"
)

// Profile is the strategy-specific gate/tolerance configuration. Strategy
// variants differ by data, not by type.
type Profile struct {
	MinEngulfStrength float64 `json:"min_engulf_strength"`
	MinHarmonicScore  float64 `json:"min_harmonic_score"`

	// Fusion weights across the three tier scores.
	TrendWeight  float64 `json:"trend_weight"`
	FactorWeight float64 `json:"factor_weight"`
	EntryWeight  float64 `json:"entry_weight"`

	// Confidence tier cutoffs, applied to the numeric confidence.
	HighTier   float64 `json:"high_tier"`
	MediumTier float64 `json:"medium_tier"`
}

// DefaultProfile returns the stock gate/tolerance configuration.
func DefaultProfile() Profile {
	return Profile{
		MinEngulfStrength: 0.6,
		MinHarmonicScore:  0.6,
		TrendWeight:       0.5,
		FactorWeight:      0.35,
		EntryWeight:       0.15,
		HighTier:          0.7,
		MediumTier:        0.45,
	}
}

// ConfidenceTier buckets a numeric confidence for risk selection. The tier
// is always derived from the number, never stored independently.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

// Inputs collects everything the decision needs. Detector results arrive
// precomputed so the engine itself stays a pure function.
type Inputs struct {
	Symbol     string
	Trend      Trend
	OrderBlock patterns.OrderBlockResult
	Sweep      patterns.SweepResult
	Engulfing  patterns.EngulfingResult
	Harmonic   patterns.HarmonicResult

	TrendScore  confluence.FactorScoreSet
	FactorScore confluence.FactorScoreSet
	EntryScore  confluence.FactorScoreSet
}

// Breakdown exposes the per-tier scores behind a decision.
type Breakdown struct {
	Trend   float64 `json:"trend"`
	Factors float64 `json:"factors"`
	Entry   float64 `json:"entry"`
}

// Decision is the terminal output of the engine.
type Decision struct {
	Direction  Direction `json:"direction"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	Breakdown  Breakdown `json:"breakdown"`
}

// Tier returns the confidence bucket for this decision under the profile.
func (d Decision) Tier(p Profile) ConfidenceTier {
	switch {
	case d.Confidence >= p.HighTier:
		return TierHigh
	case d.Confidence >= p.MediumTier:
		return TierMedium
	default:
		return TierLow
	}
}

// Confidence maps a fused score onto the numeric confidence. This is the
// only place confidence is computed.
func Confidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Evaluate applies the gate/tolerance model. Hard gates: trend not RANGE,
// order block valid, sweep confirmed. Tolerances: engulfing strength or
// harmonic score over their minima. All gates AND at least one tolerance
// must hold for a directional decision.
func Evaluate(in Inputs, p Profile) Decision {
	breakdown := Breakdown{
		Trend:   in.TrendScore.Score,
		Factors: in.FactorScore.Score,
		Entry:   in.EntryScore.Score,
	}
	score := p.TrendWeight*breakdown.Trend +
		p.FactorWeight*breakdown.Factors +
		p.EntryWeight*breakdown.Entry

	reject := func(reason string) Decision {
		return Decision{
			Direction:  NoSignal,
			Score:      score,
			Confidence: Confidence(score),
			Reason:     reason,
			Breakdown:  breakdown,
		}
	}

	if in.Trend == TrendRange {
		return reject(ReasonTrendRange)
	}
	if !in.OrderBlock.Valid {
		return reject(ReasonOrderBlock)
	}
	if !in.Sweep.Detected {
		return reject(ReasonSweep)
	}

	engulfOK := in.Engulfing.Detected && in.Engulfing.Strength >= p.MinEngulfStrength
	harmonicOK := in.Harmonic.Detected && in.Harmonic.Score >= p.MinHarmonicScore
	if !engulfOK && !harmonicOK {
		return reject(ReasonNoTolerance)
	}

	dir := Long
	if in.Trend == TrendDown {
		dir = Short
	}
	return Decision{
		Direction:  dir,
		Score:      score,
		Confidence: Confidence(score),
		Reason:     ReasonConfirmed,
		Breakdown:  breakdown,
	}
}
