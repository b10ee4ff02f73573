package confluence

import (
	"errors"
	"math"

	"futures-signal-engine/internal/indicator"
)

// Configuration errors raised at the point of use.
var (
	ErrMissingProfile = errors.New("missing weight profile")
	ErrBadProfile     = errors.New("invalid weight profile")
)

// Factors holds normalized 0..1 factor evaluations keyed by factor name.
// Boolean factors score 0 or 1; continuous factors score anywhere between.
type Factors map[string]float64

// FactorScoreSet carries a tier's score together with the inputs that
// produced it.
type FactorScoreSet struct {
	Score   float64
	Factors Factors
	Weights Weights
	Gated   bool // true when a hard gate forced the score to 0
}

// weightedScore sums clip-normalized factor values by their weights.
// Factors without a registered weight contribute nothing, so scoring can
// never bypass the profile.
func weightedScore(factors Factors, weights Weights) float64 {
	score := 0.0
	for name, w := range weights {
		v, ok := factors[name]
		if !ok {
			continue
		}
		score += clamp01(v) * w
	}
	return score
}

// ScoreTrendTier scores the highest-timeframe confirmation set. The VWAP
// direction is a hard gate: when it disagrees with the candidate signal
// direction the score is 0 regardless of the other factors.
func ScoreTrendTier(signalLong bool, vwapDir indicator.VWAPDirection, factors Factors, weights Weights) FactorScoreSet {
	set := FactorScoreSet{Factors: factors, Weights: weights}
	if signalLong && vwapDir == indicator.VWAPBelow || !signalLong && vwapDir == indicator.VWAPAbove {
		set.Gated = true
		return set
	}
	set.Score = weightedScore(factors, weights)
	return set
}

// ScoreFactorTier scores the middle-timeframe factor set.
func ScoreFactorTier(factors Factors, weights Weights) FactorScoreSet {
	return FactorScoreSet{
		Score:   weightedScore(factors, weights),
		Factors: factors,
		Weights: weights,
	}
}

// ScoreEntryTier scores the lowest-timeframe trigger set.
func ScoreEntryTier(factors Factors, weights Weights) FactorScoreSet {
	return FactorScoreSet{
		Score:   weightedScore(factors, weights),
		Factors: factors,
		Weights: weights,
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
