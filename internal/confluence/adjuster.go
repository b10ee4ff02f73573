package confluence

import (
	"sync"
)

// Adjuster defaults.
const (
	DefaultAdjustAlpha = 0.1
	DefaultMinSamples  = 10
)

type factorStats struct {
	wins  int
	total int
}

// Adjuster is an online weight learner. It records per-factor trade
// outcomes per symbol and nudges each weight by alpha*(winRate-0.5) once a
// minimum sample count exists, renormalizing the profile to sum 1.
type Adjuster struct {
	mu         sync.Mutex
	alpha      float64
	minSamples int
	stats      map[string]map[string]*factorStats // symbol -> factor -> stats
}

// NewAdjuster creates an adjuster; non-positive arguments use the defaults.
func NewAdjuster(alpha float64, minSamples int) *Adjuster {
	if alpha <= 0 {
		alpha = DefaultAdjustAlpha
	}
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &Adjuster{
		alpha:      alpha,
		minSamples: minSamples,
		stats:      make(map[string]map[string]*factorStats),
	}
}

// RecordOutcome registers whether a factor was part of a winning trade.
func (a *Adjuster) RecordOutcome(symbol, factor string, won bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bySym, ok := a.stats[symbol]
	if !ok {
		bySym = make(map[string]*factorStats)
		a.stats[symbol] = bySym
	}
	st, ok := bySym[factor]
	if !ok {
		st = &factorStats{}
		bySym[factor] = st
	}
	st.total++
	if won {
		st.wins++
	}
}

// WinRate returns the recorded win rate and sample count for a factor.
func (a *Adjuster) WinRate(symbol, factor string) (rate float64, samples int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.lookup(symbol, factor)
	if st == nil || st.total == 0 {
		return 0, 0
	}
	return float64(st.wins) / float64(st.total), st.total
}

// Adjust returns a copy of the base profile with each sufficiently-sampled
// factor's weight nudged by alpha*(winRate-0.5), floored at 0, then
// renormalized so the weights sum to 1. Factors below the sample minimum
// keep their base weight.
func (a *Adjuster) Adjust(symbol string, base Weights) Weights {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := base.Clone()
	for factor := range out {
		st := a.lookup(symbol, factor)
		if st == nil || st.total < a.minSamples {
			continue
		}
		winRate := float64(st.wins) / float64(st.total)
		w := out[factor] + a.alpha*(winRate-0.5)
		if w < 0 {
			w = 0
		}
		out[factor] = w
	}
	out.Normalize()
	return out
}

// Reset drops the recorded outcomes for a symbol.
func (a *Adjuster) Reset(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.stats, symbol)
}

func (a *Adjuster) lookup(symbol, factor string) *factorStats {
	bySym, ok := a.stats[symbol]
	if !ok {
		return nil
	}
	return bySym[factor]
}
