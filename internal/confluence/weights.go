// Package confluence combines detector outputs and indicator readings into
// weighted tier scores. Weight profiles are keyed by asset category and
// market regime and are supplied through configuration; the package ships
// defaults but never hardcodes per-symbol behavior.
package confluence

import (
	"fmt"
	"math"
)

// Category is the asset-class bucket a symbol trades in.
type Category string

const (
	CategoryMainstream   Category = "MAINSTREAM"
	CategoryHighCapTrend Category = "HIGH_CAP_TREND"
	CategoryHot          Category = "HOT"
	CategorySmallCap     Category = "SMALL_CAP"
)

// ParseCategory converts a configuration string into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryMainstream, CategoryHighCapTrend, CategoryHot, CategorySmallCap:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category %q: %w", s, ErrBadProfile)
	}
}

// Regime is the market state the scorer adapts to.
type Regime string

const (
	RegimeTrend Regime = "TREND"
	RegimeRange Regime = "RANGE"
)

// Tier identifies which timeframe's weight profile applies.
type Tier string

const (
	TierFactor Tier = "FACTOR_1H"
	TierEntry  Tier = "ENTRY_15M"
)

// WeightSumTolerance bounds the allowed drift of a profile's weight sum
// from 1.
const WeightSumTolerance = 1e-6

// Weights maps factor names to their share of the tier score.
type Weights map[string]float64

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Normalize scales the weights so they sum to 1. No-op on a zero sum.
func (w Weights) Normalize() {
	s := w.Sum()
	if s == 0 {
		return
	}
	for k := range w {
		w[k] /= s
	}
}

// Validate checks that every weight is finite and non-negative and the sum
// is 1 within tolerance.
func (w Weights) Validate() error {
	for k, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("weight %q = %v: %w", k, v, ErrBadProfile)
		}
	}
	if s := w.Sum(); math.Abs(s-1) > WeightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1: %w", s, ErrBadProfile)
	}
	return nil
}

// WeightTable holds one weight profile per category, regime, and tier.
type WeightTable map[Tier]map[Regime]map[Category]Weights

// Lookup returns the profile for the given tier, regime, and category, or a
// configuration error when none is registered.
func (t WeightTable) Lookup(tier Tier, regime Regime, cat Category) (Weights, error) {
	byRegime, ok := t[tier]
	if !ok {
		return nil, fmt.Errorf("tier %s: %w", tier, ErrMissingProfile)
	}
	byCat, ok := byRegime[regime]
	if !ok {
		return nil, fmt.Errorf("tier %s regime %s: %w", tier, regime, ErrMissingProfile)
	}
	w, ok := byCat[cat]
	if !ok {
		return nil, fmt.Errorf("tier %s regime %s category %s: %w", tier, regime, cat, ErrMissingProfile)
	}
	return w, nil
}

// Validate checks every registered profile.
func (t WeightTable) Validate() error {
	for tier, byRegime := range t {
		for regime, byCat := range byRegime {
			for cat, w := range byCat {
				if err := w.Validate(); err != nil {
					return fmt.Errorf("%s/%s/%s: %w", tier, regime, cat, err)
				}
			}
		}
	}
	return nil
}

// DefaultWeightTable returns the stock profiles for all four categories.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		TierFactor: {
			RegimeTrend: {
				CategoryMainstream:   {"breakout": 0.30, "volume": 0.20, "oi": 0.25, "delta": 0.15, "funding": 0.10},
				CategoryHighCapTrend: {"breakout": 0.25, "volume": 0.25, "oi": 0.20, "delta": 0.20, "funding": 0.10},
				CategoryHot:          {"breakout": 0.15, "volume": 0.30, "oi": 0.15, "delta": 0.30, "funding": 0.10},
				CategorySmallCap:     {"breakout": 0.15, "volume": 0.35, "oi": 0.15, "delta": 0.25, "funding": 0.10},
			},
			RegimeRange: {
				CategoryMainstream:   {"vwap": 0.20, "touch": 0.30, "volume": 0.20, "delta": 0.15, "oi": 0.10, "no_breakout": 0.05},
				CategoryHighCapTrend: {"vwap": 0.20, "touch": 0.30, "volume": 0.25, "delta": 0.15, "oi": 0.10, "no_breakout": 0.00},
				CategoryHot:          {"vwap": 0.10, "touch": 0.25, "volume": 0.30, "delta": 0.25, "oi": 0.10, "no_breakout": 0.00},
				CategorySmallCap:     {"vwap": 0.10, "touch": 0.25, "volume": 0.30, "delta": 0.25, "oi": 0.10, "no_breakout": 0.00},
			},
		},
		TierEntry: {
			RegimeTrend: {
				CategoryMainstream:   {"vwap": 0.40, "delta": 0.20, "oi": 0.20, "volume": 0.20},
				CategoryHighCapTrend: {"vwap": 0.35, "delta": 0.25, "oi": 0.20, "volume": 0.20},
				CategoryHot:          {"vwap": 0.30, "delta": 0.25, "oi": 0.20, "volume": 0.25},
				CategorySmallCap:     {"vwap": 0.25, "delta": 0.25, "oi": 0.15, "volume": 0.35},
			},
			RegimeRange: {
				CategoryMainstream:   {"vwap": 0.30, "delta": 0.30, "oi": 0.20, "volume": 0.20},
				CategoryHighCapTrend: {"vwap": 0.20, "delta": 0.30, "oi": 0.30, "volume": 0.20},
				CategoryHot:          {"vwap": 0.20, "delta": 0.20, "oi": 0.20, "volume": 0.40},
				CategorySmallCap:     {"vwap": 0.10, "delta": 0.20, "oi": 0.20, "volume": 0.50},
			},
		},
	}
}

// Classifier maps symbols onto categories. Unknown symbols fall back to
// SMALL_CAP, the most conservative weight set.
type Classifier struct {
	bySymbol map[string]Category
}

// NewClassifier builds a classifier from a symbol -> category table.
func NewClassifier(table map[string]Category) *Classifier {
	c := &Classifier{bySymbol: make(map[string]Category, len(table))}
	for sym, cat := range table {
		c.bySymbol[sym] = cat
	}
	return c
}

// DefaultClassifier covers the commonly traded perpetual symbols.
func DefaultClassifier() *Classifier {
	table := map[string]Category{}
	for _, s := range []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"} {
		table[s] = CategoryMainstream
	}
	for _, s := range []string{"SOLUSDT", "ADAUSDT", "XRPUSDT", "DOGEUSDT", "DOTUSDT", "LTCUSDT", "TRXUSDT", "BCHUSDT", "ETCUSDT"} {
		table[s] = CategoryHighCapTrend
	}
	for _, s := range []string{"PEPEUSDT", "APTUSDT", "PENDLEUSDT", "LINKUSDT", "MKRUSDT", "SUIUSDT"} {
		table[s] = CategoryHot
	}
	for _, s := range []string{"ONDOUSDT", "LDOUSDT", "MPLUSDT"} {
		table[s] = CategorySmallCap
	}
	return NewClassifier(table)
}

// Merge returns a new classifier with the given overrides applied on top
// of this one's table.
func (c *Classifier) Merge(overrides map[string]Category) *Classifier {
	merged := make(map[string]Category, len(c.bySymbol)+len(overrides))
	for sym, cat := range c.bySymbol {
		merged[sym] = cat
	}
	for sym, cat := range overrides {
		merged[sym] = cat
	}
	return NewClassifier(merged)
}

// Classify returns the category for a symbol.
func (c *Classifier) Classify(symbol string) Category {
	if cat, ok := c.bySymbol[symbol]; ok {
		return cat
	}
	return CategorySmallCap
}
