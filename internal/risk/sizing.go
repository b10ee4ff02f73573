// Package risk computes position sizing and manages trailing stops. Sizing
// is a pure calculation; malformed inputs are errors, never silent defaults.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSizing marks sizing inputs that cannot produce a position.
var ErrInvalidSizing = errors.New("invalid sizing input")

// Sizing defaults.
const (
	DefaultMaxLeverage  = 24
	DefaultSafetyMargin = 0.005
)

// SizingConfig holds the risk parameters supplied by the caller.
type SizingConfig struct {
	MaxLossAmount float64 `json:"max_loss_amount"` // quote-currency risk budget per trade
	MaxLeverage   int     `json:"max_leverage"`
	SafetyMargin  float64 `json:"safety_margin"` // added to stop distance before inverting
}

// DefaultSizingConfig returns the stock risk parameters.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		MaxLossAmount: 100,
		MaxLeverage:   DefaultMaxLeverage,
		SafetyMargin:  DefaultSafetyMargin,
	}
}

// PositionSize is the computed leverage and margin for one entry.
type PositionSize struct {
	StopLossDistance float64 // |entry-stop| / entry
	MaxLeverage      int     // theoretical cap before the configured cap
	Leverage         int
	Margin           float64 // quote currency
}

// ComputePositionSize derives leverage and margin from the entry price and
// stop-loss price. Theoretical max leverage = floor(1/(distance+safety));
// the configured cap bounds it. Margin = ceil(maxLoss/(leverage*distance)).
func ComputePositionSize(entryPrice, stopLossPrice float64, cfg SizingConfig) (PositionSize, error) {
	if entryPrice <= 0 || math.IsNaN(entryPrice) || math.IsInf(entryPrice, 0) {
		return PositionSize{}, fmt.Errorf("entry price %v: %w", entryPrice, ErrInvalidSizing)
	}
	if math.IsNaN(stopLossPrice) || math.IsInf(stopLossPrice, 0) {
		return PositionSize{}, fmt.Errorf("stop loss price %v: %w", stopLossPrice, ErrInvalidSizing)
	}
	dist := math.Abs(entryPrice-stopLossPrice) / entryPrice
	if dist <= 0 || math.IsNaN(dist) {
		return PositionSize{}, fmt.Errorf("stop loss distance %v: %w", dist, ErrInvalidSizing)
	}

	safety := cfg.SafetyMargin
	if safety <= 0 {
		safety = DefaultSafetyMargin
	}
	levCap := cfg.MaxLeverage
	if levCap <= 0 {
		levCap = DefaultMaxLeverage
	}
	maxLoss := cfg.MaxLossAmount
	if maxLoss <= 0 {
		return PositionSize{}, fmt.Errorf("max loss amount %v: %w", cfg.MaxLossAmount, ErrInvalidSizing)
	}

	theoretical := int(math.Floor(1 / (dist + safety)))
	if theoretical < 1 {
		theoretical = 1
	}
	lev := theoretical
	if lev > levCap {
		lev = levCap
	}

	margin := math.Ceil(maxLoss / (float64(lev) * dist))
	return PositionSize{
		StopLossDistance: dist,
		MaxLeverage:      theoretical,
		Leverage:         lev,
		Margin:           margin,
	}, nil
}
