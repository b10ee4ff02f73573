package signal

import (
	"futures-signal-engine/internal/indicator"
	"futures-signal-engine/internal/market"
)

// Trend is the higher-timeframe directional state.
type Trend string

const (
	TrendUp    Trend = "UP"
	TrendDown  Trend = "DOWN"
	TrendRange Trend = "RANGE"
)

// Trend classification defaults: a 20-bar close change beyond 2% marks a
// trend, and a sub-threshold ADX forces RANGE regardless of price change.
const (
	TrendLookback     = 20
	TrendChangeCutoff = 0.02
)

// ClassifyTrend derives the higher-timeframe trend from the 20-bar change
// of the close, filtered by ADX trend strength. Insufficient data reads as
// RANGE.
func ClassifyTrend(candles []market.Candle, adxThreshold float64) Trend {
	if len(candles) < TrendLookback+1 {
		return TrendRange
	}

	adx := indicator.ADX(candles, 14)
	if indicator.ShouldFilter(adx.ADX, adxThreshold) {
		return TrendRange
	}

	ref := candles[len(candles)-1-TrendLookback].Close
	last := candles[len(candles)-1].Close
	if ref <= 0 {
		return TrendRange
	}
	change := (last - ref) / ref
	switch {
	case change >= TrendChangeCutoff:
		return TrendUp
	case change <= -TrendChangeCutoff:
		return TrendDown
	default:
		return TrendRange
	}
}
