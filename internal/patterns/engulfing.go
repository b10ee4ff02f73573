// Package patterns implements discrete chart-pattern detectors over candle
// windows: engulfing candles, order blocks, liquidity sweeps, harmonic
// patterns, and volume expansion. Detectors return structured results with a
// Detected flag and a strength/score in [0, 1]; short input is a neutral
// result, never an error.
package patterns

import (
	"futures-signal-engine/internal/market"
)

// Direction of a detected pattern.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	None    Direction = "NONE"
)

// EngulfingResult reports a two-candle engulfing pattern. Strength is the
// engulfing body relative to the engulfed body, clipped to [0, 1].
type EngulfingResult struct {
	Detected bool
	Type     Direction
	Strength float64
}

// DetectEngulfing checks the last two candles. Bullish: previous candle
// bearish, current candle bullish, current open below previous close and
// current close above previous open. Bearish is the mirror.
func DetectEngulfing(candles []market.Candle) EngulfingResult {
	if len(candles) < 2 {
		return EngulfingResult{Type: None}
	}
	prev := candles[len(candles)-2]
	cur := candles[len(candles)-1]

	bullish := prev.Bearish() && cur.Bullish() &&
		cur.Open < prev.Close && cur.Close > prev.Open
	bearish := prev.Bullish() && cur.Bearish() &&
		cur.Open > prev.Close && cur.Close < prev.Open

	if !bullish && !bearish {
		return EngulfingResult{Type: None}
	}

	res := EngulfingResult{Detected: true, Type: Bullish}
	if bearish {
		res.Type = Bearish
	}
	if prevBody := prev.Body(); prevBody > 0 {
		res.Strength = clip01(cur.Body() / prevBody)
	} else {
		res.Strength = 1
	}
	return res
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
