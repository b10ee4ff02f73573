package indicator

import (
	"math"

	"futures-signal-engine/internal/market"
)

// BollingerResult carries the latest band values. Bandwidth is
// (upper-lower)/middle, i.e. 2k*std/middle; 0 when the middle band is 0.
type BollingerResult struct {
	Upper     float64
	Middle    float64
	Lower     float64
	StdDev    float64
	Bandwidth float64
}

// Bollinger computes Bollinger Bands over the last `period` valid closes
// with multiplier k. Returns a zero result on insufficient data.
func Bollinger(candles []market.Candle, period int, k float64) BollingerResult {
	closes := market.CleanCloses(candles)
	if period <= 0 || len(closes) < period {
		return BollingerResult{}
	}

	window := closes[len(closes)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)

	variance := 0.0
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))

	res := BollingerResult{
		Upper:  mean + k*std,
		Middle: mean,
		Lower:  mean - k*std,
		StdDev: std,
	}
	if mean != 0 {
		res.Bandwidth = (res.Upper - res.Lower) / mean
	}
	return res
}
