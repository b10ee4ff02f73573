package indicator

import (
	"math"

	"futures-signal-engine/internal/market"
)

// Standard MACD parameters.
const (
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
)

// MACDResult carries the latest MACD line, signal line and histogram.
// Trending is true when the histogram magnitude clears a minimum.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
	Trending  bool
}

// MACD computes the 12/26/9 MACD over valid closes. Returns a zeroed result
// (not an error) when fewer than slow+signal values exist; short series are
// a normal warm-up condition.
func MACD(candles []market.Candle) MACDResult {
	return MACDWith(candles, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
}

// MACDWith is MACD with explicit periods.
func MACDWith(candles []market.Candle, fast, slow, signal int) MACDResult {
	closes := market.CleanCloses(candles)
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return MACDResult{}
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	// Both series end at the latest close; align on the tail.
	n := len(slowEMA)
	macdLine := make([]float64, n)
	offset := len(fastEMA) - n
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine := emaSeries(macdLine, signal)
	if len(signalLine) == 0 {
		return MACDResult{}
	}

	m := macdLine[len(macdLine)-1]
	s := signalLine[len(signalLine)-1]
	hist := m - s
	price := closes[len(closes)-1]

	return MACDResult{
		MACD:      m,
		Signal:    s,
		Histogram: hist,
		Trending:  price > 0 && math.Abs(hist)/price > 0.0005,
	}
}

// HistogramContraction returns the fractional shrink of the histogram
// magnitude from prev to cur, in [0, 1]. A result of 0.8 means the histogram
// lost 80% of its magnitude. Sign flips count as full contraction.
func HistogramContraction(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	if prev*cur < 0 {
		return 1
	}
	ratio := 1 - math.Abs(cur)/math.Abs(prev)
	if ratio < 0 {
		return 0
	}
	return ratio
}
