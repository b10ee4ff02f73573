package indicator

import (
	"math"

	"futures-signal-engine/internal/market"
)

// TrueRanges returns the true-range series. Output length is len(candles)-1;
// nil when fewer than two candles exist.
func TrueRanges(candles []market.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		out = append(out, trueRange(candles[i], candles[i-1].Close))
	}
	return out
}

func trueRange(c market.Candle, prevClose float64) float64 {
	hl := c.High - c.Low
	hc := math.Abs(c.High - prevClose)
	lc := math.Abs(c.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

// ATR returns the simple rolling-average ATR over the last `period` true
// ranges. Returns 0 when fewer than period+1 candles exist.
func ATR(candles []market.Candle, period int) float64 {
	trs := TrueRanges(candles)
	if period <= 0 || len(trs) < period {
		return 0
	}
	sum := 0.0
	for _, v := range trs[len(trs)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// ATRWilder returns the Wilder-smoothed ATR:
// smoothed[i] = (smoothed[i-1]*(period-1) + tr[i]) / period, seeded by the
// simple average of the first `period` true ranges. Returns 0 when fewer
// than period+1 candles exist.
func ATRWilder(candles []market.Candle, period int) float64 {
	series := wilderSeries(TrueRanges(candles), period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func wilderSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = prev - prev/float64(period) + v/float64(period)
		out = append(out, prev)
	}
	return out
}
