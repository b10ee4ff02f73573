// Package indicator implements stateless numeric indicators over ordered
// candle series. Every function returns a zero/neutral value when the series
// is shorter than its warm-up window; malformed candles are filtered before
// averaging so corrupt bars cannot produce NaN results.
package indicator

import (
	"futures-signal-engine/internal/market"
)

// SMA returns the simple moving average of the last `period` valid closes.
// Returns 0 when fewer than `period` valid closes exist.
func SMA(candles []market.Candle, period int) float64 {
	closes := market.CleanCloses(candles)
	if period <= 0 || len(closes) < period {
		return 0
	}
	sum := 0.0
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// SMASeries returns the aligned SMA series over valid closes. Output length
// is len(valid closes) - period + 1, or nil on insufficient data.
func SMASeries(candles []market.Candle, period int) []float64 {
	closes := market.CleanCloses(candles)
	if period <= 0 || len(closes) < period {
		return nil
	}
	out := make([]float64, 0, len(closes)-period+1)
	sum := 0.0
	for i, v := range closes {
		sum += v
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA returns the latest exponential moving average of the valid closes,
// seeded by the SMA of the first `period` values. Returns 0 on insufficient
// data.
func EMA(candles []market.Candle, period int) float64 {
	series := emaSeries(market.CleanCloses(candles), period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func emaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	out = append(out, seed)

	mult := 2.0 / float64(period+1)
	prev := seed
	for _, v := range values[period:] {
		prev = (v-prev)*mult + prev
		out = append(out, prev)
	}
	return out
}
