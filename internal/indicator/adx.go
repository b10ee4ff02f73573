package indicator

import (
	"futures-signal-engine/internal/market"
)

// Market-state thresholds for the ADX classifier.
const (
	ADXStrongTrend  = 35.0
	ADXTrending     = 25.0
	ADXRanging      = 20.0
	ADXFilterCutoff = 20.0
)

// MarketState classifies trend strength from an ADX reading.
type MarketState string

const (
	StateStrongTrend MarketState = "STRONG_TREND"
	StateTrending    MarketState = "TRENDING"
	StateRanging     MarketState = "RANGING"
	StateNoTrend     MarketState = "NO_TREND"
)

// ADXResult carries the latest ADX value and its directional components.
type ADXResult struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX computes the Average Directional Index with Wilder smoothing over
// +DM/-DM and true range. Returns a zero result when fewer than 2*period+1
// candles exist.
func ADX(candles []market.Candle, period int) ADXResult {
	if period <= 0 || len(candles) < 2*period+1 {
		return ADXResult{}
	}

	n := len(candles) - 1
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	trs := make([]float64, n)
	for i := 1; i < len(candles); i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
		trs[i-1] = trueRange(candles[i], candles[i-1].Close)
	}

	smPlus := wilderSeries(plusDM, period)
	smMinus := wilderSeries(minusDM, period)
	smTR := wilderSeries(trs, period)
	if len(smTR) == 0 {
		return ADXResult{}
	}

	dxs := make([]float64, 0, len(smTR))
	var lastPlusDI, lastMinusDI float64
	for i := range smTR {
		if smTR[i] == 0 {
			dxs = append(dxs, 0)
			continue
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		lastPlusDI, lastMinusDI = plusDI, minusDI
		sum := plusDI + minusDI
		if sum == 0 {
			dxs = append(dxs, 0)
			continue
		}
		dxs = append(dxs, 100*abs(plusDI-minusDI)/sum)
	}

	adxSeries := wilderSeries(dxs, period)
	if len(adxSeries) == 0 {
		return ADXResult{}
	}
	return ADXResult{
		ADX:     adxSeries[len(adxSeries)-1],
		PlusDI:  lastPlusDI,
		MinusDI: lastMinusDI,
	}
}

// ClassifyMarketState maps an ADX value onto the trend-strength buckets.
func ClassifyMarketState(adx float64) MarketState {
	switch {
	case adx >= ADXStrongTrend:
		return StateStrongTrend
	case adx >= ADXTrending:
		return StateTrending
	case adx >= ADXRanging:
		return StateRanging
	default:
		return StateNoTrend
	}
}

// ShouldFilter reports whether trend signals should be suppressed because
// the market is ranging. Threshold <= 0 falls back to the default cutoff.
func ShouldFilter(adx, threshold float64) bool {
	if threshold <= 0 {
		threshold = ADXFilterCutoff
	}
	return adx < threshold
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
