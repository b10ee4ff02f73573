package patterns

import (
	"futures-signal-engine/internal/market"
)

// DefaultVolumeMultiplier is the expansion threshold on the last bar's
// volume versus the trailing average.
const DefaultVolumeMultiplier = 1.2

// VolumeExpansionResult compares the last bar's volume to the trailing
// average volume (the last bar excluded from the average).
type VolumeExpansionResult struct {
	Expanded  bool
	Ratio     float64
	AvgVolume float64
}

// DetectVolumeExpansion reports whether the last bar's volume is at least
// `multiplier` times the trailing average over `window` prior bars.
// Multiplier <= 0 falls back to the default; returns a neutral result when
// fewer than window+1 candles exist or the trailing average is 0.
func DetectVolumeExpansion(candles []market.Candle, window int, multiplier float64) VolumeExpansionResult {
	if multiplier <= 0 {
		multiplier = DefaultVolumeMultiplier
	}
	if window <= 0 || len(candles) < window+1 {
		return VolumeExpansionResult{}
	}

	last := candles[len(candles)-1]
	trailing := candles[len(candles)-1-window : len(candles)-1]
	sum := 0.0
	for _, c := range trailing {
		sum += c.Volume
	}
	avg := sum / float64(window)
	if avg <= 0 {
		return VolumeExpansionResult{}
	}

	ratio := last.Volume / avg
	return VolumeExpansionResult{
		Expanded:  ratio >= multiplier,
		Ratio:     ratio,
		AvgVolume: avg,
	}
}
