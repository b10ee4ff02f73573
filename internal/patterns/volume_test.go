package patterns

import (
	"math"
	"testing"

	"futures-signal-engine/internal/market"
)

func volCandles(vols ...float64) []market.Candle {
	out := make([]market.Candle, len(vols))
	for i, v := range vols {
		out[i] = market.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: v}
	}
	return out
}

func TestDetectVolumeExpansion(t *testing.T) {
	res := DetectVolumeExpansion(volCandles(100, 100, 100, 100, 150), 4, 1.2)
	if !res.Expanded {
		t.Errorf("150 vs avg 100 at 1.2x should expand, got %+v", res)
	}
	if math.Abs(res.Ratio-1.5) > 1e-9 {
		t.Errorf("ratio = %v, want 1.5", res.Ratio)
	}
	if res.AvgVolume != 100 {
		t.Errorf("avg = %v, want 100 (last bar excluded)", res.AvgVolume)
	}
}

func TestDetectVolumeExpansionBelowMultiplier(t *testing.T) {
	res := DetectVolumeExpansion(volCandles(100, 100, 100, 100, 110), 4, 1.2)
	if res.Expanded {
		t.Errorf("110 vs avg 100 should not expand at 1.2x, got %+v", res)
	}
}

func TestDetectVolumeExpansionInsufficientData(t *testing.T) {
	res := DetectVolumeExpansion(volCandles(100, 150), 4, 1.2)
	if res.Expanded || res.Ratio != 0 {
		t.Errorf("short series should be neutral, got %+v", res)
	}
}

func TestDetectVolumeExpansionZeroAverage(t *testing.T) {
	res := DetectVolumeExpansion(volCandles(0, 0, 0, 0, 50), 4, 1.2)
	if res.Expanded {
		t.Errorf("zero trailing average should be neutral, got %+v", res)
	}
}

func TestDetectVolumeExpansionDefaultMultiplier(t *testing.T) {
	res := DetectVolumeExpansion(volCandles(100, 100, 100, 100, 125), 4, 0)
	if !res.Expanded {
		t.Errorf("multiplier 0 should fall back to %v, got %+v", DefaultVolumeMultiplier, res)
	}
}
