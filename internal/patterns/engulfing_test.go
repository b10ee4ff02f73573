package patterns

import (
	"testing"

	"futures-signal-engine/internal/market"
)

func TestDetectEngulfingBullish(t *testing.T) {
	candles := []market.Candle{
		{Open: 100, High: 101, Low: 89, Close: 90, Volume: 10},
		{Open: 85, High: 106, Low: 84, Close: 105, Volume: 20},
	}
	res := DetectEngulfing(candles)
	if !res.Detected {
		t.Fatal("bullish engulfing not detected")
	}
	if res.Type != Bullish {
		t.Errorf("type = %v, want BULLISH", res.Type)
	}
	if res.Strength != 1 {
		t.Errorf("strength = %v, want 1 (body 20 vs 10, clipped)", res.Strength)
	}
}

func TestDetectEngulfingBearish(t *testing.T) {
	candles := []market.Candle{
		{Open: 90, High: 101, Low: 89, Close: 100, Volume: 10},
		{Open: 102, High: 103, Low: 84, Close: 88, Volume: 20},
	}
	res := DetectEngulfing(candles)
	if !res.Detected || res.Type != Bearish {
		t.Errorf("expected bearish engulfing, got %+v", res)
	}
}

func TestDetectEngulfingPartialBodyIsNotEngulfing(t *testing.T) {
	// Current close does not clear the previous open.
	candles := []market.Candle{
		{Open: 100, High: 101, Low: 89, Close: 90, Volume: 10},
		{Open: 89, High: 99, Low: 88, Close: 98, Volume: 20},
	}
	res := DetectEngulfing(candles)
	if res.Detected {
		t.Errorf("partial engulfing should not detect, got %+v", res)
	}
}

func TestDetectEngulfingStrengthRange(t *testing.T) {
	// A full engulf spans at least the whole previous body, so the clipped
	// ratio sits at the top of the range.
	candles := []market.Candle{
		{Open: 110, High: 111, Low: 89, Close: 90, Volume: 10},
		{Open: 89, High: 112, Low: 88, Close: 111, Volume: 20},
	}
	res := DetectEngulfing(candles)
	if !res.Detected {
		t.Fatal("engulfing not detected")
	}
	if res.Strength < 0 || res.Strength > 1 {
		t.Errorf("strength out of range: %v", res.Strength)
	}
	if res.Strength != 1 {
		t.Errorf("strength = %v, want 1", res.Strength)
	}
}

func TestDetectEngulfingShortSeries(t *testing.T) {
	res := DetectEngulfing([]market.Candle{{Open: 1, Close: 2}})
	if res.Detected || res.Type != None {
		t.Errorf("single candle should be neutral, got %+v", res)
	}
}
