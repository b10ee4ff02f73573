package confluence

import (
	"math"
	"testing"
)

func TestAdjusterBelowMinSamplesUnchanged(t *testing.T) {
	a := NewAdjuster(0.1, 10)
	base := Weights{"breakout": 0.5, "volume": 0.5}
	for i := 0; i < 9; i++ {
		a.RecordOutcome("BTCUSDT", "breakout", true)
	}
	got := a.Adjust("BTCUSDT", base)
	if got["breakout"] != 0.5 || got["volume"] != 0.5 {
		t.Errorf("9 samples should not adjust, got %v", got)
	}
}

func TestAdjusterNudgesAndRenormalizes(t *testing.T) {
	a := NewAdjuster(0.1, 10)
	base := Weights{"breakout": 0.5, "volume": 0.5}
	// breakout wins 8 of 10.
	for i := 0; i < 10; i++ {
		a.RecordOutcome("BTCUSDT", "breakout", i < 8)
	}
	got := a.Adjust("BTCUSDT", base)

	if math.Abs(got.Sum()-1) > WeightSumTolerance {
		t.Errorf("adjusted weights sum to %v, want 1", got.Sum())
	}
	if got["breakout"] <= got["volume"] {
		t.Errorf("winning factor should gain weight: %v", got)
	}
	// Raw nudge: 0.5 + 0.1*(0.8-0.5) = 0.53, renormalized over 1.03.
	want := 0.53 / 1.03
	if math.Abs(got["breakout"]-want) > 1e-9 {
		t.Errorf("breakout weight = %v, want %v", got["breakout"], want)
	}
}

func TestAdjusterLosingFactorShrinks(t *testing.T) {
	a := NewAdjuster(0.1, 10)
	base := Weights{"breakout": 0.5, "volume": 0.5}
	for i := 0; i < 10; i++ {
		a.RecordOutcome("ETHUSDT", "volume", i < 2)
	}
	got := a.Adjust("ETHUSDT", base)
	if got["volume"] >= got["breakout"] {
		t.Errorf("losing factor should shed weight: %v", got)
	}
	if math.Abs(got.Sum()-1) > WeightSumTolerance {
		t.Errorf("sum = %v, want 1", got.Sum())
	}
}

func TestAdjusterDoesNotMutateBase(t *testing.T) {
	a := NewAdjuster(0.1, 10)
	base := Weights{"breakout": 0.5, "volume": 0.5}
	for i := 0; i < 12; i++ {
		a.RecordOutcome("BTCUSDT", "breakout", true)
	}
	_ = a.Adjust("BTCUSDT", base)
	if base["breakout"] != 0.5 {
		t.Errorf("base profile mutated: %v", base)
	}
}

func TestAdjusterWinRate(t *testing.T) {
	a := NewAdjuster(0.1, 10)
	a.RecordOutcome("BTCUSDT", "delta", true)
	a.RecordOutcome("BTCUSDT", "delta", false)
	rate, n := a.WinRate("BTCUSDT", "delta")
	if n != 2 || rate != 0.5 {
		t.Errorf("win rate = %v over %d, want 0.5 over 2", rate, n)
	}
	if _, n := a.WinRate("BTCUSDT", "unknown"); n != 0 {
		t.Errorf("unknown factor should report 0 samples, got %d", n)
	}
}

func TestAdjusterReset(t *testing.T) {
	a := NewAdjuster(0.1, 10)
	for i := 0; i < 12; i++ {
		a.RecordOutcome("BTCUSDT", "breakout", true)
	}
	a.Reset("BTCUSDT")
	got := a.Adjust("BTCUSDT", Weights{"breakout": 0.5, "volume": 0.5})
	if got["breakout"] != 0.5 {
		t.Errorf("reset should clear stats, got %v", got)
	}
}
