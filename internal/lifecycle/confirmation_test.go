package lifecycle

import (
	"math"
	"testing"

	"futures-signal-engine/internal/market"
	"futures-signal-engine/internal/signal"
)

// bullBar and bearBar build directional bars with a given volume.
func bullBar(vol float64) market.Candle {
	return market.Candle{Open: 100, High: 102, Low: 99.5, Close: 101.5, Volume: vol}
}

func bearBar(vol float64) market.Candle {
	return market.Candle{Open: 101.5, High: 102, Low: 99.5, Close: 100, Volume: vol}
}

// confirmationSeries builds a long-friendly entry series: 24 bars with a
// buy-heavy imbalance and an expanded final bar.
func confirmationSeries() []market.Candle {
	out := make([]market.Candle, 0, 24)
	for i := 0; i < 23; i++ {
		if i%4 == 3 {
			out = append(out, bearBar(80))
		} else {
			out = append(out, bullBar(100))
		}
	}
	out = append(out, bullBar(150))
	return out
}

func TestConfirmEntryLong(t *testing.T) {
	entry := confirmationSeries()
	trend := confirmationSeries()

	res := ConfirmEntry(signal.Long, entry, trend, DefaultConfirmationConfig())
	if !res.Confirmed {
		t.Fatalf("expected confirmation, got %+v", res)
	}
	if res.Reason != ReasonEntryConfirmed {
		t.Errorf("reason = %v, want %v", res.Reason, ReasonEntryConfirmed)
	}
	if res.VolumeRate < 1.2 {
		t.Errorf("volume rate = %v, want >= 1.2", res.VolumeRate)
	}
	if res.EntryDelta <= 0 {
		t.Errorf("entry delta = %v, want > 0 for a long", res.EntryDelta)
	}
}

func TestConfirmEntryAwaitingCandles(t *testing.T) {
	res := ConfirmEntry(signal.Long, []market.Candle{bullBar(100)}, confirmationSeries(), DefaultConfirmationConfig())
	if res.Confirmed || res.Reason != ReasonAwaitingCandles {
		t.Errorf("one bar should still be awaiting, got %+v", res)
	}
}

func TestConfirmEntryWeakVolume(t *testing.T) {
	entry := confirmationSeries()
	entry[len(entry)-1].Volume = 90 // under the 1.2x expansion floor

	res := ConfirmEntry(signal.Long, entry, confirmationSeries(), DefaultConfirmationConfig())
	if res.Confirmed || res.Reason != ReasonWeakVolume {
		t.Errorf("flat volume should reject, got %+v", res)
	}
}

func TestConfirmEntryDeltaDisagreement(t *testing.T) {
	// Sell-heavy series cannot confirm a long.
	entry := make([]market.Candle, 0, 24)
	for i := 0; i < 23; i++ {
		entry = append(entry, bearBar(100))
	}
	entry = append(entry, bearBar(150))

	res := ConfirmEntry(signal.Long, entry, confirmationSeries(), DefaultConfirmationConfig())
	if res.Confirmed || res.Reason != ReasonDeltaDisagreement {
		t.Errorf("sell-heavy series should reject a long, got %+v", res)
	}
}

func TestConfirmEntryTrendDisagreementRejects(t *testing.T) {
	entry := confirmationSeries()
	trend := make([]market.Candle, 0, 24)
	for i := 0; i < 24; i++ {
		trend = append(trend, bearBar(100))
	}

	res := ConfirmEntry(signal.Long, entry, trend, DefaultConfirmationConfig())
	if res.Confirmed || res.Reason != ReasonDeltaDisagreement {
		t.Errorf("opposing trend delta should reject, got %+v", res)
	}
}

func TestConfirmEntryShortMirror(t *testing.T) {
	series := make([]market.Candle, 0, 24)
	for i := 0; i < 23; i++ {
		if i%4 == 3 {
			series = append(series, bullBar(80))
		} else {
			series = append(series, bearBar(100))
		}
	}
	series = append(series, bearBar(150))

	res := ConfirmEntry(signal.Short, series, series, DefaultConfirmationConfig())
	if !res.Confirmed {
		t.Errorf("sell-heavy series should confirm a short, got %+v", res)
	}
	if res.EntryDelta >= 0 {
		t.Errorf("entry delta = %v, want < 0 for a short", res.EntryDelta)
	}
}

func TestTradeDelta(t *testing.T) {
	candles := []market.Candle{bullBar(300), bearBar(100)}
	// (300 - 100) / 400 = 0.5
	if got := TradeDelta(candles, 20); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("delta = %v, want 0.5", got)
	}
	if got := TradeDelta(nil, 20); got != 0 {
		t.Errorf("empty delta = %v, want 0", got)
	}
	// Doji-only series has no directional volume.
	doji := []market.Candle{{Open: 100, High: 101, Low: 99, Close: 100, Volume: 500}}
	if got := TradeDelta(doji, 20); got != 0 {
		t.Errorf("doji delta = %v, want 0", got)
	}
}
