package lifecycle

import (
	"math"

	"futures-signal-engine/internal/market"
	"futures-signal-engine/internal/signal"
)

// Confirmation rejection reasons.
const (
	ReasonAwaitingCandles   = "awaiting_confirmation_candles"
	ReasonWeakVolume        = "weak_confirmation_volume"
	ReasonDeltaDisagreement = "delta_disagreement"
	ReasonEntryConfirmed    = "entry_confirmed"
)

// Confirmation defaults.
const (
	DefaultConfirmationCandles = 2
	DefaultVolumeWindow        = 20
	DefaultVolumeRatioMin      = 1.2
	DefaultMinEntryDelta       = 0.04
)

// ConfirmationConfig controls the entry-confirmation delay.
type ConfirmationConfig struct {
	Candles       int     `json:"candles"`         // bars to wait after the trigger
	VolumeWindow  int     `json:"volume_window"`   // trailing average window
	VolumeRatio   float64 `json:"volume_ratio"`    // last-bar volume vs average
	MinEntryDelta float64 `json:"min_entry_delta"` // |delta| floor on the entry timeframe
}

// DefaultConfirmationConfig returns the stock confirmation parameters.
func DefaultConfirmationConfig() ConfirmationConfig {
	return ConfirmationConfig{
		Candles:       DefaultConfirmationCandles,
		VolumeWindow:  DefaultVolumeWindow,
		VolumeRatio:   DefaultVolumeRatioMin,
		MinEntryDelta: DefaultMinEntryDelta,
	}
}

func (c ConfirmationConfig) withDefaults() ConfirmationConfig {
	d := DefaultConfirmationConfig()
	if c.Candles <= 0 {
		c.Candles = d.Candles
	}
	if c.VolumeWindow <= 0 {
		c.VolumeWindow = d.VolumeWindow
	}
	if c.VolumeRatio <= 0 {
		c.VolumeRatio = d.VolumeRatio
	}
	if c.MinEntryDelta <= 0 {
		c.MinEntryDelta = d.MinEntryDelta
	}
	return c
}

// ConfirmationResult is the outcome of the confirmation check. A rejection
// leaves the cooldown slot unconsumed; only a confirmed entry calls
// UpdateEntry on the cooldown store.
type ConfirmationResult struct {
	Confirmed  bool    `json:"confirmed"`
	Reason     string  `json:"reason"`
	VolumeRate float64 `json:"volume_rate"`
	EntryDelta float64 `json:"entry_delta"`
	TrendDelta float64 `json:"trend_delta"`
}

// TradeDelta computes the volume-imbalance delta over the last `window`
// bars: (buy volume - sell volume) / total volume, with up-close bars
// counted as buys and down-close bars as sells. Returns 0 on no volume.
func TradeDelta(candles []market.Candle, window int) float64 {
	if window <= 0 || len(candles) == 0 {
		return 0
	}
	if len(candles) > window {
		candles = candles[len(candles)-window:]
	}
	var buy, sell float64
	for _, c := range candles {
		switch {
		case c.Bullish():
			buy += c.Volume
		case c.Bearish():
			sell += c.Volume
		}
	}
	total := buy + sell
	if total == 0 {
		return 0
	}
	return (buy - sell) / total
}

// ConfirmEntry runs the confirmation checks for a pending signal.
// entryCandles is the entry timeframe (trigger bar plus whatever has closed
// since), trendCandles the higher timeframe used for delta agreement. All
// checks must pass: enough closed confirmation bars, expanded volume on the
// latest bar, and delta pointing with the signal on both timeframes with a
// minimum magnitude on the entry timeframe.
func ConfirmEntry(dir signal.Direction, entryCandles, trendCandles []market.Candle, cfg ConfirmationConfig) ConfirmationResult {
	cfg = cfg.withDefaults()

	if len(entryCandles) < cfg.Candles+1 {
		return ConfirmationResult{Reason: ReasonAwaitingCandles}
	}

	res := ConfirmationResult{}
	if len(entryCandles) > cfg.VolumeWindow+1 {
		trailing := entryCandles[len(entryCandles)-1-cfg.VolumeWindow : len(entryCandles)-1]
		sum := 0.0
		for _, c := range trailing {
			sum += c.Volume
		}
		avg := sum / float64(len(trailing))
		if avg > 0 {
			res.VolumeRate = entryCandles[len(entryCandles)-1].Volume / avg
		}
	}
	// Too little history for the trailing average leaves VolumeRate at 0
	// and counts as unexpanded volume.
	if res.VolumeRate < cfg.VolumeRatio {
		res.Reason = ReasonWeakVolume
		return res
	}

	res.EntryDelta = TradeDelta(entryCandles, cfg.VolumeWindow)
	res.TrendDelta = TradeDelta(trendCandles, cfg.VolumeWindow)

	long := dir == signal.Long
	agree := func(delta float64) bool {
		if long {
			return delta > 0
		}
		return delta < 0
	}
	if !agree(res.EntryDelta) || !agree(res.TrendDelta) || math.Abs(res.EntryDelta) < cfg.MinEntryDelta {
		res.Reason = ReasonDeltaDisagreement
		return res
	}

	res.Confirmed = true
	res.Reason = ReasonEntryConfirmed
	return res
}
