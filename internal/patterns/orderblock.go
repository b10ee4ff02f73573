package patterns

import (
	"futures-signal-engine/internal/market"
)

// Order-block detection defaults.
const (
	DefaultOBLookback  = 24
	DefaultOBWindow    = 3
	DefaultOBTightness = 0.05
	DefaultOBMaxAge    = 20
	DefaultOBReentry   = 3
)

// OrderBlockConfig controls the consolidation scan.
type OrderBlockConfig struct {
	Lookback    int     `json:"lookback"`     // candles scanned for blocks
	Window      int     `json:"window"`       // consecutive candles per block
	Tightness   float64 `json:"tightness"`    // max range as fraction of avg close
	MaxAge      int     `json:"max_age"`      // bars a block stays tradable
	ReentryBars int     `json:"reentry_bars"` // bars allowed between sweep and re-close
}

// DefaultOrderBlockConfig returns the standard scan parameters.
func DefaultOrderBlockConfig() OrderBlockConfig {
	return OrderBlockConfig{
		Lookback:    DefaultOBLookback,
		Window:      DefaultOBWindow,
		Tightness:   DefaultOBTightness,
		MaxAge:      DefaultOBMaxAge,
		ReentryBars: DefaultOBReentry,
	}
}

func (c OrderBlockConfig) withDefaults() OrderBlockConfig {
	d := DefaultOrderBlockConfig()
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Tightness <= 0 {
		c.Tightness = d.Tightness
	}
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.ReentryBars <= 0 {
		c.ReentryBars = d.ReentryBars
	}
	return c
}

// OrderBlockResult describes the most recent qualifying consolidation zone.
// Valid means the block is young enough and price has confirmed reentry:
// either a sweep beyond the block that re-closed inside within ReentryBars,
// or, absent any sweep, the latest close sitting inside the block.
type OrderBlockResult struct {
	Detected     bool
	Valid        bool
	Top          float64
	Bottom       float64
	Center       float64
	CreatedIndex int // index of the block's first candle in the input series
	Age          int // bars since the block's last candle
	Swept        bool
	Reentered    bool
}

// AnalyzeOrderBlocks slides a fixed-size window over the lookback span and
// keeps the most recent window whose high-low range, as a fraction of the
// window's average close, is under the tightness threshold.
func AnalyzeOrderBlocks(candles []market.Candle, cfg OrderBlockConfig) OrderBlockResult {
	cfg = cfg.withDefaults()
	if len(candles) < cfg.Window+1 {
		return OrderBlockResult{}
	}

	start := 0
	if len(candles) > cfg.Lookback {
		start = len(candles) - cfg.Lookback
	}

	res := OrderBlockResult{CreatedIndex: -1}
	for i := start; i+cfg.Window <= len(candles); i++ {
		window := candles[i : i+cfg.Window]
		high, low, sumClose := window[0].High, window[0].Low, 0.0
		for _, c := range window {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
			sumClose += c.Close
		}
		avgClose := sumClose / float64(cfg.Window)
		if avgClose <= 0 || (high-low)/avgClose >= cfg.Tightness {
			continue
		}
		res.Detected = true
		res.Top = high
		res.Bottom = low
		res.Center = (high + low) / 2
		res.CreatedIndex = i
	}
	if !res.Detected {
		return OrderBlockResult{}
	}

	lastIdx := len(candles) - 1
	res.Age = lastIdx - (res.CreatedIndex + cfg.Window - 1)
	if res.Age > cfg.MaxAge {
		return res
	}

	res.Swept, res.Reentered = scanReentry(candles, res, cfg)
	lastClose := candles[lastIdx].Close
	closeInside := lastClose >= res.Bottom && lastClose <= res.Top

	if res.Swept {
		res.Valid = res.Reentered
	} else {
		res.Valid = closeInside
	}
	return res
}

// scanReentry looks at the bars after the block for a sweep beyond either
// edge followed by a close back inside within the reentry window.
func scanReentry(candles []market.Candle, block OrderBlockResult, cfg OrderBlockConfig) (swept, reentered bool) {
	first := block.CreatedIndex + cfg.Window
	for i := first; i < len(candles); i++ {
		c := candles[i]
		pierced := c.Low < block.Bottom || c.High > block.Top
		if !pierced {
			continue
		}
		swept = true
		limit := i + cfg.ReentryBars
		if limit >= len(candles) {
			limit = len(candles) - 1
		}
		for j := i + 1; j <= limit; j++ {
			cl := candles[j].Close
			if cl >= block.Bottom && cl <= block.Top {
				reentered = true
				return swept, reentered
			}
		}
	}
	return swept, reentered
}
