package patterns

import (
	"futures-signal-engine/internal/market"
)

// Sweep detection defaults. The ATR multiple separating noise from a real
// stop hunt is looser on the higher timeframe.
const (
	DefaultSweepThresholdLTF = 0.2
	DefaultSweepThresholdHTF = 0.4
	DefaultSweepReturnBars   = 3
)

// SweepConfig controls liquidity-sweep detection.
type SweepConfig struct {
	ThresholdLTF float64 `json:"threshold_ltf"` // ATR multiple, lower timeframe
	ThresholdHTF float64 `json:"threshold_htf"` // ATR multiple, higher timeframe
	ReturnBars   int     `json:"return_bars"`   // max bars for the re-close
}

// DefaultSweepConfig returns the standard thresholds.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		ThresholdLTF: DefaultSweepThresholdLTF,
		ThresholdHTF: DefaultSweepThresholdHTF,
		ReturnBars:   DefaultSweepReturnBars,
	}
}

func (c SweepConfig) withDefaults() SweepConfig {
	d := DefaultSweepConfig()
	if c.ThresholdLTF <= 0 {
		c.ThresholdLTF = d.ThresholdLTF
	}
	if c.ThresholdHTF <= 0 {
		c.ThresholdHTF = d.ThresholdHTF
	}
	if c.ReturnBars <= 0 {
		c.ReturnBars = d.ReturnBars
	}
	return c
}

// SweepResult reports a liquidity sweep: a pierce beyond a reference extreme
// that closed back across it within ReturnBars. Speed is the pierce distance
// divided by the bars the return took; Confidence is speed relative to the
// ATR-scaled threshold, capped at 1.
type SweepResult struct {
	Detected   bool
	Direction  Direction // Bullish: low swept then reclaimed; Bearish: high swept
	Speed      float64
	Confidence float64
	Extreme    float64
	BarsToBack int
}

// DetectSweepLTF scans for a sweep using the lower-timeframe threshold.
func DetectSweepLTF(candles []market.Candle, atr float64, cfg SweepConfig) SweepResult {
	cfg = cfg.withDefaults()
	return detectSweep(candles, atr, cfg.ThresholdLTF, cfg.ReturnBars)
}

// DetectSweepHTF scans for a sweep using the higher-timeframe threshold.
func DetectSweepHTF(candles []market.Candle, atr float64, cfg SweepConfig) SweepResult {
	cfg = cfg.withDefaults()
	return detectSweep(candles, atr, cfg.ThresholdHTF, cfg.ReturnBars)
}

// detectSweep uses the extreme of the series up to the scan window as the
// liquidity reference, then looks for a pierce-and-return inside the window.
func detectSweep(candles []market.Candle, atr, threshold float64, returnBars int) SweepResult {
	window := returnBars + 2
	if atr <= 0 || len(candles) < window+2 {
		return SweepResult{Direction: None}
	}

	ref := candles[:len(candles)-window]
	refLow, refHigh := ref[0].Low, ref[0].High
	for _, c := range ref {
		if c.Low < refLow {
			refLow = c.Low
		}
		if c.High > refHigh {
			refHigh = c.High
		}
	}

	recent := candles[len(candles)-window:]
	if res := sweepOfLow(recent, refLow, atr, threshold, returnBars); res.Detected {
		return res
	}
	return sweepOfHigh(recent, refHigh, atr, threshold, returnBars)
}

func sweepOfLow(recent []market.Candle, refLow, atr, threshold float64, returnBars int) SweepResult {
	for i, c := range recent {
		if c.Low >= refLow {
			continue
		}
		exceed := refLow - c.Low
		limit := i + returnBars
		if limit >= len(recent) {
			limit = len(recent) - 1
		}
		for j := i + 1; j <= limit; j++ {
			if recent[j].Close > refLow {
				if res := scoreSweep(Bullish, refLow, exceed, j-i, atr, threshold); res.Detected {
					return res
				}
				break
			}
		}
	}
	return SweepResult{Direction: None}
}

func sweepOfHigh(recent []market.Candle, refHigh, atr, threshold float64, returnBars int) SweepResult {
	for i, c := range recent {
		if c.High <= refHigh {
			continue
		}
		exceed := c.High - refHigh
		limit := i + returnBars
		if limit >= len(recent) {
			limit = len(recent) - 1
		}
		for j := i + 1; j <= limit; j++ {
			if recent[j].Close < refHigh {
				if res := scoreSweep(Bearish, refHigh, exceed, j-i, atr, threshold); res.Detected {
					return res
				}
				break
			}
		}
	}
	return SweepResult{Direction: None}
}

func scoreSweep(dir Direction, extreme, exceed float64, barsBack int, atr, threshold float64) SweepResult {
	speed := exceed / float64(barsBack)
	floor := threshold * atr
	if speed < floor {
		return SweepResult{Direction: None}
	}
	conf := speed / floor
	if conf > 1 {
		conf = 1
	}
	return SweepResult{
		Detected:   true,
		Direction:  dir,
		Speed:      speed,
		Confidence: conf,
		Extreme:    extreme,
		BarsToBack: barsBack,
	}
}
