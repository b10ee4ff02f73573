package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrInvalidInput marks candle data that cannot come from a healthy feed:
// non-finite or non-positive prices, negative volume. Policy rejections and
// warm-up conditions never use this error.
var ErrInvalidInput = errors.New("invalid market input")

// ErrInsufficientData is returned by callers that require a value and cannot
// fall back to a neutral result.
var ErrInsufficientData = errors.New("insufficient candle data")

// Candle is a single OHLCV bar. The upstream feed delivers prices and volume
// as JSON strings; other sources send plain numbers. UnmarshalJSON accepts
// both, and the ",string" tags keep the string form on the marshal side.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open,string"`
	High      float64 `json:"high,string"`
	Low       float64 `json:"low,string"`
	Close     float64 `json:"close,string"`
	Volume    float64 `json:"volume,string"`
	CloseTime int64   `json:"close_time"`
}

// flexNumber decodes from a JSON number or a quoted numeric string.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %s: %w", string(data), err)
	}
	*f = flexNumber(v)
	return nil
}

// UnmarshalJSON decodes a candle whose price and volume fields are either
// JSON numbers or quoted numeric strings.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var aux struct {
		OpenTime  int64      `json:"open_time"`
		Open      flexNumber `json:"open"`
		High      flexNumber `json:"high"`
		Low       flexNumber `json:"low"`
		Close     flexNumber `json:"close"`
		Volume    flexNumber `json:"volume"`
		CloseTime int64      `json:"close_time"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Candle{
		OpenTime:  aux.OpenTime,
		Open:      float64(aux.Open),
		High:      float64(aux.High),
		Low:       float64(aux.Low),
		Close:     float64(aux.Close),
		Volume:    float64(aux.Volume),
		CloseTime: aux.CloseTime,
	}
	return nil
}

// OpenedAt returns the bar open time as a time.Time.
func (c Candle) OpenedAt() time.Time {
	return time.UnixMilli(c.OpenTime)
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Body returns the absolute body size.
func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

// TypicalPrice returns (high + low + close) / 3, the price used for VWAP.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// Valid reports whether the candle carries finite, positive prices and a
// non-negative volume.
func (c Candle) Valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if !isFinite(v) || v <= 0 {
			return false
		}
	}
	return isFinite(c.Volume) && c.Volume >= 0
}

// Validate checks every candle in the series and returns ErrInvalidInput
// (with the offending index) on the first malformed bar. An empty series is
// valid; length requirements belong to the individual indicators.
func Validate(candles []Candle) error {
	for i, c := range candles {
		if !c.Valid() {
			return fmt.Errorf("candle %d (open=%v high=%v low=%v close=%v volume=%v): %w",
				i, c.Open, c.High, c.Low, c.Close, c.Volume, ErrInvalidInput)
		}
	}
	return nil
}

// LastClose returns the most recent close. Unlike the detectors, callers of
// this accessor need a real price and cannot degrade to a neutral result.
func LastClose(candles []Candle) (float64, error) {
	if len(candles) == 0 {
		return 0, ErrInsufficientData
	}
	return candles[len(candles)-1].Close, nil
}

// Closes extracts the close series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// CleanCloses extracts closes, skipping candles with non-finite or
// non-positive close prices. Indicator windows are computed over the cleaned
// series so a single corrupt bar cannot poison a whole average.
func CleanCloses(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		if isFinite(c.Close) && c.Close > 0 {
			out = append(out, c.Close)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
