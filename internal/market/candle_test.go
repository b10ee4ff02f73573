package market

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestCandleDecodeStringNumbers(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{
			"quoted strings",
			`{"open_time":1700000000000,"open":"42000.5","high":"42100","low":"41900","close":"42050","volume":"123.45","close_time":1700000899999}`,
		},
		{
			"plain numbers",
			`{"open_time":1700000000000,"open":42000.5,"high":42100,"low":41900,"close":42050,"volume":123.45,"close_time":1700000899999}`,
		},
		{
			"mixed forms",
			`{"open_time":1700000000000,"open":"42000.5","high":42100,"low":41900,"close":"42050","volume":123.45,"close_time":1700000899999}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Candle
			if err := json.Unmarshal([]byte(tc.raw), &c); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if c.Open != 42000.5 || c.High != 42100 || c.Close != 42050 || c.Volume != 123.45 {
				t.Errorf("decoded values wrong: %+v", c)
			}
			if c.OpenTime != 1700000000000 || c.CloseTime != 1700000899999 {
				t.Errorf("decoded timestamps wrong: %+v", c)
			}
		})
	}
}

func TestCandleDecodeRejectsNonNumeric(t *testing.T) {
	raw := `{"open":"not-a-price","high":"42100","low":"41900","close":"42050","volume":"1"}`
	var c Candle
	if err := json.Unmarshal([]byte(raw), &c); err == nil {
		t.Error("expected an error for a non-numeric price string")
	}
}

func TestLastClose(t *testing.T) {
	candles := []Candle{{Close: 100}, {Close: 102}}
	got, err := LastClose(candles)
	if err != nil {
		t.Fatalf("LastClose: %v", err)
	}
	if got != 102 {
		t.Errorf("LastClose = %v, want 102", got)
	}

	if _, err := LastClose(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestValidateRejectsBadPrices(t *testing.T) {
	good := Candle{OpenTime: 1, Open: 100, High: 110, Low: 95, Close: 105, Volume: 10}
	if err := Validate([]Candle{good}); err != nil {
		t.Errorf("valid candle rejected: %v", err)
	}

	bad := []Candle{
		{Open: 100, High: 110, Low: 95, Close: 0, Volume: 10},
		{Open: 100, High: math.NaN(), Low: 95, Close: 105, Volume: 10},
		{Open: -5, High: 110, Low: 95, Close: 105, Volume: 10},
		{Open: 100, High: 110, Low: 95, Close: 105, Volume: -1},
	}
	for i, c := range bad {
		err := Validate([]Candle{c})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("candle %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestCleanClosesSkipsCorruptBars(t *testing.T) {
	candles := []Candle{
		{Close: 100},
		{Close: math.NaN()},
		{Close: 0},
		{Close: 102},
	}
	closes := CleanCloses(candles)
	if len(closes) != 2 || closes[0] != 100 || closes[1] != 102 {
		t.Errorf("unexpected cleaned closes: %v", closes)
	}
}

func TestTypicalPrice(t *testing.T) {
	c := Candle{High: 30, Low: 20, Close: 25}
	if tp := c.TypicalPrice(); tp != 25 {
		t.Errorf("typical price = %v, want 25", tp)
	}
}
