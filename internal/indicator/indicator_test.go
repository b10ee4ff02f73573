package indicator

import (
	"math"
	"testing"

	"futures-signal-engine/internal/market"
)

func flatCandles(n int, price, vol float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = market.Candle{
			OpenTime: int64(i) * 900000,
			Open:     price, High: price, Low: price, Close: price,
			Volume: vol,
		}
	}
	return out
}

func risingCandles(n int, start, step float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		p := start + float64(i)*step
		out[i] = market.Candle{
			OpenTime: int64(i) * 900000,
			Open:     p, High: p + step/2, Low: p - step/2, Close: p + step/4,
			Volume: 100,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	candles := []market.Candle{
		{Open: 10, High: 10, Low: 10, Close: 10, Volume: 1},
		{Open: 20, High: 20, Low: 20, Close: 20, Volume: 1},
		{Open: 30, High: 30, Low: 30, Close: 30, Volume: 1},
	}
	if got := SMA(candles, 3); got != 20 {
		t.Errorf("SMA(3) = %v, want 20", got)
	}
	if got := SMA(candles, 2); got != 25 {
		t.Errorf("SMA(2) = %v, want 25", got)
	}
	if got := SMA(candles, 5); got != 0 {
		t.Errorf("SMA with insufficient data = %v, want 0", got)
	}
}

func TestSMASkipsCorruptCloses(t *testing.T) {
	candles := []market.Candle{
		{Open: 10, High: 10, Low: 10, Close: 10, Volume: 1},
		{Open: 10, High: 10, Low: 10, Close: math.NaN(), Volume: 1},
		{Open: 30, High: 30, Low: 30, Close: 30, Volume: 1},
	}
	got := SMA(candles, 2)
	if math.IsNaN(got) {
		t.Fatal("SMA produced NaN from a corrupt bar")
	}
	if got != 20 {
		t.Errorf("SMA over cleaned closes = %v, want 20", got)
	}
}

func TestSMASeriesLength(t *testing.T) {
	candles := risingCandles(30, 100, 1)
	series := SMASeries(candles, 20)
	if len(series) != 11 {
		t.Errorf("series length = %d, want 11", len(series))
	}
}

func TestEMAConvergesOnFlatSeries(t *testing.T) {
	got := EMA(flatCandles(50, 42, 10), 20)
	if math.Abs(got-42) > 1e-9 {
		t.Errorf("EMA on flat series = %v, want 42", got)
	}
}

func TestATRPositiveOnRisingSeries(t *testing.T) {
	candles := risingCandles(30, 100, 2)
	if atr := ATR(candles, 14); atr <= 0 {
		t.Errorf("ATR = %v, want > 0", atr)
	}
	if atr := ATRWilder(candles, 14); atr <= 0 {
		t.Errorf("Wilder ATR = %v, want > 0", atr)
	}
}

func TestATRInsufficientData(t *testing.T) {
	candles := risingCandles(5, 100, 1)
	if atr := ATR(candles, 14); atr != 0 {
		t.Errorf("ATR with 5 candles = %v, want 0", atr)
	}
}

func TestWilderSeed(t *testing.T) {
	// Equal true ranges keep the Wilder value at the seed.
	candles := make([]market.Candle, 20)
	for i := range candles {
		base := 100.0
		candles[i] = market.Candle{Open: base, High: base + 2, Low: base - 2, Close: base, Volume: 1}
	}
	if atr := ATRWilder(candles, 14); math.Abs(atr-4) > 1e-9 {
		t.Errorf("Wilder ATR on constant TR = %v, want 4", atr)
	}
}

func TestADXBoundsAndClassification(t *testing.T) {
	candles := risingCandles(80, 100, 1.5)
	res := ADX(candles, 14)
	if res.ADX < 0 || res.ADX > 100 {
		t.Errorf("ADX out of range: %v", res.ADX)
	}
	// A persistent uptrend must show +DI dominance.
	if res.PlusDI <= res.MinusDI {
		t.Errorf("+DI (%v) should exceed -DI (%v) in an uptrend", res.PlusDI, res.MinusDI)
	}

	if ClassifyMarketState(40) != StateStrongTrend {
		t.Error("ADX 40 should classify as strong trend")
	}
	if ClassifyMarketState(27) != StateTrending {
		t.Error("ADX 27 should classify as trending")
	}
	if ClassifyMarketState(21) != StateRanging {
		t.Error("ADX 21 should classify as ranging")
	}
	if ClassifyMarketState(10) != StateNoTrend {
		t.Error("ADX 10 should classify as no trend")
	}
}

func TestShouldFilter(t *testing.T) {
	if !ShouldFilter(15, 20) {
		t.Error("ADX 15 under threshold 20 should be filtered")
	}
	if ShouldFilter(25, 20) {
		t.Error("ADX 25 over threshold 20 should not be filtered")
	}
	if !ShouldFilter(15, 0) {
		t.Error("threshold 0 should fall back to the default cutoff")
	}
}

func TestADXInsufficientData(t *testing.T) {
	res := ADX(risingCandles(10, 100, 1), 14)
	if res.ADX != 0 || res.PlusDI != 0 || res.MinusDI != 0 {
		t.Errorf("expected zero result, got %+v", res)
	}
}

func TestMACDShortSeriesIsZeroed(t *testing.T) {
	res := MACD(risingCandles(3, 100, 1))
	if res.MACD != 0 || res.Signal != 0 || res.Histogram != 0 || res.Trending {
		t.Errorf("expected zeroed result on 3 candles, got %+v", res)
	}
}

func TestMACDUptrendHistogram(t *testing.T) {
	// Accelerating uptrend keeps the fast EMA above the slow EMA.
	candles := make([]market.Candle, 60)
	p := 100.0
	for i := range candles {
		p *= 1.01
		candles[i] = market.Candle{Open: p, High: p * 1.005, Low: p * 0.995, Close: p, Volume: 100}
	}
	res := MACD(candles)
	if res.MACD <= 0 {
		t.Errorf("MACD line = %v, want > 0 in an uptrend", res.MACD)
	}
}

func TestHistogramContraction(t *testing.T) {
	if got := HistogramContraction(0.5, 0.1); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("contraction 0.5->0.1 = %v, want 0.8", got)
	}
	if got := HistogramContraction(0.5, -0.1); got != 1 {
		t.Errorf("sign flip contraction = %v, want 1", got)
	}
	if got := HistogramContraction(0, 0.3); got != 0 {
		t.Errorf("zero prev contraction = %v, want 0", got)
	}
	if got := HistogramContraction(0.5, 0.7); got != 0 {
		t.Errorf("expansion should report 0 contraction, got %v", got)
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	res := Bollinger(flatCandles(30, 100, 10), 20, 2)
	if res.Middle != 100 || res.Upper != 100 || res.Lower != 100 {
		t.Errorf("flat series bands wrong: %+v", res)
	}
	if res.Bandwidth != 0 {
		t.Errorf("flat series bandwidth = %v, want 0", res.Bandwidth)
	}
}

func TestBollingerBandwidth(t *testing.T) {
	res := Bollinger(risingCandles(40, 100, 1), 20, 2)
	if res.Upper <= res.Middle || res.Middle <= res.Lower {
		t.Errorf("band ordering wrong: %+v", res)
	}
	want := (res.Upper - res.Lower) / res.Middle
	if math.Abs(res.Bandwidth-want) > 1e-12 {
		t.Errorf("bandwidth = %v, want %v", res.Bandwidth, want)
	}
}

func TestVWAP(t *testing.T) {
	candles := []market.Candle{
		{Open: 10, High: 12, Low: 8, Close: 10, Volume: 100}, // typical 10
		{Open: 20, High: 24, Low: 16, Close: 20, Volume: 300}, // typical 20
	}
	if got := VWAP(candles); math.Abs(got-17.5) > 1e-9 {
		t.Errorf("VWAP = %v, want 17.5", got)
	}
	if dir := VWAPDirectionOf(candles); dir != VWAPAbove {
		t.Errorf("direction = %v, want above", dir)
	}
	if dir := VWAPDirectionOf(nil); dir != VWAPFlat {
		t.Errorf("empty series direction = %v, want flat", dir)
	}
}

func TestDeterminism(t *testing.T) {
	candles := risingCandles(60, 100, 1.3)
	a := ADX(candles, 14)
	b := ADX(candles, 14)
	if a != b {
		t.Errorf("ADX not deterministic: %+v vs %+v", a, b)
	}
	m1 := MACD(candles)
	m2 := MACD(candles)
	if m1 != m2 {
		t.Errorf("MACD not deterministic: %+v vs %+v", m1, m2)
	}
}

func BenchmarkADX(b *testing.B) {
	candles := risingCandles(200, 100, 1.2)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ADX(candles, 14)
	}
}
