package indicator

import (
	"futures-signal-engine/internal/market"
)

// VWAPDirection compares the latest close to VWAP.
type VWAPDirection int

const (
	VWAPBelow VWAPDirection = -1
	VWAPFlat  VWAPDirection = 0
	VWAPAbove VWAPDirection = 1
)

// VWAP computes the volume-weighted average price over the given window
// using the typical price (high+low+close)/3. Returns 0 when total volume
// is 0 or the series is empty.
func VWAP(candles []market.Candle) float64 {
	var pv, vol float64
	for _, c := range candles {
		if !c.Valid() || c.Volume == 0 {
			continue
		}
		pv += c.TypicalPrice() * c.Volume
		vol += c.Volume
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

// VWAPDirectionOf reports whether the latest close sits above or below the
// window VWAP. Returns VWAPFlat on insufficient data.
func VWAPDirectionOf(candles []market.Candle) VWAPDirection {
	if len(candles) == 0 {
		return VWAPFlat
	}
	vwap := VWAP(candles)
	if vwap == 0 {
		return VWAPFlat
	}
	last := candles[len(candles)-1].Close
	switch {
	case last > vwap:
		return VWAPAbove
	case last < vwap:
		return VWAPBelow
	default:
		return VWAPFlat
	}
}
