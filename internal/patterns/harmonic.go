package patterns

import (
	"math"

	"futures-signal-engine/internal/market"
)

// HarmonicType identifies which ratio template matched.
type HarmonicType string

const (
	HarmonicNone   HarmonicType = "NONE"
	HarmonicCypher HarmonicType = "CYPHER"
	HarmonicBat    HarmonicType = "BAT"
	HarmonicShark  HarmonicType = "SHARK"
)

// HarmonicResult reports the best-matching harmonic pattern.
type HarmonicResult struct {
	Detected  bool
	Type      HarmonicType
	Direction Direction
	Score     float64 // 0..1, capped per pattern type
}

// ratioBand is an acceptance window for one leg ratio.
type ratioBand struct {
	lo, hi float64
}

func (b ratioBand) contains(v float64) bool { return v >= b.lo && v <= b.hi }

// closeness scores how centered v sits inside the band, 1 at the midpoint
// falling linearly to 0.5 at the edges.
func (b ratioBand) closeness(v float64) float64 {
	mid := (b.lo + b.hi) / 2
	half := (b.hi - b.lo) / 2
	if half == 0 {
		return 1
	}
	return 1 - 0.5*math.Abs(v-mid)/half
}

// harmonicTemplate holds the Fibonacci bands for one pattern. ab is the AB
// retracement of XA, bc the BC leg relative to AB, and d the final leg
// measured against the reference leg named by dRef.
type harmonicTemplate struct {
	kind     HarmonicType
	ab       ratioBand
	bc       ratioBand
	d        ratioBand
	dRefIsXC bool // D measured against XC instead of XA
	cap      float64
}

var harmonicTemplates = []harmonicTemplate{
	{kind: HarmonicCypher, ab: ratioBand{0.382, 0.618}, bc: ratioBand{1.272, 1.414}, d: ratioBand{0.742, 0.830}, dRefIsXC: true, cap: 0.9},
	{kind: HarmonicBat, ab: ratioBand{0.382, 0.50}, bc: ratioBand{0.382, 0.886}, d: ratioBand{0.840, 0.930}, cap: 0.8},
	{kind: HarmonicShark, ab: ratioBand{0.446, 0.618}, bc: ratioBand{1.13, 1.618}, d: ratioBand{0.886, 1.13}, dRefIsXC: true, cap: 0.85},
}

// swing points extracted from fixed sub-windows of the series.
type swings struct {
	x, a, b, c, d float64
	bullish       bool
}

// DetectHarmonic extracts X, A, B, C, D pivots from five equal sub-windows
// of the recent series and scores them against the Cypher, Bat, and Shark
// ratio templates, returning the best match. Requires at least 20 candles.
func DetectHarmonic(candles []market.Candle) HarmonicResult {
	const minBars = 20
	if len(candles) < minBars {
		return HarmonicResult{Type: HarmonicNone, Direction: None}
	}

	sw, ok := extractSwings(candles)
	if !ok {
		return HarmonicResult{Type: HarmonicNone, Direction: None}
	}

	xa := math.Abs(sw.a - sw.x)
	ab := math.Abs(sw.b - sw.a)
	bc := math.Abs(sw.c - sw.b)
	xc := math.Abs(sw.c - sw.x)
	if xa == 0 || ab == 0 {
		return HarmonicResult{Type: HarmonicNone, Direction: None}
	}

	best := HarmonicResult{Type: HarmonicNone, Direction: None}
	for _, tpl := range harmonicTemplates {
		abRatio := ab / xa
		bcRatio := bc / ab
		// The completing leg is measured as a retracement: from C against
		// XC for Cypher/Shark, from A against XA for Bat.
		var dRatio float64
		if tpl.dRefIsXC {
			if xc == 0 {
				continue
			}
			dRatio = math.Abs(sw.d-sw.c) / xc
		} else {
			dRatio = math.Abs(sw.a-sw.d) / xa
		}

		if !tpl.ab.contains(abRatio) || !tpl.bc.contains(bcRatio) || !tpl.d.contains(dRatio) {
			continue
		}
		score := tpl.cap * (tpl.ab.closeness(abRatio) + tpl.bc.closeness(bcRatio) + tpl.d.closeness(dRatio)) / 3
		if score > best.Score {
			dir := Bearish
			if sw.bullish {
				dir = Bullish
			}
			best = HarmonicResult{Detected: true, Type: tpl.kind, Direction: dir, Score: score}
		}
	}
	return best
}

// extractSwings splits the tail of the series into five equal windows and
// takes alternating extremes. A bullish structure starts from a high X and
// completes at a low D where longs engage; bearish is the mirror. The shape
// is chosen by comparing the first window's extremes to the last close.
func extractSwings(candles []market.Candle) (swings, bool) {
	n := len(candles)
	win := n / 5
	if win < 2 {
		return swings{}, false
	}
	tail := candles[n-5*win:]

	highs := make([]float64, 5)
	lows := make([]float64, 5)
	for w := 0; w < 5; w++ {
		seg := tail[w*win : (w+1)*win]
		hi, lo := seg[0].High, seg[0].Low
		for _, c := range seg {
			if c.High > hi {
				hi = c.High
			}
			if c.Low < lo {
				lo = c.Low
			}
		}
		highs[w] = hi
		lows[w] = lo
	}

	globalHi, globalLo := highs[0], lows[0]
	for w := 1; w < 5; w++ {
		if highs[w] > globalHi {
			globalHi = highs[w]
		}
		if lows[w] < globalLo {
			globalLo = lows[w]
		}
	}

	last := candles[n-1].Close
	if last < (globalHi+globalLo)/2 {
		// Price finished low: the completing leg D is the final low where a
		// long engages (X low, A high, B low, C high, D low).
		return swings{x: lows[0], a: highs[1], b: lows[2], c: highs[3], d: lows[4], bullish: true}, true
	}
	return swings{x: highs[0], a: lows[1], b: highs[2], c: lows[3], d: highs[4], bullish: false}, true
}
