// Package engine wires the evaluation pipeline: indicators and detectors
// feed the tier scorers, the decision engine gates the result, and accepted
// signals get sizing, a stop plan, and a cooldown slot. The engine holds no
// state of its own beyond the injected cooldown store; evaluations for
// different symbols may run concurrently.
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"futures-signal-engine/internal/confluence"
	"futures-signal-engine/internal/indicator"
	"futures-signal-engine/internal/lifecycle"
	"futures-signal-engine/internal/market"
	"futures-signal-engine/internal/patterns"
	"futures-signal-engine/internal/risk"
	"futures-signal-engine/internal/signal"
)

// Factor normalization scales: a trade delta of 0.1 or an OI change of 5%
// saturates its factor at 1.
const (
	deltaFactorScale = 0.1
	oiFactorScale    = 0.05
	breakoutLookback = 20
	fundingNeutral   = 0.0001
)

// MarketData is one symbol's input snapshot. Candle series arrive ordered,
// one per timeframe tier; open interest, funding, and the higher-timeframe
// delta come from collaborators that watch those feeds.
type MarketData struct {
	Symbol string

	TrendCandles  []market.Candle // highest timeframe (4h)
	FactorCandles []market.Candle // middle timeframe (1h)
	EntryCandles  []market.Candle // lowest timeframe (15m)

	OIChangePct float64 // fractional open-interest change
	FundingRate float64 // current funding rate
}

// Options bundles the pipeline configuration.
type Options struct {
	Profile      signal.Profile
	Weights      confluence.WeightTable
	Classifier   *confluence.Classifier
	Adjuster     *confluence.Adjuster // optional online weight learner
	OrderBlock   patterns.OrderBlockConfig
	Sweep        patterns.SweepConfig
	Sizing       risk.SizingConfig
	TPFactor     float64
	ADXThreshold float64
}

// Engine evaluates symbols against the configured strategy profile.
type Engine struct {
	opts     Options
	cooldown *lifecycle.CooldownStore
}

// New creates an engine. The cooldown store is required; nil options fall
// back to defaults.
func New(opts Options, cooldown *lifecycle.CooldownStore) (*Engine, error) {
	if cooldown == nil {
		return nil, fmt.Errorf("cooldown store is required")
	}
	if opts.Weights == nil {
		opts.Weights = confluence.DefaultWeightTable()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("weight table: %w", err)
	}
	if opts.Classifier == nil {
		opts.Classifier = confluence.DefaultClassifier()
	}
	if opts.Profile == (signal.Profile{}) {
		opts.Profile = signal.DefaultProfile()
	}
	return &Engine{opts: opts, cooldown: cooldown}, nil
}

// Evaluation is the full pipeline output for one symbol.
type Evaluation struct {
	ID       string              `json:"id"`
	Symbol   string              `json:"symbol"`
	Category confluence.Category `json:"category"`
	Trend    signal.Trend        `json:"trend"`
	Decision signal.Decision     `json:"decision"`

	OrderBlock patterns.OrderBlockResult `json:"order_block"`
	Sweep      patterns.SweepResult      `json:"sweep"`
	Engulfing  patterns.EngulfingResult  `json:"engulfing"`
	Harmonic   patterns.HarmonicResult   `json:"harmonic"`

	ATR float64 `json:"atr"`

	// Populated only for directional decisions.
	Sizing *risk.PositionSize  `json:"sizing,omitempty"`
	Plan   *lifecycle.StopPlan `json:"plan,omitempty"`
}

// Evaluate runs the pipeline for one symbol. Candle series are validated up
// front; malformed input is an error while short input degrades to neutral
// detector results and a NONE decision.
func (e *Engine) Evaluate(data MarketData) (Evaluation, error) {
	for _, series := range [][]market.Candle{data.TrendCandles, data.FactorCandles, data.EntryCandles} {
		if err := market.Validate(series); err != nil {
			return Evaluation{}, fmt.Errorf("%s: %w", data.Symbol, err)
		}
	}

	category := e.opts.Classifier.Classify(data.Symbol)
	trend := signal.ClassifyTrend(data.TrendCandles, e.opts.ADXThreshold)
	atr := indicator.ATRWilder(data.EntryCandles, 14)

	orderBlock := patterns.AnalyzeOrderBlocks(data.FactorCandles, e.opts.OrderBlock)
	sweep := patterns.DetectSweepLTF(data.EntryCandles, atr, e.opts.Sweep)
	engulf := patterns.DetectEngulfing(data.EntryCandles)
	harmonic := patterns.DetectHarmonic(data.EntryCandles)

	long := trend != signal.TrendDown
	regime := confluence.RegimeTrend
	if trend == signal.TrendRange {
		regime = confluence.RegimeRange
	}

	trendScore, err := e.scoreTrend(data, category, long)
	if err != nil {
		return Evaluation{}, err
	}
	factorScore, err := e.scoreFactor(data, category, regime, long)
	if err != nil {
		return Evaluation{}, err
	}
	entryScore, err := e.scoreEntry(data, category, regime, long)
	if err != nil {
		return Evaluation{}, err
	}

	decision := signal.Evaluate(signal.Inputs{
		Symbol:      data.Symbol,
		Trend:       trend,
		OrderBlock:  orderBlock,
		Sweep:       sweep,
		Engulfing:   engulf,
		Harmonic:    harmonic,
		TrendScore:  trendScore,
		FactorScore: factorScore,
		EntryScore:  entryScore,
	}, e.opts.Profile)

	eval := Evaluation{
		ID:         uuid.New().String(),
		Symbol:     data.Symbol,
		Category:   category,
		Trend:      trend,
		Decision:   decision,
		OrderBlock: orderBlock,
		Sweep:      sweep,
		Engulfing:  engulf,
		Harmonic:   harmonic,
		ATR:        atr,
	}

	if decision.Direction == signal.NoSignal {
		return eval, nil
	}

	entryPrice, err := market.LastClose(data.EntryCandles)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: entry price: %w", data.Symbol, err)
	}
	plan, err := lifecycle.PlanStops(decision.Direction, entryPrice, atr, decision.Tier(e.opts.Profile), lifecycle.ModeMomentum, e.opts.TPFactor)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: plan stops: %w", data.Symbol, err)
	}
	sizing, err := risk.ComputePositionSize(entryPrice, plan.StopLoss, e.opts.Sizing)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: position size: %w", data.Symbol, err)
	}
	eval.Plan = &plan
	eval.Sizing = &sizing
	return eval, nil
}

// CheckEntry applies the cooldown gate and confirmation delay to a
// directional evaluation. Only a confirmed entry consumes a cooldown slot.
func (e *Engine) CheckEntry(eval Evaluation, data MarketData, cfg lifecycle.ConfirmationConfig) (lifecycle.CooldownDecision, lifecycle.ConfirmationResult) {
	gate := e.cooldown.CanEnter(eval.Symbol)
	if !gate.Allowed {
		return gate, lifecycle.ConfirmationResult{}
	}

	confirm := lifecycle.ConfirmEntry(eval.Decision.Direction, data.EntryCandles, data.FactorCandles, cfg)
	if confirm.Confirmed {
		e.cooldown.UpdateEntry(eval.Symbol)
	}
	return gate, confirm
}

func (e *Engine) lookupWeights(tier confluence.Tier, regime confluence.Regime, category confluence.Category, symbol string) (confluence.Weights, error) {
	weights, err := e.opts.Weights.Lookup(tier, regime, category)
	if err != nil {
		return nil, err
	}
	if e.opts.Adjuster != nil {
		weights = e.opts.Adjuster.Adjust(symbol, weights)
	}
	return weights, nil
}

// scoreTrend evaluates the highest-timeframe confirmation factors under the
// trend-regime profile with the VWAP hard gate.
func (e *Engine) scoreTrend(data MarketData, category confluence.Category, long bool) (confluence.FactorScoreSet, error) {
	weights, err := e.lookupWeights(confluence.TierFactor, confluence.RegimeTrend, category, data.Symbol)
	if err != nil {
		return confluence.FactorScoreSet{}, fmt.Errorf("%s: %w", data.Symbol, err)
	}

	candles := data.TrendCandles
	factors := confluence.Factors{
		"breakout": breakoutFactor(candles, long),
		"volume":   volumeFactor(candles),
		"oi":       alignedFactor(data.OIChangePct, oiFactorScale, long),
		"delta":    alignedFactor(lifecycle.TradeDelta(candles, breakoutLookback), deltaFactorScale, long),
		"funding":  fundingFactor(data.FundingRate, long),
	}
	return confluence.ScoreTrendTier(long, indicator.VWAPDirectionOf(candles), factors, weights), nil
}

// scoreFactor evaluates the middle timeframe. In a trend regime it reuses
// the trend factor set; in a range regime it scores the reversion factors.
func (e *Engine) scoreFactor(data MarketData, category confluence.Category, regime confluence.Regime, long bool) (confluence.FactorScoreSet, error) {
	weights, err := e.lookupWeights(confluence.TierFactor, regime, category, data.Symbol)
	if err != nil {
		return confluence.FactorScoreSet{}, fmt.Errorf("%s: %w", data.Symbol, err)
	}

	candles := data.FactorCandles
	delta := lifecycle.TradeDelta(candles, breakoutLookback)

	var factors confluence.Factors
	if regime == confluence.RegimeRange {
		factors = confluence.Factors{
			"vwap":        vwapAgreeFactor(candles, long),
			"touch":       touchFactor(candles),
			"volume":      volumeFactor(candles),
			"delta":       alignedFactor(delta, deltaFactorScale, long),
			"oi":          alignedFactor(data.OIChangePct, oiFactorScale, long),
			"no_breakout": 1 - breakoutFactor(candles, long),
		}
	} else {
		factors = confluence.Factors{
			"breakout": breakoutFactor(candles, long),
			"volume":   volumeFactor(candles),
			"oi":       alignedFactor(data.OIChangePct, oiFactorScale, long),
			"delta":    alignedFactor(delta, deltaFactorScale, long),
			"funding":  fundingFactor(data.FundingRate, long),
		}
	}
	return confluence.ScoreFactorTier(factors, weights), nil
}

// scoreEntry evaluates the lowest-timeframe trigger factors.
func (e *Engine) scoreEntry(data MarketData, category confluence.Category, regime confluence.Regime, long bool) (confluence.FactorScoreSet, error) {
	weights, err := e.lookupWeights(confluence.TierEntry, regime, category, data.Symbol)
	if err != nil {
		return confluence.FactorScoreSet{}, fmt.Errorf("%s: %w", data.Symbol, err)
	}

	candles := data.EntryCandles
	factors := confluence.Factors{
		"vwap":   vwapAgreeFactor(candles, long),
		"delta":  alignedFactor(lifecycle.TradeDelta(candles, breakoutLookback), deltaFactorScale, long),
		"oi":     alignedFactor(data.OIChangePct, oiFactorScale, long),
		"volume": volumeFactor(candles),
	}
	return confluence.ScoreEntryTier(factors, weights), nil
}

// breakoutFactor is 1 when the latest close clears the prior window's
// extreme in the signal direction.
func breakoutFactor(candles []market.Candle, long bool) float64 {
	if len(candles) < breakoutLookback+1 {
		return 0
	}
	window := candles[len(candles)-1-breakoutLookback : len(candles)-1]
	last := candles[len(candles)-1].Close
	if long {
		hi := window[0].High
		for _, c := range window {
			if c.High > hi {
				hi = c.High
			}
		}
		if last > hi {
			return 1
		}
		return 0
	}
	lo := window[0].Low
	for _, c := range window {
		if c.Low < lo {
			lo = c.Low
		}
	}
	if last < lo {
		return 1
	}
	return 0
}

// volumeFactor maps the expansion ratio onto 0..1, saturating at the
// configured multiplier.
func volumeFactor(candles []market.Candle) float64 {
	res := patterns.DetectVolumeExpansion(candles, breakoutLookback, patterns.DefaultVolumeMultiplier)
	if res.Ratio <= 0 {
		return 0
	}
	v := res.Ratio / patterns.DefaultVolumeMultiplier
	if v > 1 {
		v = 1
	}
	return v
}

// alignedFactor scores a signed reading against the signal direction,
// saturating at the given scale.
func alignedFactor(value, scale float64, long bool) float64 {
	if !long {
		value = -value
	}
	if value <= 0 || scale <= 0 {
		return 0
	}
	v := value / scale
	if v > 1 {
		v = 1
	}
	return v
}

// fundingFactor favors entries that do not pay a crowded-side premium: a
// funding rate at or under the neutral band scores 1 for longs, and the
// mirror holds for shorts.
func fundingFactor(rate float64, long bool) float64 {
	if long {
		if rate <= fundingNeutral {
			return 1
		}
		return 0
	}
	if rate >= -fundingNeutral {
		return 1
	}
	return 0
}

// vwapAgreeFactor is 1 when price sits on the signal side of VWAP.
func vwapAgreeFactor(candles []market.Candle, long bool) float64 {
	dir := indicator.VWAPDirectionOf(candles)
	if long && dir == indicator.VWAPAbove || !long && dir == indicator.VWAPBelow {
		return 1
	}
	return 0
}

// touchFactor is 1 when the latest bar tags a Bollinger band edge, the
// range-regime reversion trigger.
func touchFactor(candles []market.Candle) float64 {
	bb := indicator.Bollinger(candles, breakoutLookback, 2)
	if bb.Middle == 0 || len(candles) == 0 {
		return 0
	}
	last := candles[len(candles)-1]
	if last.Low <= bb.Lower || last.High >= bb.Upper {
		return 1
	}
	return 0
}
