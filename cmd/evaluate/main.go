// Command evaluate runs the signal pipeline over candle data from a JSON
// file and prints the full evaluation as JSON. It is an offline tool: no
// exchange connection, no order placement.
//
// The input file carries one object with the three timeframe series:
//
//	{
//	  "trend":  [{"open_time":0,"open":"100",...}, ...],
//	  "factor": [...],
//	  "entry":  [...]
//	}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"futures-signal-engine/config"
	"futures-signal-engine/internal/confluence"
	"futures-signal-engine/internal/engine"
	"futures-signal-engine/internal/lifecycle"
	"futures-signal-engine/internal/logging"
	"futures-signal-engine/internal/market"
	"futures-signal-engine/internal/signal"
	"futures-signal-engine/internal/store"
)

type candleFile struct {
	Trend  []market.Candle `json:"trend"`
	Factor []market.Candle `json:"factor"`
	Entry  []market.Candle `json:"entry"`
}

func main() {
	var (
		configPath  = flag.String("config", "config.json", "path to the config file")
		symbol      = flag.String("symbol", "", "symbol to evaluate, e.g. BTCUSDT")
		candlesPath = flag.String("candles", "", "path to the candle JSON file")
		oiChange    = flag.Float64("oi", 0, "fractional open-interest change")
		funding     = flag.Float64("funding", 0, "current funding rate")
		checkEntry  = flag.Bool("check-entry", false, "also run the cooldown gate and confirmation checks")
	)
	flag.Parse()

	if *symbol == "" || *candlesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate -symbol BTCUSDT -candles candles.json [-config config.json] [-oi 0.02] [-funding 0.0001] [-check-entry]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
		Component:  "evaluate",
	})

	raw, err := os.ReadFile(*candlesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *candlesPath).Msg("failed to read candle file")
	}
	var candles candleFile
	if err := json.Unmarshal(raw, &candles); err != nil {
		logger.Fatal().Err(err).Str("path", *candlesPath).Msg("failed to parse candle file")
	}

	cooldown := lifecycle.NewCooldownStore(cfg.CooldownConfig, nil)
	if cfg.RedisConfig.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		snapshot := store.NewCooldownSnapshot(client, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := snapshot.Restore(ctx, cooldown); err != nil {
			logger.Warn().Err(err).Msg("cooldown state not restored, starting fresh")
		}
		cancel()
	}

	eng, err := engine.New(engine.Options{
		Profile:      cfg.ProfileConfig,
		Weights:      cfg.WeightTable(),
		Classifier:   cfg.Classifier(),
		Adjuster:     confluence.NewAdjuster(0, 0),
		OrderBlock:   cfg.OrderBlockConfig,
		Sweep:        cfg.SweepConfig,
		Sizing:       cfg.SizingConfig,
		TPFactor:     cfg.TrendConfig.TPFactor,
		ADXThreshold: cfg.TrendConfig.ADXThreshold,
	}, cooldown)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build engine")
	}

	data := engine.MarketData{
		Symbol:        *symbol,
		TrendCandles:  candles.Trend,
		FactorCandles: candles.Factor,
		EntryCandles:  candles.Entry,
		OIChangePct:   *oiChange,
		FundingRate:   *funding,
	}

	eval, err := eng.Evaluate(data)
	if err != nil {
		logger.Fatal().Err(err).Str("symbol", *symbol).Msg("evaluation failed")
	}

	logger.Info().
		Str("symbol", eval.Symbol).
		Str("direction", string(eval.Decision.Direction)).
		Float64("confidence", eval.Decision.Confidence).
		Str("reason", eval.Decision.Reason).
		Msg("evaluation complete")

	out := struct {
		engine.Evaluation
		Gate    *lifecycle.CooldownDecision   `json:"gate,omitempty"`
		Confirm *lifecycle.ConfirmationResult `json:"confirmation,omitempty"`
	}{Evaluation: eval}

	if *checkEntry && eval.Decision.Direction != signal.NoSignal {
		gate, confirm := eng.CheckEntry(eval, data, cfg.ConfirmationConfig)
		out.Gate = &gate
		if gate.Allowed {
			out.Confirm = &confirm
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal().Err(err).Msg("failed to encode result")
	}
}
