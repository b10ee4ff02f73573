// Package config loads engine configuration from a JSON file with
// environment variable overrides. A missing file is not an error: the
// defaults cover every parameter, and env vars take precedence over both.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"futures-signal-engine/internal/confluence"
	"futures-signal-engine/internal/lifecycle"
	"futures-signal-engine/internal/patterns"
	"futures-signal-engine/internal/risk"
	"futures-signal-engine/internal/signal"
)

type Config struct {
	ProfileConfig      signal.Profile               `json:"profile"`
	OrderBlockConfig   patterns.OrderBlockConfig    `json:"order_block"`
	SweepConfig        patterns.SweepConfig         `json:"sweep"`
	SizingConfig       risk.SizingConfig            `json:"sizing"`
	TrailingConfig     risk.TrailingConfig          `json:"trailing"`
	CooldownConfig     lifecycle.CooldownConfig     `json:"cooldown"`
	ConfirmationConfig lifecycle.ConfirmationConfig `json:"confirmation"`
	TimeStopConfig     lifecycle.TimeStopConfig     `json:"time_stop"`
	PullbackConfig     lifecycle.PullbackConfig     `json:"pullback"`
	TrendConfig        TrendConfig                  `json:"trend"`
	LoggingConfig      LoggingConfig                `json:"logging"`
	RedisConfig        RedisConfig                  `json:"redis"`

	// Symbol category overrides, merged over the built-in classifier
	// table. Keys are symbols, values are category names.
	SymbolCategories map[string]string `json:"symbol_categories"`

	// Weight profile overrides keyed tier/regime/category; absent entries
	// fall back to the stock table.
	Weights confluence.WeightTable `json:"weights"`
}

// TrendConfig holds the higher-timeframe classification parameters.
type TrendConfig struct {
	ADXThreshold float64 `json:"adx_threshold"` // below this the regime reads RANGE
	TPFactor     float64 `json:"tp_factor"`     // take-profit as multiple of stop distance
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // plain JSON instead of console writer
}

// RedisConfig holds the cooldown snapshot store connection. Disabled means
// cooldown state lives only in memory.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Default returns a fully populated configuration.
func Default() *Config {
	return &Config{
		ProfileConfig:      signal.DefaultProfile(),
		OrderBlockConfig:   patterns.DefaultOrderBlockConfig(),
		SweepConfig:        patterns.DefaultSweepConfig(),
		SizingConfig:       risk.DefaultSizingConfig(),
		TrailingConfig:     risk.DefaultTrailingConfig(),
		CooldownConfig:     lifecycle.DefaultCooldownConfig(),
		ConfirmationConfig: lifecycle.DefaultConfirmationConfig(),
		TimeStopConfig:     lifecycle.DefaultTimeStopConfig(),
		PullbackConfig:     lifecycle.DefaultPullbackConfig(),
		TrendConfig: TrendConfig{
			ADXThreshold: 20,
			TPFactor:     lifecycle.DefaultTPFactor,
		},
		LoggingConfig: LoggingConfig{
			Level:      "info",
			Output:     "stdout",
			JSONFormat: false,
		},
		RedisConfig: RedisConfig{
			Address: "localhost:6379",
		},
	}
}

// Load reads the config file when present, then applies env overrides. The
// result is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints the individual packages
// cannot check for themselves.
func (c *Config) Validate() error {
	p := c.ProfileConfig
	if sum := p.TrendWeight + p.FactorWeight + p.EntryWeight; sum < 0.999999 || sum > 1.000001 {
		return fmt.Errorf("profile fusion weights sum to %v, want 1", sum)
	}
	if p.MediumTier > p.HighTier {
		return fmt.Errorf("medium tier cutoff %v above high tier cutoff %v", p.MediumTier, p.HighTier)
	}
	if c.Weights != nil {
		if err := c.Weights.Validate(); err != nil {
			return fmt.Errorf("weights: %w", err)
		}
	}
	for sym, cat := range c.SymbolCategories {
		if _, err := confluence.ParseCategory(cat); err != nil {
			return fmt.Errorf("symbol %s: %w", sym, err)
		}
	}
	return nil
}

// Classifier builds the symbol classifier with any configured overrides
// merged over the stock table.
func (c *Config) Classifier() *confluence.Classifier {
	if len(c.SymbolCategories) == 0 {
		return confluence.DefaultClassifier()
	}
	table := make(map[string]confluence.Category, len(c.SymbolCategories))
	for sym, cat := range c.SymbolCategories {
		parsed, err := confluence.ParseCategory(cat)
		if err != nil {
			continue // Validate already rejected these on the Load path
		}
		table[sym] = parsed
	}
	return confluence.DefaultClassifier().Merge(table)
}

// WeightTable returns the configured overrides merged over the stock table.
func (c *Config) WeightTable() confluence.WeightTable {
	base := confluence.DefaultWeightTable()
	for tier, byRegime := range c.Weights {
		for regime, byCat := range byRegime {
			for cat, w := range byCat {
				if base[tier] == nil {
					base[tier] = map[confluence.Regime]map[confluence.Category]confluence.Weights{}
				}
				if base[tier][regime] == nil {
					base[tier][regime] = map[confluence.Category]confluence.Weights{}
				}
				base[tier][regime][cat] = w.Clone()
			}
		}
	}
	return base
}

func loadFromFile(path string, cfg *Config) error {
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := json.Unmarshal(file, cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.SizingConfig.MaxLossAmount = getEnvFloatOrDefault("RISK_MAX_LOSS", cfg.SizingConfig.MaxLossAmount)
	cfg.SizingConfig.MaxLeverage = getEnvIntOrDefault("RISK_MAX_LEVERAGE", cfg.SizingConfig.MaxLeverage)

	cfg.CooldownConfig.CooldownMinutes = getEnvIntOrDefault("COOLDOWN_MINUTES", cfg.CooldownConfig.CooldownMinutes)
	cfg.CooldownConfig.DailyCap = getEnvIntOrDefault("COOLDOWN_DAILY_CAP", cfg.CooldownConfig.DailyCap)

	cfg.TrendConfig.ADXThreshold = getEnvFloatOrDefault("TREND_ADX_THRESHOLD", cfg.TrendConfig.ADXThreshold)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", boolString(cfg.LoggingConfig.JSONFormat)) == "true"

	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
