// Package store persists cooldown state in Redis so symbol throttles and
// daily entry counts survive restarts. The engine itself never touches the
// network; callers load a snapshot at startup and write through after each
// accepted entry.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"futures-signal-engine/internal/lifecycle"
)

// Redis key layout.
const (
	// CooldownKeyPrefix prefixes per-symbol state keys.
	// Format: signal:cooldown:{symbol}
	CooldownKeyPrefix = "signal:cooldown"

	// CooldownStateTTL expires stale symbols. Cooldown state is only
	// meaningful within a trading day; two days covers timezone skew.
	CooldownStateTTL = 48 * time.Hour
)

// CooldownSnapshot reads and writes lifecycle.CooldownState through Redis.
type CooldownSnapshot struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewCooldownSnapshot wraps a Redis client.
func NewCooldownSnapshot(client *redis.Client, logger zerolog.Logger) *CooldownSnapshot {
	return &CooldownSnapshot{
		client: client,
		logger: logger.With().Str("component", "CooldownSnapshot").Logger(),
	}
}

func cooldownKey(symbol string) string {
	return fmt.Sprintf("%s:%s", CooldownKeyPrefix, symbol)
}

// Save writes one symbol's state.
func (s *CooldownSnapshot) Save(ctx context.Context, symbol string, state lifecycle.CooldownState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal cooldown state for %s: %w", symbol, err)
	}
	if err := s.client.Set(ctx, cooldownKey(symbol), data, CooldownStateTTL).Err(); err != nil {
		return fmt.Errorf("save cooldown state for %s: %w", symbol, err)
	}
	s.logger.Debug().Str("symbol", symbol).Int("daily_count", state.DailyCount).Msg("cooldown state saved")
	return nil
}

// Load reads one symbol's state. The bool reports whether a snapshot
// existed.
func (s *CooldownSnapshot) Load(ctx context.Context, symbol string) (lifecycle.CooldownState, bool, error) {
	data, err := s.client.Get(ctx, cooldownKey(symbol)).Bytes()
	if err == redis.Nil {
		return lifecycle.CooldownState{}, false, nil
	}
	if err != nil {
		return lifecycle.CooldownState{}, false, fmt.Errorf("load cooldown state for %s: %w", symbol, err)
	}
	var state lifecycle.CooldownState
	if err := json.Unmarshal(data, &state); err != nil {
		return lifecycle.CooldownState{}, false, fmt.Errorf("decode cooldown state for %s: %w", symbol, err)
	}
	return state, true, nil
}

// Restore loads every persisted symbol into the store. Missing or corrupt
// keys are skipped with a warning so one bad entry cannot block startup.
func (s *CooldownSnapshot) Restore(ctx context.Context, dst *lifecycle.CooldownStore) error {
	iter := s.client.Scan(ctx, 0, CooldownKeyPrefix+":*", 0).Iterator()
	restored := 0
	for iter.Next(ctx) {
		key := iter.Val()
		symbol := key[len(CooldownKeyPrefix)+1:]
		state, ok, err := s.Load(ctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("skipping unreadable cooldown snapshot")
			continue
		}
		if !ok {
			continue
		}
		dst.Restore(symbol, state)
		restored++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cooldown snapshots: %w", err)
	}
	s.logger.Info().Int("symbols", restored).Msg("cooldown state restored")
	return nil
}

// Delete drops one symbol's snapshot.
func (s *CooldownSnapshot) Delete(ctx context.Context, symbol string) error {
	if err := s.client.Del(ctx, cooldownKey(symbol)).Err(); err != nil {
		return fmt.Errorf("delete cooldown state for %s: %w", symbol, err)
	}
	return nil
}
