package risk

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trailing defaults: the stop starts trailing once unrealized profit reaches
// one full stop distance and then steps in 0.4*ATR increments.
const (
	DefaultTrailStepATR    = 0.4
	DefaultActivationRatio = 1.0
)

// TrailingConfig controls stop trailing.
type TrailingConfig struct {
	TrailStepATR    float64 `json:"trail_step_atr"`   // step size in ATR multiples
	ActivationRatio float64 `json:"activation_ratio"` // profit as multiple of stop distance
}

// DefaultTrailingConfig returns the stock trailing parameters.
func DefaultTrailingConfig() TrailingConfig {
	return TrailingConfig{
		TrailStepATR:    DefaultTrailStepATR,
		ActivationRatio: DefaultActivationRatio,
	}
}

// TrailingPosition tracks one open position's stop state.
type TrailingPosition struct {
	ID               string
	Symbol           string
	Long             bool
	EntryPrice       float64
	ATR              float64
	CurrentStopLoss  float64
	OriginalStopLoss float64
	HighWaterMark    float64
	LowWaterMark     float64
	Activated        bool
	LastUpdate       time.Time
}

// StopUpdate reports the outcome of a price tick.
type StopUpdate struct {
	ID           string
	Symbol       string
	OldStopLoss  float64
	NewStopLoss  float64
	Triggered    bool
	TriggerPrice float64
}

// TrailingManager tracks trailing stops for open positions, keyed by
// position ID. Safe for concurrent use.
type TrailingManager struct {
	mu        sync.RWMutex
	config    TrailingConfig
	positions map[string]*TrailingPosition
}

// NewTrailingManager creates a manager; zero-value config fields fall back
// to the defaults.
func NewTrailingManager(cfg TrailingConfig) *TrailingManager {
	if cfg.TrailStepATR <= 0 {
		cfg.TrailStepATR = DefaultTrailStepATR
	}
	if cfg.ActivationRatio <= 0 {
		cfg.ActivationRatio = DefaultActivationRatio
	}
	return &TrailingManager{
		config:    cfg,
		positions: make(map[string]*TrailingPosition),
	}
}

// Track registers a new position and returns its ID.
func (m *TrailingManager) Track(symbol string, long bool, entryPrice, stopLoss, atr float64, now time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.positions[id] = &TrailingPosition{
		ID:               id,
		Symbol:           symbol,
		Long:             long,
		EntryPrice:       entryPrice,
		ATR:              atr,
		CurrentStopLoss:  stopLoss,
		OriginalStopLoss: stopLoss,
		HighWaterMark:    entryPrice,
		LowWaterMark:     entryPrice,
		LastUpdate:       now,
	}
	return id
}

// Release stops tracking a position.
func (m *TrailingManager) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, id)
}

// Position returns a copy of the tracked position state.
func (m *TrailingManager) Position(id string) (TrailingPosition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[id]
	if !ok {
		return TrailingPosition{}, false
	}
	return *pos, true
}

// UpdatePrice advances the water marks and steps the stop once the position
// is activated. Returns nil for unknown IDs.
func (m *TrailingManager) UpdatePrice(id string, price float64, now time.Time) *StopUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[id]
	if !ok {
		return nil
	}
	defer func() { pos.LastUpdate = now }()

	if pos.Long {
		return m.updateLong(pos, price)
	}
	return m.updateShort(pos, price)
}

func (m *TrailingManager) updateLong(pos *TrailingPosition, price float64) *StopUpdate {
	if price <= pos.CurrentStopLoss {
		return &StopUpdate{
			ID: pos.ID, Symbol: pos.Symbol,
			OldStopLoss: pos.CurrentStopLoss, NewStopLoss: pos.CurrentStopLoss,
			Triggered: true, TriggerPrice: price,
		}
	}

	if price > pos.HighWaterMark {
		pos.HighWaterMark = price
	}

	stopDist := pos.EntryPrice - pos.OriginalStopLoss
	if !pos.Activated && stopDist > 0 && price-pos.EntryPrice >= m.config.ActivationRatio*stopDist {
		pos.Activated = true
	}
	if !pos.Activated {
		return nil
	}

	step := m.config.TrailStepATR * pos.ATR
	candidate := pos.HighWaterMark - step
	if step > 0 && candidate > pos.CurrentStopLoss {
		old := pos.CurrentStopLoss
		pos.CurrentStopLoss = candidate
		return &StopUpdate{
			ID: pos.ID, Symbol: pos.Symbol,
			OldStopLoss: old, NewStopLoss: candidate,
		}
	}
	return nil
}

func (m *TrailingManager) updateShort(pos *TrailingPosition, price float64) *StopUpdate {
	if price >= pos.CurrentStopLoss {
		return &StopUpdate{
			ID: pos.ID, Symbol: pos.Symbol,
			OldStopLoss: pos.CurrentStopLoss, NewStopLoss: pos.CurrentStopLoss,
			Triggered: true, TriggerPrice: price,
		}
	}

	if price < pos.LowWaterMark {
		pos.LowWaterMark = price
	}

	stopDist := pos.OriginalStopLoss - pos.EntryPrice
	if !pos.Activated && stopDist > 0 && pos.EntryPrice-price >= m.config.ActivationRatio*stopDist {
		pos.Activated = true
	}
	if !pos.Activated {
		return nil
	}

	step := m.config.TrailStepATR * pos.ATR
	candidate := pos.LowWaterMark + step
	if step > 0 && candidate < pos.CurrentStopLoss {
		old := pos.CurrentStopLoss
		pos.CurrentStopLoss = candidate
		return &StopUpdate{
			ID: pos.ID, Symbol: pos.Symbol,
			OldStopLoss: old, NewStopLoss: candidate,
		}
	}
	return nil
}
