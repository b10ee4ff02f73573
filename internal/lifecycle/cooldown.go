// Package lifecycle implements the trade state machine around a signal:
// cooldown gating, confirmation delay, initial stop planning, time-based
// exits, and pullback confirmation. Rejections are structured results with
// a reason, never errors.
package lifecycle

import (
	"sync"
	"time"
)

// Cooldown decision reasons.
const (
	ReasonFirstEntry        = "first_entry"
	ReasonDailyReset        = "daily_reset"
	ReasonCooldownActive    = "cooldown_active"
	ReasonDailyLimitReached = "daily_limit_reached"
	ReasonOK                = "ok"
)

// Cooldown defaults.
const (
	DefaultCooldownMinutes = 30
	DefaultDailyCap        = 6
)

// CooldownConfig throttles entries per symbol.
type CooldownConfig struct {
	CooldownMinutes int `json:"cooldown_minutes"`
	DailyCap        int `json:"daily_cap"`
}

// DefaultCooldownConfig returns the stock throttle parameters.
func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{
		CooldownMinutes: DefaultCooldownMinutes,
		DailyCap:        DefaultDailyCap,
	}
}

// CooldownState is the per-symbol entry history.
type CooldownState struct {
	LastEntry     time.Time `json:"last_entry"`
	DailyCount    int       `json:"daily_count"`
	LastResetDate string    `json:"last_reset_date"` // YYYY-MM-DD, local day
}

// CooldownDecision is the outcome of a CanEnter check.
type CooldownDecision struct {
	Allowed bool          `json:"allowed"`
	Reason  string        `json:"reason"`
	Wait    time.Duration `json:"-"` // remaining cooldown when blocked
}

type symbolEntry struct {
	mu    sync.Mutex
	state CooldownState
	seen  bool
}

// CooldownStore keeps per-symbol cooldown state. Each symbol is guarded by
// its own lock so concurrent evaluations of different symbols never contend
// and concurrent evaluations of the same symbol cannot double-count the
// daily cap.
type CooldownStore struct {
	mu      sync.Mutex
	cfg     CooldownConfig
	entries map[string]*symbolEntry
	now     func() time.Time
}

// NewCooldownStore creates a store. The clock defaults to time.Now and is
// injectable for tests.
func NewCooldownStore(cfg CooldownConfig, clock func() time.Time) *CooldownStore {
	if cfg.CooldownMinutes < 0 {
		cfg.CooldownMinutes = DefaultCooldownMinutes
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = DefaultDailyCap
	}
	if clock == nil {
		clock = time.Now
	}
	return &CooldownStore{
		cfg:     cfg,
		entries: make(map[string]*symbolEntry),
		now:     clock,
	}
}

func (s *CooldownStore) entry(symbol string) *symbolEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[symbol]
	if !ok {
		e = &symbolEntry{}
		s.entries[symbol] = e
	}
	return e
}

func dayOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// CanEnter checks the cooldown gate without consuming anything; calling it
// repeatedly without an intervening UpdateEntry yields the same decision.
func (s *CooldownStore) CanEnter(symbol string) CooldownDecision {
	e := s.entry(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if !e.seen {
		return CooldownDecision{Allowed: true, Reason: ReasonFirstEntry}
	}

	cooldown := time.Duration(s.cfg.CooldownMinutes) * time.Minute
	if elapsed := now.Sub(e.state.LastEntry); elapsed < cooldown {
		return CooldownDecision{
			Allowed: false,
			Reason:  ReasonCooldownActive,
			Wait:    cooldown - elapsed,
		}
	}

	// The stored count only applies within its own local day. The actual
	// reset happens in UpdateEntry so this check stays a pure read.
	newDay := e.state.LastResetDate != dayOf(now)
	count := e.state.DailyCount
	if newDay {
		count = 0
	}
	if count >= s.cfg.DailyCap {
		return CooldownDecision{Allowed: false, Reason: ReasonDailyLimitReached}
	}
	if newDay {
		return CooldownDecision{Allowed: true, Reason: ReasonDailyReset}
	}
	return CooldownDecision{Allowed: true, Reason: ReasonOK}
}

// UpdateEntry records an accepted entry: stamps the time and increments the
// daily count.
func (s *CooldownStore) UpdateEntry(symbol string) CooldownState {
	e := s.entry(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if e.state.LastResetDate != dayOf(now) {
		e.state.DailyCount = 0
		e.state.LastResetDate = dayOf(now)
	}
	e.state.LastEntry = now
	e.state.DailyCount++
	e.seen = true
	return e.state
}

// State returns a copy of the symbol's stored state.
func (s *CooldownStore) State(symbol string) (CooldownState, bool) {
	e := s.entry(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.seen
}

// Restore seeds a symbol's state, used when loading a persisted snapshot.
func (s *CooldownStore) Restore(symbol string, state CooldownState) {
	e := s.entry(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.seen = true
}

// Symbols lists the tracked symbols.
func (s *CooldownStore) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for sym := range s.entries {
		out = append(out, sym)
	}
	return out
}
