package lifecycle

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testStore(cfg CooldownConfig) (*CooldownStore, *fakeClock) {
	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local))
	return NewCooldownStore(cfg, clock.Now), clock
}

func TestCooldownFirstEntry(t *testing.T) {
	store, _ := testStore(DefaultCooldownConfig())
	d := store.CanEnter("BTCUSDT")
	if !d.Allowed || d.Reason != ReasonFirstEntry {
		t.Errorf("fresh symbol should allow with first_entry, got %+v", d)
	}
}

func TestCooldownActiveAfterEntry(t *testing.T) {
	store, clock := testStore(CooldownConfig{CooldownMinutes: 30, DailyCap: 6})
	store.UpdateEntry("BTCUSDT")

	d := store.CanEnter("BTCUSDT")
	if d.Allowed || d.Reason != ReasonCooldownActive {
		t.Errorf("immediate re-entry should be cooldown_active, got %+v", d)
	}
	if d.Wait <= 0 || d.Wait > 30*time.Minute {
		t.Errorf("wait = %v, want in (0, 30m]", d.Wait)
	}

	clock.Advance(31 * time.Minute)
	d = store.CanEnter("BTCUSDT")
	if !d.Allowed || d.Reason != ReasonOK {
		t.Errorf("after cooldown should allow with ok, got %+v", d)
	}
}

func TestCooldownZeroMinutes(t *testing.T) {
	store, _ := testStore(CooldownConfig{CooldownMinutes: 0, DailyCap: 6})
	store.UpdateEntry("BTCUSDT")
	d := store.CanEnter("BTCUSDT")
	if !d.Allowed {
		t.Errorf("zero cooldown should allow immediately, got %+v", d)
	}
}

func TestCooldownIdempotence(t *testing.T) {
	store, clock := testStore(CooldownConfig{CooldownMinutes: 30, DailyCap: 6})
	store.UpdateEntry("BTCUSDT")
	clock.Advance(10 * time.Minute)

	first := store.CanEnter("BTCUSDT")
	second := store.CanEnter("BTCUSDT")
	if first != second {
		t.Errorf("repeated checks differ: %+v vs %+v", first, second)
	}
}

func TestCooldownDailyCapScenario(t *testing.T) {
	store, clock := testStore(CooldownConfig{CooldownMinutes: 30, DailyCap: 6})
	store.Restore("BTCUSDT", CooldownState{
		LastEntry:     clock.Now().Add(-1 * time.Hour),
		DailyCount:    6,
		LastResetDate: clock.Now().Format("2006-01-02"),
	})

	d := store.CanEnter("BTCUSDT")
	if d.Allowed || d.Reason != ReasonDailyLimitReached {
		t.Errorf("count 6 at cap 6 should reject with daily_limit_reached, got %+v", d)
	}
}

func TestCooldownDailyReset(t *testing.T) {
	store, clock := testStore(CooldownConfig{CooldownMinutes: 30, DailyCap: 6})
	store.Restore("BTCUSDT", CooldownState{
		LastEntry:     clock.Now().Add(-20 * time.Hour),
		DailyCount:    6,
		LastResetDate: clock.Now().Add(-20 * time.Hour).Format("2006-01-02"),
	})

	d := store.CanEnter("BTCUSDT")
	if !d.Allowed || d.Reason != ReasonDailyReset {
		t.Errorf("prior-day state should allow with daily_reset, got %+v", d)
	}

	// Committing an entry restarts the count for the new day.
	state := store.UpdateEntry("BTCUSDT")
	if state.DailyCount != 1 {
		t.Errorf("daily count after reset entry = %d, want 1", state.DailyCount)
	}
}

func TestCooldownUpdateEntryIncrements(t *testing.T) {
	store, clock := testStore(CooldownConfig{CooldownMinutes: 0, DailyCap: 6})
	for i := 1; i <= 3; i++ {
		state := store.UpdateEntry("ETHUSDT")
		if state.DailyCount != i {
			t.Errorf("entry %d: daily count = %d", i, state.DailyCount)
		}
		clock.Advance(time.Minute)
	}
}

func TestCooldownSymbolsIndependent(t *testing.T) {
	store, _ := testStore(CooldownConfig{CooldownMinutes: 30, DailyCap: 6})
	store.UpdateEntry("BTCUSDT")

	d := store.CanEnter("ETHUSDT")
	if !d.Allowed || d.Reason != ReasonFirstEntry {
		t.Errorf("other symbol should be unaffected, got %+v", d)
	}
}

func TestCooldownConcurrentSameSymbol(t *testing.T) {
	store, _ := testStore(CooldownConfig{CooldownMinutes: 0, DailyCap: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.UpdateEntry("BTCUSDT")
		}()
	}
	wg.Wait()

	state, ok := store.State("BTCUSDT")
	if !ok || state.DailyCount != 50 {
		t.Errorf("daily count = %d, want 50", state.DailyCount)
	}
}
