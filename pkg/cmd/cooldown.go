package cmd

import (
	"context"
	"sync"
	"time"
)

// Reservation is a recorded cooldown that has not been committed by a
// completed invocation yet.
type Reservation interface {
	// Cancel undoes the reservation if nothing newer replaced it.
	Cancel()
}

// CooldownStore records last invocations per scope key. Reserve must check
// and record in a single atomic step: when ok is false, remaining is how long
// the caller has to wait. Remaining only reads.
type CooldownStore interface {
	Reserve(key string, now time.Time, window time.Duration) (r Reservation, remaining time.Duration, ok bool)
	Remaining(key string, now time.Time) time.Duration
}

// CooldownEntry is one tracked key.
type CooldownEntry struct {
	At    time.Time `json:"at"`
	Until time.Time `json:"until"`
}

// MemoryCooldowns is an in-memory CooldownStore guarded by a mutex.
type MemoryCooldowns struct {
	mu      sync.Mutex
	entries map[string]CooldownEntry
}

// NewMemoryCooldowns returns an empty store.
func NewMemoryCooldowns() *MemoryCooldowns {
	return &MemoryCooldowns{entries: make(map[string]CooldownEntry)}
}

type reservation struct {
	store *MemoryCooldowns
	key   string
	mine  CooldownEntry
	prev  CooldownEntry
	had   bool
}

func (r *reservation) Cancel() {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[r.key]; !ok || cur != r.mine {
		return
	}
	if r.had {
		s.entries[r.key] = r.prev
	} else {
		delete(s.entries, r.key)
	}
}

func (s *MemoryCooldowns) Reserve(key string, now time.Time, window time.Duration) (Reservation, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.entries[key]
	if had && now.Before(prev.Until) {
		return nil, prev.Until.Sub(now), false
	}
	mine := CooldownEntry{At: now, Until: now.Add(window)}
	s.entries[key] = mine
	return &reservation{store: s, key: key, mine: mine, prev: prev, had: had}, 0, true
}

// Remaining reports how long key is still cooling down.
func (s *MemoryCooldowns) Remaining(key string, now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && now.Before(e.Until) {
		return e.Until.Sub(now)
	}
	return 0
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryCooldowns) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.Until) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Snapshot copies the live entries, for persistence across restarts.
func (s *MemoryCooldowns) Snapshot() map[string]CooldownEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]CooldownEntry, len(s.entries))
	for k, e := range s.entries {
		out[k] = e
	}
	return out
}

// Restore loads entries that are still active at now.
func (s *MemoryCooldowns) Restore(entries map[string]CooldownEntry, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range entries {
		if now.Before(e.Until) {
			s.entries[k] = e
		}
	}
}

// RunSweeper sweeps expired cooldowns every interval until ctx is done.
func (s *MemoryCooldowns) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// cooldownKey builds the scope key for d and inv. ok is false when the
// command has no cooldown.
func cooldownKey(d *Descriptor, inv *Invocation) (string, bool) {
	if d.Cooldown.Duration <= 0 {
		return "", false
	}
	name := d.QualifiedName()
	switch d.Cooldown.Scope {
	case ScopeUser:
		return name + "|user:" + inv.Author.ID, true
	case ScopeChannel:
		return name + "|channel:" + inv.ChannelID, true
	default:
		return name + "|global", true
	}
}
