package daylog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RetentionDays is the rolling window kept by durable stores. Entries older
// than this are pruned on write.
const RetentionDays = 7

// Store holds recent day entries. TodayEntries returns all entries whose
// timestamp falls on the current calendar day, in the order they were logged;
// it must be cheap enough to call on every evaluation cycle.
type Store interface {
	Append(ctx context.Context, entry DayEntry) error
	TodayEntries(ctx context.Context) ([]DayEntry, error)
	EntriesSince(ctx context.Context, since time.Time) ([]DayEntry, error)
}

// sameDay reports whether two instants fall on the same local calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MemoryStore is an in-memory Store used by tests and by the server when no
// data directory is configured. Entries disappear on process exit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []DayEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Append records an entry, stamping it with the current time if unset.
func (s *MemoryStore) Append(_ context.Context, entry DayEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.entries = append(s.entries, entry)

	// Rolling window: drop anything past the retention horizon.
	cutoff := s.now().AddDate(0, 0, -RetentionDays)
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.CreatedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

// TodayEntries returns the current calendar day's entries in insertion order.
func (s *MemoryStore) TodayEntries(_ context.Context) ([]DayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := s.now()
	var out []DayEntry
	for _, e := range s.entries {
		if sameDay(e.CreatedAt, today) {
			out = append(out, e)
		}
	}
	return out, nil
}

// EntriesSince returns entries at or after the given instant, oldest first.
func (s *MemoryStore) EntriesSince(_ context.Context, since time.Time) ([]DayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DayEntry
	for _, e := range s.entries {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
