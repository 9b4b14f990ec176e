package daylog

import (
	"context"
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"
)

// CachedStore is a read-through cache over another Store. The engine and the
// server hit TodayEntries on every evaluation cycle and on every API request;
// the cache keeps those reads off the database. Appends invalidate the
// cached day so fresh entries are visible immediately.
type CachedStore struct {
	inner  Store
	cache  *otter.Cache[string, []DayEntry]
	logger *slog.Logger
	now    func() time.Time
}

// NewCachedStore wraps a store with a short-TTL read cache.
func NewCachedStore(inner Store, ttl time.Duration, logger *slog.Logger) *CachedStore {
	cache := otter.Must(&otter.Options[string, []DayEntry]{
		MaximumSize:      64,
		ExpiryCalculator: otter.ExpiryWriting[string, []DayEntry](ttl),
	})
	return &CachedStore{inner: inner, cache: cache, logger: logger, now: time.Now}
}

func (s *CachedStore) dayKey() string {
	return "today:" + s.now().Format("2006-01-02")
}

// Append writes through to the inner store and drops the cached day.
func (s *CachedStore) Append(ctx context.Context, entry DayEntry) error {
	if err := s.inner.Append(ctx, entry); err != nil {
		return err
	}
	s.cache.Invalidate(s.dayKey())
	return nil
}

// TodayEntries serves from cache when possible.
func (s *CachedStore) TodayEntries(ctx context.Context) ([]DayEntry, error) {
	key := s.dayKey()
	if entries, ok := s.cache.GetIfPresent(key); ok {
		return entries, nil
	}
	entries, err := s.inner.TodayEntries(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, entries)
	s.logger.Debug("day-log cache refresh", "entries", len(entries))
	return entries, nil
}

// EntriesSince always goes to the inner store; multi-day reads are rare.
func (s *CachedStore) EntriesSince(ctx context.Context, since time.Time) ([]DayEntry, error) {
	return s.inner.EntriesSince(ctx, since)
}
