package recommend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
)

// DefaultInterval is how often the engine recomputes on its own.
const DefaultInterval = 3600 * time.Second

// EvaluateCandidates runs every rule in table order against the day's facts
// and returns one candidate per matching rule. Duplicate texts are possible
// when overlapping rules fire together; they stay separate candidates.
func EvaluateCandidates(entries []daylog.DayEntry, hour, liveSteps int) []Candidate {
	f := deriveFacts(entries, hour, liveSteps)
	var candidates []Candidate
	for _, r := range ruleTable {
		if !r.when(f) {
			continue
		}
		candidates = append(candidates, Candidate{
			Rule:     r.name,
			Category: r.category,
			Text:     r.text,
			Score:    r.score(f),
		})
	}
	return candidates
}

// Evaluate picks the single best suggestion for the given inputs. It is pure:
// identical entries, hour and live step count always produce the same string.
// The highest score wins; on a tie the rule listed earlier in the table wins.
// When nothing fires the fallback text is returned, never an empty string.
func Evaluate(entries []daylog.DayEntry, hour, liveSteps int) string {
	candidates := EvaluateCandidates(entries, hour, liveSteps)
	if len(candidates) == 0 {
		return Fallback
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.Text
}

// Engine owns the published recommendation. It recomputes once at
// construction, on a fixed interval, and whenever Refresh is called; all
// three paths are serialized behind one mutex since they mutate shared state.
type Engine struct {
	store  daylog.Store
	logger *slog.Logger

	mu        sync.Mutex
	current   string
	lastSteps int
	subs      []func(string)

	cron     *cron.Cron
	interval time.Duration
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the periodic recompute interval (tests use a long
// one to keep the scheduler quiet).
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithClock overrides the engine's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine, computes the first recommendation immediately
// and starts the periodic recompute job. Callers must Stop the engine when
// done or the scheduled job leaks.
func NewEngine(ctx context.Context, store daylog.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		logger:   logger,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.Refresh(ctx)

	e.cron = cron.New()
	if _, err := e.cron.AddFunc("@every "+e.interval.String(), func() {
		e.Refresh(context.Background())
	}); err != nil {
		// Only reachable with a malformed interval; the engine still works
		// for on-demand refreshes.
		logger.Error("scheduling periodic refresh failed", "error", err)
	}
	e.cron.Start()
	return e
}

// Stop halts the periodic recompute job. Safe to call more than once.
func (e *Engine) Stop() {
	if e.cron != nil {
		e.cron.Stop()
	}
}

// Current returns the last published recommendation.
func (e *Engine) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Subscribe registers a callback invoked whenever the published
// recommendation changes. Callbacks run outside the engine lock.
func (e *Engine) Subscribe(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Refresh recomputes the recommendation from the store without a fresh step
// reading.
func (e *Engine) Refresh(ctx context.Context) {
	e.refresh(ctx, -1)
}

// RefreshWithSteps records a fresh step reading, replacing the previous one
// unconditionally (even if lower), then recomputes.
func (e *Engine) RefreshWithSteps(ctx context.Context, steps int) {
	if steps < 0 {
		steps = 0
	}
	e.refresh(ctx, steps)
}

func (e *Engine) refresh(ctx context.Context, steps int) {
	e.mu.Lock()
	if steps >= 0 {
		e.lastSteps = steps
	}

	entries, err := e.store.TodayEntries(ctx)
	if err != nil {
		// A failed read degrades to "no entries logged yet"; the engine
		// still publishes something.
		e.logger.Warn("reading today's entries failed", "error", err)
		entries = nil
	}

	next := Evaluate(entries, e.now().Hour(), e.lastSteps)
	changed := next != e.current
	e.current = next
	subs := make([]func(string), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	if changed {
		e.logger.Debug("recommendation updated", "text", next, "entries", len(entries))
		for _, fn := range subs {
			fn(next)
		}
	}
}
