// Package ratelimit enforces per-tribunal request budgets over three
// sliding windows (minute, hour, day) plus a cooldown.  Courts block
// scrapers aggressively, so exhausting an hourly budget backs the engine
// off for the configured cooldown and exhausting the daily budget blocks
// until local midnight.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
)

// Window identifies which budget denied a request.
type Window string

const (
	WindowMinute   Window = "minute"
	WindowHour     Window = "hour"
	WindowDay      Window = "day"
	WindowCooldown Window = "cooldown"
)

// Decision is the outcome of a Check call.  WaitTime is a retry hint; for
// minute-window denials it is soft (no cooldown was set) while for the
// other windows the tribunal is actually blocked for that duration.
type Decision struct {
	Allowed  bool
	WaitTime time.Duration
	Window   Window
	Reason   string
}

// BudgetFunc resolves the budget in effect for a tribunal code.
type BudgetFunc func(code string) config.BudgetConfig

// bucket tracks one tribunal's request history.  Timestamps are kept in
// append order, so pruning always trims a prefix.
type bucket struct {
	timestamps   []time.Time
	blockedUntil time.Time
}

// Limiter is the sliding-window rate limiter.  Safe for concurrent use;
// contention partitions naturally per tribunal code.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	budgetFor BudgetFunc
	clk       clock.Clock
	logger    logging.Logger
}

// NewLimiter builds a limiter resolving budgets through budgetFor.  A nil
// clock falls back to the system clock.
func NewLimiter(budgetFor BudgetFunc, clk clock.Clock, logger logging.Logger) *Limiter {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Limiter{
		buckets:   make(map[string]*bucket),
		budgetFor: budgetFor,
		clk:       clk,
		logger:    logger,
	}
}

// Check decides whether one more request to the tribunal is allowed right
// now and, if so, records it.  Denials never record a request.
func (l *Limiter) Check(code string) Decision {
	budget := l.budgetFor(code)
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[code]
	if !ok {
		b = &bucket{}
		l.buckets[code] = b
	}

	if now.Before(b.blockedUntil) {
		wait := b.blockedUntil.Sub(now)
		return Decision{
			Allowed:  false,
			WaitTime: wait,
			Window:   WindowCooldown,
			Reason:   "tribunal em cooldown",
		}
	}

	b.prune(now)

	if b.countSince(now.Add(-time.Minute)) >= budget.RequestsPerMinute {
		// Soft hint only; a minute-window denial sets no cooldown.
		return Decision{
			Allowed:  false,
			WaitTime: time.Minute,
			Window:   WindowMinute,
			Reason:   "limite por minuto atingido",
		}
	}

	if b.countSince(now.Add(-time.Hour)) >= budget.RequestsPerHour {
		b.blockedUntil = now.Add(budget.Cooldown)
		l.logger.Warn("hourly budget exhausted, entering cooldown",
			logging.String("tribunal", code),
			logging.Duration("cooldown", budget.Cooldown))
		return Decision{
			Allowed:  false,
			WaitTime: budget.Cooldown,
			Window:   WindowHour,
			Reason:   "limite por hora atingido",
		}
	}

	if len(b.timestamps) >= budget.RequestsPerDay {
		midnight := nextLocalMidnight(now)
		b.blockedUntil = midnight
		l.logger.Warn("daily budget exhausted, blocked until midnight",
			logging.String("tribunal", code),
			logging.Time("blocked_until", midnight))
		return Decision{
			Allowed:  false,
			WaitTime: midnight.Sub(now),
			Window:   WindowDay,
			Reason:   "limite diário atingido",
		}
	}

	b.timestamps = append(b.timestamps, now)
	return Decision{Allowed: true}
}

// Usage reports the current window counts for a tribunal without recording
// a request.  Used by the statistics endpoint.
type Usage struct {
	LastMinute   int           `json:"last_minute"`
	LastHour     int           `json:"last_hour"`
	LastDay      int           `json:"last_day"`
	BlockedFor   time.Duration `json:"blocked_for,omitempty"`
	BlockedUntil *time.Time    `json:"blocked_until,omitempty"`
}

// GetUsage returns the usage snapshot for one tribunal code.
func (l *Limiter) GetUsage(code string) Usage {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[code]
	if !ok {
		return Usage{}
	}
	b.prune(now)

	u := Usage{
		LastMinute: b.countSince(now.Add(-time.Minute)),
		LastHour:   b.countSince(now.Add(-time.Hour)),
		LastDay:    len(b.timestamps),
	}
	if now.Before(b.blockedUntil) {
		until := b.blockedUntil
		u.BlockedFor = until.Sub(now)
		u.BlockedUntil = &until
	}
	return u
}

// Sweep prunes stale timestamps and drops buckets that are empty with no
// active cooldown.  Returns the number of buckets removed.
func (l *Limiter) Sweep() int {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for code, b := range l.buckets {
		b.prune(now)
		if !now.Before(b.blockedUntil) {
			b.blockedUntil = time.Time{}
		}
		if len(b.timestamps) == 0 && b.blockedUntil.IsZero() {
			delete(l.buckets, code)
			removed++
		}
	}
	return removed
}

// Run executes Sweep on the given interval until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				l.logger.Debug("rate limit sweep", logging.Int("buckets_removed", removed))
			}
		}
	}
}

// prune discards timestamps older than the 24h day window.
func (b *bucket) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	i := 0
	for i < len(b.timestamps) && !b.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.timestamps = append(b.timestamps[:0], b.timestamps[i:]...)
	}
}

// countSince counts timestamps strictly after the cutoff.  Timestamps are
// ordered, so scan from the tail.
func (b *bucket) countSince(cutoff time.Time) int {
	n := 0
	for i := len(b.timestamps) - 1; i >= 0; i-- {
		if !b.timestamps[i].After(cutoff) {
			break
		}
		n++
	}
	return n
}

// nextLocalMidnight returns 00:00 of the following day in now's location.
func nextLocalMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
