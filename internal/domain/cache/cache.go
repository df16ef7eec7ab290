// Package cache implements the two-tier query result cache: a bounded
// in-process memory tier backed by an external persistent store.  The
// memory tier absorbs the scheduler's repeated polling of hot processes;
// the persistent tier survives restarts and is shared between instances.
package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/types/process"
)

// Store is the persistent tier port.  Implementations must treat keys as
// opaque and honor the TTL on their side as well.
type Store interface {
	Get(ctx context.Context, key string) (*process.ProcessQueryResult, error)
	Set(ctx context.Context, key string, result *process.ProcessQueryResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteExpired removes entries past their TTL where the backend does
	// not expire natively.  Returns the number removed.
	DeleteExpired(ctx context.Context) (int, error)
}

// TierStats are the per-tier counters exposed by GetStats.
type TierStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Items   int     `json:"items"`
	Bytes   int64   `json:"bytes"`
}

// Stats aggregates both tiers.
type Stats struct {
	Memory     TierStats `json:"memory"`
	Persistent TierStats `json:"persistent"`
}

type entry struct {
	result      *process.ProcessQueryResult
	size        int64
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int64
}

// Layer is the two-tier cache.  Safe for concurrent use; reads and writes
// for the same key are linearized by the single mutex.
type Layer struct {
	mu         sync.Mutex
	entries    map[string]*entry
	totalBytes int64

	budgetBytes int64
	evictRatio  float64
	store       Store
	clk         clock.Clock
	logger      logging.Logger

	memHits, memMisses   int64
	persHits, persMisses int64
}

// Option configures a Layer.
type Option func(*Layer)

// WithStore attaches the persistent tier.  Without it the layer runs
// memory-only.
func WithStore(s Store) Option {
	return func(l *Layer) { l.store = s }
}

// WithClock overrides the clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(l *Layer) { l.clk = c }
}

// NewLayer builds a cache layer with the given memory budget.  evictRatio
// is the fraction of the budget usage is reduced to when an insert would
// overflow it.
func NewLayer(budgetBytes int64, evictRatio float64, logger logging.Logger, opts ...Option) *Layer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	l := &Layer{
		entries:     make(map[string]*entry),
		budgetBytes: budgetBytes,
		evictRatio:  evictRatio,
		clk:         clock.System(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the cached result for key, or nil on a miss.  Memory hits
// bump the access bookkeeping; persistent hits backfill the memory tier.
// The returned value is a copy the caller may mutate.
func (l *Layer) Get(ctx context.Context, key string) *process.ProcessQueryResult {
	now := l.clk.Now()

	l.mu.Lock()
	if e, ok := l.entries[key]; ok {
		if now.Before(e.expiresAt) {
			e.accessCount++
			e.lastAccess = now
			l.memHits++
			result := copyResult(e.result)
			l.mu.Unlock()
			return result
		}
		// Expired entry: evict and fall through to the persistent tier.
		l.removeLocked(key, e)
	}
	l.memMisses++
	l.mu.Unlock()

	if l.store == nil {
		return nil
	}

	result, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("persistent cache read failed",
			logging.String("key", key), logging.Err(err))
		l.mu.Lock()
		l.persMisses++
		l.mu.Unlock()
		return nil
	}
	if result == nil {
		l.mu.Lock()
		l.persMisses++
		l.mu.Unlock()
		return nil
	}

	l.mu.Lock()
	l.persHits++
	l.mu.Unlock()

	// Backfill memory with a short TTL; the store does not report the
	// remaining lifetime of the entry.
	l.insert(key, result, 5*time.Minute)
	return copyResult(result)
}

// Set writes the result to the memory tier and asynchronously mirrors it
// to the persistent tier.  Persistent failures are logged and never
// surfaced to the caller.
func (l *Layer) Set(ctx context.Context, key string, result *process.ProcessQueryResult, ttl time.Duration) {
	// Both tiers work on a copy; ownership of result stays with the caller,
	// who may mutate it before the background write runs.
	stored := copyResult(result)
	l.insert(key, stored, ttl)

	if l.store == nil {
		return
	}
	go func() {
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := l.store.Set(storeCtx, key, stored, ttl); err != nil {
			l.logger.Warn("persistent cache write failed",
				logging.String("key", key), logging.Err(err))
		}
	}()
}

// Invalidate drops the key from both tiers.
func (l *Layer) Invalidate(ctx context.Context, key string) {
	l.mu.Lock()
	if e, ok := l.entries[key]; ok {
		l.removeLocked(key, e)
	}
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Delete(ctx, key); err != nil {
			l.logger.Warn("persistent cache delete failed",
				logging.String("key", key), logging.Err(err))
		}
	}
}

// Cleanup removes every expired memory entry and delegates expiry to the
// persistent tier.  Returns the number of memory entries removed.
func (l *Layer) Cleanup(ctx context.Context) int {
	now := l.clk.Now()

	l.mu.Lock()
	removed := 0
	for key, e := range l.entries {
		if !now.Before(e.expiresAt) {
			l.removeLocked(key, e)
			removed++
		}
	}
	l.mu.Unlock()

	if l.store != nil {
		if n, err := l.store.DeleteExpired(ctx); err != nil {
			l.logger.Warn("persistent cache cleanup failed", logging.Err(err))
		} else if n > 0 {
			l.logger.Debug("persistent cache expired entries removed", logging.Int("count", n))
		}
	}
	return removed
}

// GetStats returns a snapshot of both tiers' counters.
func (l *Layer) GetStats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		Memory: TierStats{
			Hits:    l.memHits,
			Misses:  l.memMisses,
			HitRate: hitRate(l.memHits, l.memMisses),
			Items:   len(l.entries),
			Bytes:   l.totalBytes,
		},
		Persistent: TierStats{
			Hits:    l.persHits,
			Misses:  l.persMisses,
			HitRate: hitRate(l.persHits, l.persMisses),
		},
	}
}

func (l *Layer) insert(key string, result *process.ProcessQueryResult, ttl time.Duration) {
	size := estimateSize(result)
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.entries[key]; ok {
		l.removeLocked(key, old)
	}

	if l.totalBytes+size > l.budgetBytes {
		l.evictLocked(int64(float64(l.budgetBytes)*l.evictRatio) - size)
	}

	l.entries[key] = &entry{
		result:     result,
		size:       size,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
	l.totalBytes += size
}

// evictLocked removes entries by ascending lastAccess until usage is at or
// below target.
func (l *Layer) evictLocked(target int64) {
	if target < 0 {
		target = 0
	}

	type candidate struct {
		key string
		e   *entry
	}
	candidates := make([]candidate, 0, len(l.entries))
	for k, e := range l.entries {
		candidates = append(candidates, candidate{k, e})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].e.lastAccess.Before(candidates[j].e.lastAccess)
	})

	evicted := 0
	for _, c := range candidates {
		if l.totalBytes <= target {
			break
		}
		l.removeLocked(c.key, c.e)
		evicted++
	}
	if evicted > 0 {
		l.logger.Debug("memory cache eviction",
			logging.Int("evicted", evicted),
			logging.Int64("bytes", l.totalBytes))
	}
}

func (l *Layer) removeLocked(key string, e *entry) {
	delete(l.entries, key)
	l.totalBytes -= e.size
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// estimateSize approximates the memory footprint via the serialized length.
func estimateSize(result *process.ProcessQueryResult) int64 {
	data, err := json.Marshal(result)
	if err != nil {
		return 1024
	}
	return int64(len(data))
}

func copyResult(r *process.ProcessQueryResult) *process.ProcessQueryResult {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Movements != nil {
		clone.Movements = make([]process.Movement, len(r.Movements))
		copy(clone.Movements, r.Movements)
	}
	if r.BasicInfo != nil {
		info := *r.BasicInfo
		clone.BasicInfo = &info
	}
	return &clone
}
