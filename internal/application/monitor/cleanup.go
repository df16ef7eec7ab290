package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/prometheus"
	"github.com/vigiajus/vigiajus/pkg/clock"
)

// Maintainer is an optional hook for persistence-layer maintenance
// (vacuum, partition drops) run at the end of each cleanup pass.
type Maintainer interface {
	RunMaintenance(ctx context.Context) error
}

// CleanupResult is the structured outcome of one cleanup run.
type CleanupResult struct {
	NoveltiesExpired int           `json:"novelties_expired"`
	CacheEvicted     int           `json:"cache_evicted"`
	LogsPurged       int           `json:"logs_purged"`
	Duration         time.Duration `json:"duration"`
	RanAt            time.Time     `json:"ran_at"`
	Errors           []string      `json:"errors,omitempty"`
}

// CleanupJob sweeps expired novelties, expired cache entries, and old
// query logs on a fixed interval, keeping a bounded run history.
type CleanupJob struct {
	detector *novelty.Detector
	cache    *cache.Layer
	logs     domproc.QueryLogRepository

	maintainer Maintainer
	metrics    *prometheus.AppMetrics

	cfg    config.CleanupConfig
	clk    clock.Clock
	logger logging.Logger

	mu      sync.Mutex
	history []CleanupResult
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// CleanupOption configures optional collaborators.
type CleanupOption func(*CleanupJob)

// WithMaintainer attaches the persistence maintenance hook.
func WithMaintainer(m Maintainer) CleanupOption {
	return func(j *CleanupJob) { j.maintainer = m }
}

// WithCleanupMetrics attaches the metrics sink.
func WithCleanupMetrics(m *prometheus.AppMetrics) CleanupOption {
	return func(j *CleanupJob) { j.metrics = m }
}

// WithCleanupClock overrides the clock, for tests.
func WithCleanupClock(c clock.Clock) CleanupOption {
	return func(j *CleanupJob) { j.clk = c }
}

// NewCleanupJob wires the job.  cacheLayer may be nil when caching is
// disabled.
func NewCleanupJob(detector *novelty.Detector, cacheLayer *cache.Layer, logs domproc.QueryLogRepository, cfg config.CleanupConfig, logger logging.Logger, opts ...CleanupOption) *CleanupJob {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	j := &CleanupJob{
		detector: detector,
		cache:    cacheLayer,
		logs:     logs,
		cfg:      cfg,
		clk:      clock.System(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start launches the periodic loop.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})
	j.mu.Unlock()

	go j.run(loopCtx)
	j.logger.Info("cleanup job started", logging.Duration("interval", j.cfg.Interval))
}

// Stop halts the loop and waits for an in-flight run to finish.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	cancel, done := j.cancel, j.done
	j.mu.Unlock()

	cancel()
	<-done
}

func (j *CleanupJob) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunNow(ctx)
		}
	}
}

// RunNow executes one cleanup pass immediately, bypassing the timer.
func (j *CleanupJob) RunNow(ctx context.Context) CleanupResult {
	start := j.clk.Now()
	result := CleanupResult{RanAt: start}

	expired, err := j.detector.RemoveExpired(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "novelties: "+err.Error())
	} else {
		result.NoveltiesExpired = expired
		if j.metrics != nil && expired > 0 {
			j.metrics.NoveltiesExpired.WithLabelValues().Add(float64(expired))
		}
	}

	if j.cache != nil {
		result.CacheEvicted = j.cache.Cleanup(ctx)
	}

	purged, err := j.logs.DeleteOlderThan(ctx, start.Add(-j.cfg.LogRetention))
	if err != nil {
		result.Errors = append(result.Errors, "logs: "+err.Error())
	} else {
		result.LogsPurged = purged
	}

	if j.maintainer != nil {
		if err := j.maintainer.RunMaintenance(ctx); err != nil {
			result.Errors = append(result.Errors, "maintenance: "+err.Error())
		}
	}

	result.Duration = j.clk.Now().Sub(start)
	j.record(result)

	if j.metrics != nil {
		outcome := "success"
		if len(result.Errors) > 0 {
			outcome = "partial"
		}
		j.metrics.CleanupRuns.WithLabelValues(outcome).Inc()
		j.metrics.CleanupDuration.WithLabelValues().Observe(result.Duration.Seconds())
	}

	j.logger.Info("cleanup run finished",
		logging.Int("novelties_expired", result.NoveltiesExpired),
		logging.Int("cache_evicted", result.CacheEvicted),
		logging.Int("logs_purged", result.LogsPurged),
		logging.Duration("duration", result.Duration))
	return result
}

// History returns the retained run results, most recent first.
func (j *CleanupJob) History() []CleanupResult {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]CleanupResult, len(j.history))
	for i, r := range j.history {
		out[len(j.history)-1-i] = r
	}
	return out
}

func (j *CleanupJob) record(r CleanupResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.history = append(j.history, r)
	if max := j.cfg.HistorySize; max > 0 && len(j.history) > max {
		j.history = j.history[len(j.history)-max:]
	}
}
