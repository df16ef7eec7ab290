package prometheus

// AppMetrics holds every metric emitted by the monitoring engine, grouped by
// subsystem.  A single instance is created at startup and injected into the
// components that record observations.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Orchestrator
	QueriesTotal  CounterVec   // labels: tribunal, status
	QueryDuration HistogramVec // labels: tribunal

	// Cache layer
	CacheHitsTotal   CounterVec // labels: tier
	CacheMissesTotal CounterVec // labels: tier
	CacheEvictions   CounterVec // labels: reason ("expired" | "budget")
	CacheBytes       GaugeVec   // labels: tier

	// Rate limiter
	RateLimitDenials CounterVec // labels: tribunal, window ("minute"|"hour"|"day"|"cooldown")

	// Novelty detector
	NoveltiesCreated CounterVec // labels: priority
	NoveltiesExpired CounterVec

	// Scheduler
	ScheduleExecutions CounterVec   // labels: status ("success"|"failure"|"rate_limited")
	ScheduleActive     GaugeVec     // labels: priority
	ExecutionDuration  HistogramVec // labels: tribunal

	// Cleanup job
	CleanupRuns     CounterVec // labels: result
	CleanupDuration HistogramVec

	// Event publishing / archiving (best-effort paths)
	EventPublishFailures  CounterVec // labels: topic
	SnapshotArchiveTotal  CounterVec // labels: status
}

// Bucket presets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultQueryDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60}
	DefaultSweepDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60}
)

// NewAppMetrics registers all engine metrics against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	m.QueriesTotal = collector.RegisterCounter("queries_total", "Tribunal movement queries", "tribunal", "status")
	m.QueryDuration = collector.RegisterHistogram("query_duration_seconds", "Tribunal query duration", DefaultQueryDurationBuckets, "tribunal")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits per tier", "tier")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses per tier", "tier")
	m.CacheEvictions = collector.RegisterCounter("cache_evictions_total", "Cache entry evictions", "reason")
	m.CacheBytes = collector.RegisterGauge("cache_bytes", "Approximate cached payload bytes", "tier")

	m.RateLimitDenials = collector.RegisterCounter("rate_limit_denials_total", "Rate limit denials", "tribunal", "window")

	m.NoveltiesCreated = collector.RegisterCounter("novelties_created_total", "Novelties created", "priority")
	m.NoveltiesExpired = collector.RegisterCounter("novelties_expired_total", "Novelties removed after expiry")

	m.ScheduleExecutions = collector.RegisterCounter("schedule_executions_total", "Schedule executions", "status")
	m.ScheduleActive = collector.RegisterGauge("schedule_active", "Active schedule entries", "priority")
	m.ExecutionDuration = collector.RegisterHistogram("schedule_execution_duration_seconds", "Schedule execution duration", DefaultQueryDurationBuckets, "tribunal")

	m.CleanupRuns = collector.RegisterCounter("cleanup_runs_total", "Cleanup job runs", "result")
	m.CleanupDuration = collector.RegisterHistogram("cleanup_duration_seconds", "Cleanup sweep duration", DefaultSweepDurationBuckets)

	m.EventPublishFailures = collector.RegisterCounter("event_publish_failures_total", "Failed event publishes", "topic")
	m.SnapshotArchiveTotal = collector.RegisterCounter("snapshot_archive_total", "Snapshot archive attempts", "status")

	return m
}
