package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "vigiajus"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "vigia:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultNoveltyTopic = "novelty.created"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "vigia-snapshots"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMemoryBudgetBytes = 64 << 20 // 64 MiB
	DefaultCacheTTL          = 30 * time.Minute
	DefaultEvictTargetRatio  = 0.75

	DefaultNoveltyTTL        = 48 * time.Hour
	DefaultMaxPerProcess     = 50
	DefaultSweepInterval     = 15 * time.Minute
	DefaultTickInterval      = 5 * time.Minute
	DefaultInterExecDelay    = 2 * time.Second
	DefaultMaxRetries        = 3
	DefaultFrequencyHours    = 4.0
	DefaultHistorySize       = 1000
	DefaultRequeueDelay      = 5 * time.Minute
	DefaultQueryTimeout      = 30 * time.Second
	DefaultCleanupInterval   = time.Hour
	DefaultLogRetention      = 30 * 24 * time.Hour
	DefaultCleanupHistory    = 50
)

// defaultClassBudgets are the per-tribunal-class request budgets applied
// when the configuration does not override them.  Superior courts are
// polled conservatively; state courts tolerate a higher request rate.
func defaultClassBudgets() map[string]BudgetConfig {
	return map[string]BudgetConfig{
		"superior":  {RequestsPerMinute: 3, RequestsPerHour: 30, RequestsPerDay: 200, Cooldown: 30 * time.Minute},
		"federal":   {RequestsPerMinute: 4, RequestsPerHour: 40, RequestsPerDay: 300, Cooldown: 20 * time.Minute},
		"state":     {RequestsPerMinute: 6, RequestsPerHour: 50, RequestsPerDay: 500, Cooldown: 15 * time.Minute},
		"labor":     {RequestsPerMinute: 5, RequestsPerHour: 40, RequestsPerDay: 400, Cooldown: 15 * time.Minute},
		"electoral": {RequestsPerMinute: 4, RequestsPerHour: 30, RequestsPerDay: 200, Cooldown: 20 * time.Minute},
		"military":  {RequestsPerMinute: 3, RequestsPerHour: 20, RequestsPerDay: 100, Cooldown: 30 * time.Minute},
	}
}

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so that
// explicit configuration always wins.  Must be called after unmarshalling
// and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.NoveltyTopic == "" {
		cfg.Kafka.NoveltyTopic = DefaultNoveltyTopic
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}

	// MinIO
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// Rate limiter
	if cfg.RateLimit.ClassBudgets == nil {
		cfg.RateLimit.ClassBudgets = defaultClassBudgets()
	} else {
		for class, budget := range defaultClassBudgets() {
			if _, ok := cfg.RateLimit.ClassBudgets[class]; !ok {
				cfg.RateLimit.ClassBudgets[class] = budget
			}
		}
	}
	if cfg.RateLimit.SweepInterval == 0 {
		cfg.RateLimit.SweepInterval = DefaultSweepInterval
	}

	// Cache
	if cfg.Cache.MemoryBudgetBytes == 0 {
		cfg.Cache.MemoryBudgetBytes = DefaultMemoryBudgetBytes
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheTTL
	}
	if cfg.Cache.EvictTargetRatio == 0 {
		cfg.Cache.EvictTargetRatio = DefaultEvictTargetRatio
	}

	// Novelty
	if cfg.Novelty.TTL == 0 {
		cfg.Novelty.TTL = DefaultNoveltyTTL
	}
	if cfg.Novelty.MaxPerProcess == 0 {
		cfg.Novelty.MaxPerProcess = DefaultMaxPerProcess
	}

	// Scheduler
	if cfg.Scheduler.TickInterval == 0 {
		cfg.Scheduler.TickInterval = DefaultTickInterval
	}
	if cfg.Scheduler.InterExecutionDelay == 0 {
		cfg.Scheduler.InterExecutionDelay = DefaultInterExecDelay
	}
	if cfg.Scheduler.MaxRetries == 0 {
		cfg.Scheduler.MaxRetries = DefaultMaxRetries
	}
	if cfg.Scheduler.DefaultFrequencyHours == 0 {
		cfg.Scheduler.DefaultFrequencyHours = DefaultFrequencyHours
	}
	if cfg.Scheduler.HistorySize == 0 {
		cfg.Scheduler.HistorySize = DefaultHistorySize
	}
	if cfg.Scheduler.RateLimitRequeueDelay == 0 {
		cfg.Scheduler.RateLimitRequeueDelay = DefaultRequeueDelay
	}

	// Query
	if cfg.Query.Timeout == 0 {
		cfg.Query.Timeout = DefaultQueryTimeout
	}
	if cfg.Query.CacheTTL == 0 {
		cfg.Query.CacheTTL = DefaultCacheTTL
	}

	// Cleanup
	if cfg.Cleanup.Interval == 0 {
		cfg.Cleanup.Interval = DefaultCleanupInterval
	}
	if cfg.Cleanup.LogRetention == 0 {
		cfg.Cleanup.LogRetention = DefaultLogRetention
	}
	if cfg.Cleanup.HistorySize == 0 {
		cfg.Cleanup.HistorySize = DefaultCleanupHistory
	}
}
