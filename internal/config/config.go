// Package config defines all configuration structures for the VigiaJus
// monitoring engine.  No I/O or parsing logic lives here, only plain data
// types and validation.  Numeric thresholds (request budgets, TTLs, caps,
// priority multipliers) are deliberately configuration rather than code
// constants; the defaults in defaults.go mirror the budgets observed in
// production but carry no contractual weight.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the persistent cache tier.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the novelty event publisher parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	NoveltyTopic string        `mapstructure:"novelty_topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Enabled      bool          `mapstructure:"enabled"`
}

// MinIOConfig holds the snapshot archive parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Enabled   bool   `mapstructure:"enabled"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// BudgetConfig is one tribunal request budget: three sliding windows plus
// the cooldown applied when the hourly window is exhausted.
type BudgetConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RequestsPerHour   int           `mapstructure:"requests_per_hour"`
	RequestsPerDay    int           `mapstructure:"requests_per_day"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
}

// RateLimitConfig holds per-tribunal-class default budgets, per-tribunal
// overrides, and the background sweep interval.
type RateLimitConfig struct {
	// ClassBudgets is keyed by tribunal class ("superior", "federal",
	// "state", "labor", "electoral", "military").
	ClassBudgets map[string]BudgetConfig `mapstructure:"class_budgets"`

	// Overrides is keyed by tribunal code (e.g. "8.26") and wins over the
	// class default.
	Overrides map[string]BudgetConfig `mapstructure:"overrides"`

	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CacheConfig holds the two-tier result cache parameters.
type CacheConfig struct {
	MemoryBudgetBytes int64         `mapstructure:"memory_budget_bytes"`
	DefaultTTL        time.Duration `mapstructure:"default_ttl"`

	// EvictTargetRatio is the fraction of the memory budget usage is reduced
	// to when an insert would overflow it.
	EvictTargetRatio float64 `mapstructure:"evict_target_ratio"`
}

// NoveltyConfig holds novelty detection parameters.
type NoveltyConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	MaxPerProcess int           `mapstructure:"max_per_process"`

	// RulesPath points to the YAML priority-rule file.  Empty means the
	// built-in defaults are used and hot reload is disabled.
	RulesPath string `mapstructure:"rules_path"`
}

// SchedulerConfig holds polling scheduler parameters.
type SchedulerConfig struct {
	TickInterval          time.Duration `mapstructure:"tick_interval"`
	InterExecutionDelay   time.Duration `mapstructure:"inter_execution_delay"`
	MaxRetries            int           `mapstructure:"max_retries"`
	DefaultFrequencyHours float64       `mapstructure:"default_frequency_hours"`
	HistorySize           int           `mapstructure:"history_size"`

	// RateLimitRequeueDelay is used when a denial carries no wait hint.
	RateLimitRequeueDelay time.Duration `mapstructure:"rate_limit_requeue_delay"`
}

// QueryConfig holds orchestrator-level query parameters.
type QueryConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// CleanupConfig holds the periodic cleanup job parameters.
type CleanupConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	LogRetention time.Duration `mapstructure:"log_retention"`
	HistorySize  int           `mapstructure:"history_size"`
}

// Config is the root configuration structure for the engine.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Novelty   NoveltyConfig   `mapstructure:"novelty"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Query     QueryConfig     `mapstructure:"query"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Cache.MemoryBudgetBytes <= 0 {
		return fmt.Errorf("config: cache.memory_budget_bytes must be positive")
	}
	if c.Cache.EvictTargetRatio <= 0 || c.Cache.EvictTargetRatio > 1 {
		return fmt.Errorf("config: cache.evict_target_ratio %v is out of range (0, 1]", c.Cache.EvictTargetRatio)
	}

	if c.Novelty.TTL <= 0 {
		return fmt.Errorf("config: novelty.ttl must be positive")
	}
	if c.Novelty.MaxPerProcess <= 0 {
		return fmt.Errorf("config: novelty.max_per_process must be positive")
	}

	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("config: scheduler.tick_interval must be positive")
	}
	if c.Scheduler.MaxRetries < 1 {
		return fmt.Errorf("config: scheduler.max_retries must be at least 1")
	}
	if c.Scheduler.DefaultFrequencyHours <= 0 {
		return fmt.Errorf("config: scheduler.default_frequency_hours must be positive")
	}

	if c.Query.Timeout <= 0 {
		return fmt.Errorf("config: query.timeout must be positive")
	}

	for class, b := range c.RateLimit.ClassBudgets {
		if err := validateBudget(class, b); err != nil {
			return err
		}
	}
	for code, b := range c.RateLimit.Overrides {
		if err := validateBudget(code, b); err != nil {
			return err
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka enabled but no brokers configured")
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio enabled but no endpoint configured")
	}

	return nil
}

func validateBudget(key string, b BudgetConfig) error {
	if b.RequestsPerMinute <= 0 || b.RequestsPerHour <= 0 || b.RequestsPerDay <= 0 {
		return fmt.Errorf("config: rate_limit budget %q has non-positive window counts", key)
	}
	if b.RequestsPerMinute > b.RequestsPerHour || b.RequestsPerHour > b.RequestsPerDay {
		return fmt.Errorf("config: rate_limit budget %q windows must be non-decreasing (minute <= hour <= day)", key)
	}
	return nil
}
