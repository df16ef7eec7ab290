package main

import (
	"context"
	nethttp "net/http"

	"github.com/vigiajus/vigiajus/internal/application/monitor"
	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/ratelimit"
	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/internal/infrastructure/database/postgres"
	"github.com/vigiajus/vigiajus/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/vigiajus/vigiajus/internal/infrastructure/database/redis"
	kafkapub "github.com/vigiajus/vigiajus/internal/infrastructure/messaging/kafka"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/prometheus"
	"github.com/vigiajus/vigiajus/internal/infrastructure/sources"
	miniostore "github.com/vigiajus/vigiajus/internal/infrastructure/storage/minio"
	"github.com/vigiajus/vigiajus/internal/interfaces/http/handlers"
	"github.com/vigiajus/vigiajus/pkg/clock"
)

// engine aggregates the wired components and the infrastructure handles
// that need closing on shutdown.
type engine struct {
	cfg    *config.Config
	logger logging.Logger

	db    *postgres.Connection
	redis *redisclient.Client
	kafka *kafkapub.Publisher

	metricsHandler nethttp.Handler
	appMetrics     *prometheus.AppMetrics

	rules   *novelty.RuleSet
	service *monitor.Service

	healthCheckers map[string]handlers.HealthChecker
}

// buildEngine assembles the full monitoring engine from configuration.
// Optional infrastructure (Redis tier, Kafka publisher, MinIO archive) is
// wired only when configured; the engine degrades to in-memory behavior
// without them.
func buildEngine(ctx context.Context, cfg *config.Config, logger logging.Logger) (*engine, error) {
	e := &engine{
		cfg:            cfg,
		logger:         logger,
		healthCheckers: make(map[string]handlers.HealthChecker),
	}

	if cfg.Database.MigrationPath != "" {
		if err := postgres.RunMigrations(postgres.DSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
			return nil, err
		}
	}

	db, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	e.db = db
	e.healthCheckers["postgres"] = db.HealthCheck

	processRepo := repositories.NewProcessRepository(db.Pool(), logger)
	movementRepo := repositories.NewMovementRepository(db.Pool(), logger)
	queryLogRepo := repositories.NewQueryLogRepository(db.Pool(), logger)
	noveltyRepo := repositories.NewNoveltyRepository(db.Pool(), logger)
	maintenance := repositories.NewMaintenance(db.Pool(), logger)

	cacheOpts := []cache.Option{}
	if cfg.Redis.Addr != "" {
		rc, err := redisclient.NewClient(cfg.Redis, logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.redis = rc
		e.healthCheckers["redis"] = rc.Ping
		cacheOpts = append(cacheOpts, cache.WithStore(
			redisclient.NewCacheStore(rc, cfg.Redis.KeyPrefix, logger)))
	}
	cacheLayer := cache.NewLayer(cfg.Cache.MemoryBudgetBytes, cfg.Cache.EvictTargetRatio, logger, cacheOpts...)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "vigiajus",
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}, logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.metricsHandler = collector.Handler()
	e.appMetrics = prometheus.NewAppMetrics(collector)

	parser := cnj.NewParser(clock.System())
	registry := tribunal.NewRegistry(parser)
	limiter := ratelimit.NewLimiter(
		tribunal.NewBudgetResolver(registry, cfg.RateLimit).Resolve,
		clock.System(), logger)

	e.rules = novelty.NewRuleSet(logger)
	if cfg.Novelty.RulesPath != "" {
		if err := e.rules.LoadFile(cfg.Novelty.RulesPath); err != nil {
			e.Close()
			return nil, err
		}
	}

	detectorOpts := []novelty.DetectorOption{}
	if cfg.Kafka.Enabled {
		e.kafka = kafkapub.NewPublisher(cfg.Kafka, logger)
		detectorOpts = append(detectorOpts, novelty.WithPublisher(e.kafka))
	}
	detector := novelty.NewDetector(noveltyRepo, e.rules,
		cfg.Novelty.TTL, cfg.Novelty.MaxPerProcess, logger, detectorOpts...)

	executors := domproc.NewExecutorRegistry()
	executors.SetFallback(sources.NewHTTPExecutor(registry, cfg.Query.Timeout, logger))

	orchestratorOpts := []monitor.OrchestratorOption{monitor.WithMetrics(e.appMetrics)}
	if cfg.MinIO.Enabled {
		archive, err := miniostore.NewArchive(ctx, cfg.MinIO, logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		orchestratorOpts = append(orchestratorOpts, monitor.WithSnapshotArchive(archive))
	}
	orchestrator := monitor.NewOrchestrator(registry, limiter, cacheLayer, detector, executors,
		processRepo, movementRepo, queryLogRepo, cfg.Query, logger, orchestratorOpts...)

	scheduler := schedule.NewScheduler(
		monitor.NewScheduleExecutor(orchestrator, e.appMetrics, clock.System()),
		cfg.Scheduler, logger)

	cleanup := monitor.NewCleanupJob(detector, cacheLayer, queryLogRepo, cfg.Cleanup, logger,
		monitor.WithMaintainer(maintenance),
		monitor.WithCleanupMetrics(e.appMetrics))

	e.service = monitor.NewService(parser, registry, orchestrator, detector, scheduler,
		limiter, cacheLayer, cleanup, processRepo, queryLogRepo, cfg.RateLimit, logger)

	return e, nil
}

// start launches the background loops and, when configured, the priority
// rule file watcher.
func (e *engine) start(ctx context.Context) {
	e.service.Start(ctx)
	if e.cfg.Novelty.RulesPath != "" {
		go func() {
			if err := e.rules.Watch(ctx, e.cfg.Novelty.RulesPath); err != nil {
				e.logger.Warn("rule file watch unavailable", logging.Err(err))
			}
		}()
	}
}

// Close releases infrastructure handles in reverse acquisition order.
func (e *engine) Close() {
	if e.kafka != nil {
		if err := e.kafka.Close(); err != nil {
			e.logger.Warn("kafka publisher close failed", logging.Err(err))
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if e.db != nil {
		e.db.Close()
	}
}
