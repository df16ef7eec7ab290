// The monitord binary runs the polling scheduler, the cleanup job, and
// the rate-limit sweeper without the REST interface.  A minimal health
// and metrics listener is exposed for probes and scraping, so monitord
// can be deployed separately from the apiserver and scaled on its own.
package main

import (
	"context"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/vigiajus/vigiajus/pkg/clock"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultProbePort  = 8081
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	probePort := flag.Int("probe-port", defaultProbePort, "health and metrics listener port")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("monitord")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.MigrationPath != "" {
		if err := postgres.RunMigrations(postgres.DSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
			logger.Fatal("migrations failed", logging.Err(err))
		}
	}

	db, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("postgres unavailable", logging.Err(err))
	}
	defer db.Close()

	processRepo := repositories.NewProcessRepository(db.Pool(), logger)
	movementRepo := repositories.NewMovementRepository(db.Pool(), logger)
	queryLogRepo := repositories.NewQueryLogRepository(db.Pool(), logger)
	noveltyRepo := repositories.NewNoveltyRepository(db.Pool(), logger)
	maintenance := repositories.NewMaintenance(db.Pool(), logger)

	cacheOpts := []cache.Option{}
	if cfg.Redis.Addr != "" {
		rc, err := redisclient.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("redis unavailable", logging.Err(err))
		}
		defer rc.Close()
		cacheOpts = append(cacheOpts, cache.WithStore(
			redisclient.NewCacheStore(rc, cfg.Redis.KeyPrefix, logger)))
	}
	cacheLayer := cache.NewLayer(cfg.Cache.MemoryBudgetBytes, cfg.Cache.EvictTargetRatio, logger, cacheOpts...)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "vigiajus",
		Subsystem:            "monitord",
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}, logger)
	if err != nil {
		logger.Fatal("metrics initialization failed", logging.Err(err))
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	parser := cnj.NewParser(clock.System())
	registry := tribunal.NewRegistry(parser)
	limiter := ratelimit.NewLimiter(
		tribunal.NewBudgetResolver(registry, cfg.RateLimit).Resolve,
		clock.System(), logger)

	rules := novelty.NewRuleSet(logger)
	if cfg.Novelty.RulesPath != "" {
		if err := rules.LoadFile(cfg.Novelty.RulesPath); err != nil {
			logger.Fatal("rule file unreadable", logging.Err(err))
		}
		go func() {
			if err := rules.Watch(ctx, cfg.Novelty.RulesPath); err != nil {
				logger.Warn("rule file watch unavailable", logging.Err(err))
			}
		}()
	}

	detectorOpts := []novelty.DetectorOption{}
	if cfg.Kafka.Enabled {
		pub := kafkapub.NewPublisher(cfg.Kafka, logger)
		defer pub.Close()
		detectorOpts = append(detectorOpts, novelty.WithPublisher(pub))
	}
	detector := novelty.NewDetector(noveltyRepo, rules,
		cfg.Novelty.TTL, cfg.Novelty.MaxPerProcess, logger, detectorOpts...)

	executors := domproc.NewExecutorRegistry()
	executors.SetFallback(sources.NewHTTPExecutor(registry, cfg.Query.Timeout, logger))

	orchestratorOpts := []monitor.OrchestratorOption{monitor.WithMetrics(appMetrics)}
	if cfg.MinIO.Enabled {
		archive, err := miniostore.NewArchive(ctx, cfg.MinIO, logger)
		if err != nil {
			logger.Fatal("minio unavailable", logging.Err(err))
		}
		orchestratorOpts = append(orchestratorOpts, monitor.WithSnapshotArchive(archive))
	}
	orchestrator := monitor.NewOrchestrator(registry, limiter, cacheLayer, detector, executors,
		processRepo, movementRepo, queryLogRepo, cfg.Query, logger, orchestratorOpts...)

	scheduler := schedule.NewScheduler(
		monitor.NewScheduleExecutor(orchestrator, appMetrics, clock.System()),
		cfg.Scheduler, logger)

	cleanup := monitor.NewCleanupJob(detector, cacheLayer, queryLogRepo, cfg.Cleanup, logger,
		monitor.WithMaintainer(maintenance),
		monitor.WithCleanupMetrics(appMetrics))

	service := monitor.NewService(parser, registry, orchestrator, detector, scheduler,
		limiter, cacheLayer, cleanup, processRepo, queryLogRepo, cfg.RateLimit, logger)

	service.Start(ctx)
	probeSrv := startProbeServer(*probePort, collector.Handler(), db, logger)

	logger.Info("monitord started", logging.Int("probe_port", *probePort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutdown signal received", logging.String("signal", sig.String()))

	service.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := probeSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("probe server shutdown error", logging.Err(err))
	}

	logger.Info("monitord stopped")
}

// startProbeServer exposes /healthz and /metrics for probes and scraping.
func startProbeServer(port int, metricsHandler nethttp.Handler, db *postgres.Connection, logger logging.Logger) *nethttp.Server {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			fmt.Fprintln(w, "degraded")
			return
		}
		fmt.Fprintln(w, "ok")
	})
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	srv := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			logger.Error("probe server error", logging.Err(err))
		}
	}()
	return srv
}
