// The apiserver binary runs the VigiaJus REST API together with the
// polling scheduler, the cleanup job, and the rate-limit sweeper.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	httpserver "github.com/vigiajus/vigiajus/internal/interfaces/http"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if *port > 0 {
		cfg.Server.Port = *port
	}

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
	logger.Info("starting vigiajus api server", logging.Int("port", cfg.Server.Port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("engine initialization failed", logging.Err(err))
		os.Exit(1)
	}
	defer eng.Close()

	eng.start(ctx)

	srv := httpserver.NewServer(cfg.Server, httpserver.RouterDeps{
		Service:        eng.service,
		Logger:         logger,
		Metrics:        eng.appMetrics,
		MetricsHandler: eng.metricsHandler,
		HealthCheckers: eng.healthCheckers,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", logging.Err(err))
		}
	}

	eng.service.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	cancel()

	logger.Info("vigiajus api server stopped")
}
