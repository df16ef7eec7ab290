package http

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
)

// Server runs the REST interface.
type Server struct {
	srv    *nethttp.Server
	cfg    config.ServerConfig
	logger logging.Logger
}

// NewServer wraps the router in an http.Server configured from cfg.
func NewServer(cfg config.ServerConfig, deps RouterDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		srv: &nethttp.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(cfg, deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logging.Int("port", s.cfg.Port))
	if err := s.srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
