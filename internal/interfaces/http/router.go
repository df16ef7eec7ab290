// Package http assembles the REST interface: router, middleware, and the
// lifecycle of the underlying server.
package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/prometheus"
	"github.com/vigiajus/vigiajus/internal/interfaces/http/handlers"
	"github.com/vigiajus/vigiajus/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Service        handlers.Service
	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler nethttp.Handler
	HealthCheckers map[string]handlers.HealthChecker
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg config.ServerConfig, deps RouterDeps) *gin.Engine {
	gin.SetMode(ginMode(cfg.Mode))

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(middleware.RequestLogging(deps.Logger))
	}
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	processes := handlers.NewProcessHandler(deps.Service)
	monitoring := handlers.NewMonitoringHandler(deps.Service)
	novelties := handlers.NewNoveltyHandler(deps.Service)
	tribunals := handlers.NewTribunalHandler(deps.Service)
	system := handlers.NewSystemHandler(deps.Service, deps.HealthCheckers)

	router.GET("/healthz", system.Health)
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/processes/query", processes.Query)
		v1.POST("/processes/validate", processes.Validate)
		v1.GET("/processes", processes.List)
		v1.POST("/processes/:id/novelties/read", novelties.MarkProcessRead)

		v1.POST("/monitoring", monitoring.Start)
		v1.POST("/monitoring/stop", monitoring.Stop)
		v1.GET("/schedules", monitoring.ListSchedules)
		v1.POST("/schedules/:id/pause", monitoring.Pause)
		v1.POST("/schedules/:id/resume", monitoring.Resume)

		v1.GET("/novelties", novelties.ListUnread)
		v1.POST("/novelties/read", novelties.MarkRead)

		v1.GET("/tribunals", tribunals.List)
		v1.PATCH("/tribunals/:code", tribunals.Update)
		v1.GET("/tribunals/:code/usage", tribunals.Usage)

		v1.GET("/stats", system.Stats)
		v1.POST("/cleanup", system.Cleanup)
	}

	return router
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
