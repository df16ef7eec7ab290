package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports the liveness of one dependency.
type HealthChecker func(ctx context.Context) error

// SystemHandler serves statistics, cleanup, and health.
type SystemHandler struct {
	service  Service
	checkers map[string]HealthChecker
}

// NewSystemHandler constructs the handler.  checkers maps dependency names
// ("postgres", "redis") to their ping functions; nil is allowed.
func NewSystemHandler(service Service, checkers map[string]HealthChecker) *SystemHandler {
	return &SystemHandler{service: service, checkers: checkers}
}

// Stats returns the operational statistics snapshot.
// GET /api/v1/stats
func (h *SystemHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Cleanup triggers a full cleanup pass immediately.
// POST /api/v1/cleanup
func (h *SystemHandler) Cleanup(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.RunSystemCleanup(c.Request.Context()))
}

// Health pings every registered dependency.
// GET /healthz
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checkers))
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	c.JSON(status, body)
}
