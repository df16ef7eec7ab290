package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// MonitoringHandler manages scheduled polling of processes.
type MonitoringHandler struct {
	service Service
}

// NewMonitoringHandler constructs the handler.
func NewMonitoringHandler(service Service) *MonitoringHandler {
	return &MonitoringHandler{service: service}
}

type startMonitoringRequest struct {
	ProcessNumber  string  `json:"process_number" binding:"required"`
	FrequencyHours float64 `json:"frequency_hours"`
	Priority       string  `json:"priority"`
}

// Start places a process under scheduled polling.
// POST /api/v1/monitoring
func (h *MonitoringHandler) Start(c *gin.Context) {
	var req startMonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.ErrCodeBadRequest, "corpo da requisição inválido").WithCause(err))
		return
	}

	priority := common.Priority(req.Priority)
	if req.Priority != "" && !priority.Valid() {
		abortWithError(c, errors.Newf(errors.ErrCodeBadRequest, "prioridade inválida: %q", req.Priority))
		return
	}

	entry, err := h.service.StartMonitoring(c.Request.Context(), req.ProcessNumber, req.FrequencyHours, priority)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type stopMonitoringRequest struct {
	ProcessNumber string `json:"process_number" binding:"required"`
}

// Stop removes a process's schedule and deactivates the record.
// POST /api/v1/monitoring/stop
func (h *MonitoringHandler) Stop(c *gin.Context) {
	var req stopMonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.ErrCodeBadRequest, "corpo da requisição inválido").WithCause(err))
		return
	}
	if err := h.service.StopMonitoring(c.Request.Context(), req.ProcessNumber); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSchedules returns every schedule entry.
// GET /api/v1/schedules
func (h *MonitoringHandler) ListSchedules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schedules": h.service.ListSchedules()})
}

// Pause suspends one schedule.
// POST /api/v1/schedules/:id/pause
func (h *MonitoringHandler) Pause(c *gin.Context) {
	if err := h.service.PauseMonitoring(common.ID(c.Param("id"))); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Resume reactivates a paused schedule.
// POST /api/v1/schedules/:id/resume
func (h *MonitoringHandler) Resume(c *gin.Context) {
	if err := h.service.ResumeMonitoring(common.ID(c.Param("id"))); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
