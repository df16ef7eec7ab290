package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/pkg/errors"
)

// ProcessHandler serves on-demand queries, number validation, and the
// monitored-process listing.
type ProcessHandler struct {
	service Service
}

// NewProcessHandler constructs the handler.
func NewProcessHandler(service Service) *ProcessHandler {
	return &ProcessHandler{service: service}
}

type queryRequest struct {
	ProcessNumber string `json:"process_number" binding:"required"`
}

// Query runs one on-demand movement query.
// POST /api/v1/processes/query
func (h *ProcessHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.ErrCodeBadRequest, "corpo da requisição inválido").WithCause(err))
		return
	}

	result := h.service.QueryMovements(c.Request.Context(), req.ProcessNumber)
	status := http.StatusOK
	if !result.Success {
		status = errors.HTTPStatusForCode(errors.ErrorCode(result.ErrorCode))
	}
	c.JSON(status, result)
}

// Validate checks a CNJ number without side effects.
// POST /api/v1/processes/validate
func (h *ProcessHandler) Validate(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.ErrCodeBadRequest, "corpo da requisição inválido").WithCause(err))
		return
	}
	c.JSON(http.StatusOK, h.service.ValidateNumber(req.ProcessNumber))
}

// List pages through the monitored process records.
// GET /api/v1/processes
func (h *ProcessHandler) List(c *gin.Context) {
	page := pagination(c)
	processes, total, err := h.service.ListProcesses(c.Request.Context(), page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	page.Total = int64(total)
	c.JSON(http.StatusOK, gin.H{
		"processes":  processes,
		"pagination": page,
	})
}
