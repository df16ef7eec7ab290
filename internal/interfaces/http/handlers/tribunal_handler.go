package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// TribunalHandler serves the tribunal registry and rate-limit usage.
type TribunalHandler struct {
	service Service
}

// NewTribunalHandler constructs the handler.
func NewTribunalHandler(service Service) *TribunalHandler {
	return &TribunalHandler{service: service}
}

// List returns the registered tribunals, optionally filtered by segment.
// GET /api/v1/tribunals?segment=8
func (h *TribunalHandler) List(c *gin.Context) {
	if seg := c.Query("segment"); seg != "" {
		segment, err := strconv.Atoi(seg)
		if err != nil {
			abortWithError(c, errors.Newf(errors.ErrCodeBadRequest, "segmento inválido: %q", seg))
			return
		}
		configs := h.service.GetTribunalsBySegment(segment)
		c.JSON(http.StatusOK, gin.H{"tribunals": configs, "count": len(configs)})
		return
	}

	configs := h.service.GetAvailableTribunals()
	c.JSON(http.StatusOK, gin.H{"tribunals": configs, "count": len(configs)})
}

// Update patches one tribunal's registry entry.
// PATCH /api/v1/tribunals/:code
func (h *TribunalHandler) Update(c *gin.Context) {
	var patch tribunal.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, errors.New(errors.ErrCodeBadRequest, "corpo da requisição inválido").WithCause(err))
		return
	}

	cfg, err := h.service.UpdateTribunalConfig(c.Param("code"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Usage reports the rate limiter's window counts for one tribunal.
// GET /api/v1/tribunals/:code/usage
func (h *TribunalHandler) Usage(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetRateLimitUsage(c.Param("code")))
}
