package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// NoveltyHandler serves the unread-novelty feed and read marking.
type NoveltyHandler struct {
	service Service
}

// NewNoveltyHandler constructs the handler.
func NewNoveltyHandler(service Service) *NoveltyHandler {
	return &NoveltyHandler{service: service}
}

// ListUnread returns unread novelties ordered by priority.
// GET /api/v1/novelties?limit=50
func (h *NoveltyHandler) ListUnread(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	novelties, err := h.service.GetUnreadNovelties(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"novelties": novelties, "count": len(novelties)})
}

type markReadRequest struct {
	IDs []common.ID `json:"ids" binding:"required"`
}

// MarkRead flags the given novelties as read.
// POST /api/v1/novelties/read
func (h *NoveltyHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.ErrCodeBadRequest, "corpo da requisição inválido").WithCause(err))
		return
	}

	marked, err := h.service.MarkNoveltiesAsRead(c.Request.Context(), req.IDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// MarkProcessRead flags every novelty of one process as read.
// POST /api/v1/processes/:id/novelties/read
func (h *NoveltyHandler) MarkProcessRead(c *gin.Context) {
	marked, err := h.service.MarkProcessNoveltiesAsRead(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}
