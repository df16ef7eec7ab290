// Package handlers implements the REST endpoints of the monitoring engine.
// Handlers depend on the application facade through the Service interface
// and translate AppError codes to HTTP statuses.
package handlers

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/internal/application/monitor"
	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/ratelimit"
	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// Service is the slice of the application facade the REST layer consumes.
// *monitor.Service satisfies it.
type Service interface {
	QueryMovements(ctx context.Context, processNumber string) *ptypes.MovementQueryResult
	ValidateNumber(processNumber string) cnj.ValidationResult

	GetAvailableTribunals() []*tribunal.Config
	GetTribunalsBySegment(segment int) []*tribunal.Config
	UpdateTribunalConfig(code string, patch tribunal.ConfigPatch) (*tribunal.Config, error)
	GetRateLimitUsage(code string) ratelimit.Usage

	StartMonitoring(ctx context.Context, processNumber string, frequencyHours float64, priority common.Priority) (*schedule.Entry, error)
	StopMonitoring(ctx context.Context, processNumber string) error
	PauseMonitoring(entryID common.ID) error
	ResumeMonitoring(entryID common.ID) error
	ListSchedules() []*schedule.Entry
	ListProcesses(ctx context.Context, page common.Pagination) ([]*domproc.MonitoredProcess, int, error)

	GetUnreadNovelties(ctx context.Context, limit int) ([]*novelty.Novelty, error)
	MarkNoveltiesAsRead(ctx context.Context, ids []common.ID) (int, error)
	MarkProcessNoveltiesAsRead(ctx context.Context, processID common.ID) (int, error)

	RunSystemCleanup(ctx context.Context) monitor.CleanupResult
	GetStats(ctx context.Context) (*monitor.SystemStats, error)
}

var _ Service = (*monitor.Service)(nil)

// errorBody is the standard error response payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// abortWithError writes a structured error response using the AppError code
// to pick the HTTP status.
func abortWithError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	body := errorBody{Code: code.String(), Message: err.Error()}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	}
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), body)
}

// pagination reads page/page_size query parameters with the usual bounds.
func pagination(c *gin.Context) common.Pagination {
	page := common.Pagination{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil {
		page.PageSize = v
	}
	page.Normalize()
	return page
}
