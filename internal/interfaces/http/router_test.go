package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigiajus/vigiajus/internal/application/monitor"
	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/ratelimit"
	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/internal/interfaces/http/handlers"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// fakeService scripts the facade responses per test.
type fakeService struct {
	queryResult  *ptypes.MovementQueryResult
	validation   cnj.ValidationResult
	tribunals    []*tribunal.Config
	updateErr    error
	updated      *tribunal.Config
	usage        ratelimit.Usage
	startEntry   *schedule.Entry
	startErr     error
	stopErr      error
	pauseErr     error
	schedules    []*schedule.Entry
	processes    []*domproc.MonitoredProcess
	novelties    []*novelty.Novelty
	marked       int
	cleanup      monitor.CleanupResult
	stats        *monitor.SystemStats
	lastNumber   string
	lastPriority common.Priority
}

func (f *fakeService) QueryMovements(_ context.Context, number string) *ptypes.MovementQueryResult {
	f.lastNumber = number
	return f.queryResult
}

func (f *fakeService) ValidateNumber(string) cnj.ValidationResult { return f.validation }

func (f *fakeService) GetAvailableTribunals() []*tribunal.Config { return f.tribunals }

func (f *fakeService) GetTribunalsBySegment(int) []*tribunal.Config { return f.tribunals }

func (f *fakeService) UpdateTribunalConfig(string, tribunal.ConfigPatch) (*tribunal.Config, error) {
	return f.updated, f.updateErr
}

func (f *fakeService) GetRateLimitUsage(string) ratelimit.Usage { return f.usage }

func (f *fakeService) StartMonitoring(_ context.Context, number string, _ float64, priority common.Priority) (*schedule.Entry, error) {
	f.lastNumber = number
	f.lastPriority = priority
	return f.startEntry, f.startErr
}

func (f *fakeService) StopMonitoring(_ context.Context, number string) error {
	f.lastNumber = number
	return f.stopErr
}

func (f *fakeService) PauseMonitoring(common.ID) error  { return f.pauseErr }
func (f *fakeService) ResumeMonitoring(common.ID) error { return f.pauseErr }
func (f *fakeService) ListSchedules() []*schedule.Entry { return f.schedules }

func (f *fakeService) ListProcesses(context.Context, common.Pagination) ([]*domproc.MonitoredProcess, int, error) {
	return f.processes, len(f.processes), nil
}

func (f *fakeService) GetUnreadNovelties(context.Context, int) ([]*novelty.Novelty, error) {
	return f.novelties, nil
}

func (f *fakeService) MarkNoveltiesAsRead(context.Context, []common.ID) (int, error) {
	return f.marked, nil
}

func (f *fakeService) MarkProcessNoveltiesAsRead(context.Context, common.ID) (int, error) {
	return f.marked, nil
}

func (f *fakeService) RunSystemCleanup(context.Context) monitor.CleanupResult { return f.cleanup }

func (f *fakeService) GetStats(context.Context) (*monitor.SystemStats, error) {
	return f.stats, nil
}

func testRouter(svc handlers.Service, checkers map[string]handlers.HealthChecker) http.Handler {
	return NewRouter(config.ServerConfig{Mode: "test"}, RouterDeps{
		Service:        svc,
		HealthCheckers: checkers,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpointSuccess(t *testing.T) {
	svc := &fakeService{queryResult: &ptypes.MovementQueryResult{
		Success:        true,
		ProcessNumber:  "0000001-45.2024.8.26.0001",
		TotalMovements: 2,
	}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/processes/query",
		map[string]string{"process_number": "0000001-45.2024.8.26.0001"})

	require.Equal(t, http.StatusOK, rec.Code)
	var result ptypes.MovementQueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalMovements)
	assert.Equal(t, "0000001-45.2024.8.26.0001", svc.lastNumber)
}

func TestQueryEndpointFailureMapsStatus(t *testing.T) {
	svc := &fakeService{queryResult: &ptypes.MovementQueryResult{
		Success:      false,
		ErrorCode:    errors.ErrCodeSourceRateLimited.String(),
		ErrorMessage: "fonte limitou a requisição",
	}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/processes/query",
		map[string]string{"process_number": "0000001-45.2024.8.26.0001"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestQueryEndpointRejectsMissingBody(t *testing.T) {
	router := testRouter(&fakeService{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/processes/query", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeBadRequest.String(), body["code"])
}

func TestValidateEndpoint(t *testing.T) {
	svc := &fakeService{validation: cnj.ValidationResult{Valid: false, Code: errors.ErrCodeChecksumMismatch.String()}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/processes/validate",
		map[string]string{"process_number": "0000001-00.2024.8.26.0001"})

	require.Equal(t, http.StatusOK, rec.Code)
	var result cnj.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
}

func TestStartMonitoring(t *testing.T) {
	svc := &fakeService{startEntry: &schedule.Entry{
		ID:       common.NewID(),
		Priority: common.PriorityHigh,
		State:    schedule.StateActive,
	}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/monitoring", map[string]interface{}{
		"process_number":  "0000001-45.2024.8.26.0001",
		"frequency_hours": 2.0,
		"priority":        "high",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, common.PriorityHigh, svc.lastPriority)
}

func TestStartMonitoringRejectsBadPriority(t *testing.T) {
	router := testRouter(&fakeService{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/monitoring", map[string]interface{}{
		"process_number": "0000001-45.2024.8.26.0001",
		"priority":       "maximum",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartMonitoringUnknownTribunal(t *testing.T) {
	svc := &fakeService{startErr: errors.New(errors.ErrCodeTribunalNotFound, "tribunal não encontrado")}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/monitoring", map[string]interface{}{
		"process_number": "0000001-17.2024.8.99.0000",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopMonitoring(t *testing.T) {
	svc := &fakeService{}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/monitoring/stop",
		map[string]string{"process_number": "0000001-45.2024.8.26.0001"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPauseScheduleTerminated(t *testing.T) {
	svc := &fakeService{pauseErr: errors.New(errors.ErrCodeScheduleTerminated, "agendamento encerrado")}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/schedules/abc/pause", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListUnreadNovelties(t *testing.T) {
	svc := &fakeService{novelties: []*novelty.Novelty{
		{ID: common.NewID(), Title: "Sentença", Priority: common.PriorityUrgent},
		{ID: common.NewID(), Title: "Juntada", Priority: common.PriorityLow},
	}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/novelties?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Novelties []*novelty.Novelty `json:"novelties"`
		Count     int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestMarkNoveltiesRead(t *testing.T) {
	svc := &fakeService{marked: 3}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/novelties/read",
		map[string][]string{"ids": {"a", "b", "c"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body["marked"])
}

func TestTribunalList(t *testing.T) {
	svc := &fakeService{tribunals: []*tribunal.Config{
		{Code: "8.26", Name: "Tribunal de Justiça de São Paulo"},
	}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/tribunals?segment=8", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "8.26")
}

func TestTribunalUpdateUnknownCode(t *testing.T) {
	svc := &fakeService{updateErr: errors.New(errors.ErrCodeTribunalNotFound, "tribunal não encontrado")}
	router := testRouter(svc, nil)

	active := true
	rec := doJSON(t, router, http.MethodPatch, "/api/v1/tribunals/9.99",
		tribunal.ConfigPatch{IsActive: &active})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthDegraded(t *testing.T) {
	checkers := map[string]handlers.HealthChecker{
		"postgres": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			return errors.New(errors.ErrCodeCacheError, "redis inacessível")
		},
	}
	router := testRouter(&fakeService{}, checkers)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestHealthOK(t *testing.T) {
	router := testRouter(&fakeService{}, map[string]handlers.HealthChecker{
		"postgres": func(context.Context) error { return nil },
	})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	svc := &fakeService{stats: &monitor.SystemStats{}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCleanupEndpoint(t *testing.T) {
	svc := &fakeService{cleanup: monitor.CleanupResult{NoveltiesExpired: 4}}
	router := testRouter(svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/cleanup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "4")
}
