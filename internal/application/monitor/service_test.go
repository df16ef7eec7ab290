package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/ratelimit"
	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

type serviceHarness struct {
	service   *Service
	processes *fakeProcessRepo
	scheduler *schedule.Scheduler
	clock     *clock.Mock
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()
	mock := clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	parser := cnj.NewParser(mock)
	registry := tribunal.NewRegistry(parser)

	noveltyRepo := &memNoveltyRepo{}
	detector := novelty.NewDetector(noveltyRepo, novelty.NewRuleSet(nil), 48*time.Hour, 50, nil,
		novelty.WithDetectorClock(mock))

	executors := domproc.NewExecutorRegistry()
	executors.Register("8.26", &scriptedQueryExecutor{})

	processes := newFakeProcessRepo()
	movements := &fakeMovementRepo{}
	logs := &fakeLogRepo{}
	cacheLayer := cache.NewLayer(1<<20, 0.75, nil, cache.WithClock(mock))

	limiter := ratelimit.NewLimiter(func(string) config.BudgetConfig {
		return config.BudgetConfig{RequestsPerMinute: 10, RequestsPerHour: 100, RequestsPerDay: 1000}
	}, mock, nil)

	orch := NewOrchestrator(registry, limiter, cacheLayer, detector, executors, processes, movements, logs,
		config.QueryConfig{Timeout: 30 * time.Second, CacheTTL: 30 * time.Minute}, nil,
		WithOrchestratorClock(mock))

	schedCfg := config.SchedulerConfig{
		TickInterval:          time.Hour,
		MaxRetries:            3,
		DefaultFrequencyHours: 4,
		HistorySize:           10,
		RateLimitRequeueDelay: 5 * time.Minute,
	}
	scheduler := schedule.NewScheduler(
		NewScheduleExecutor(orch, nil, mock),
		schedCfg, nil, schedule.WithSchedulerClock(mock))

	cleanup := NewCleanupJob(detector, cacheLayer, logs,
		config.CleanupConfig{Interval: time.Hour, LogRetention: 30 * 24 * time.Hour, HistorySize: 10},
		nil, WithCleanupClock(mock))

	svc := NewService(parser, registry, orch, detector, scheduler, limiter, cacheLayer, cleanup,
		processes, logs, config.RateLimitConfig{}, nil)

	return &serviceHarness{
		service:   svc,
		processes: processes,
		scheduler: scheduler,
		clock:     mock,
	}
}

func TestStartMonitoringCreatesProcessAndSchedule(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	entry, err := h.service.StartMonitoring(ctx, validNumber, 6, common.PriorityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if entry.FrequencyHours != 6 || entry.Priority != common.PriorityHigh {
		t.Errorf("entry = %+v", entry)
	}
	if entry.State != schedule.StateActive {
		t.Errorf("state = %q", entry.State)
	}

	proc, err := h.processes.GetByCNJ(ctx, "00000014520248260001")
	if err != nil {
		t.Fatal(err)
	}
	if proc.Priority != common.PriorityHigh {
		t.Errorf("process priority = %q", proc.Priority)
	}

	// A second registration for the same process is rejected.
	if _, err := h.service.StartMonitoring(ctx, validNumber, 6, common.PriorityHigh); !errors.IsCode(err, errors.ErrCodeScheduleExists) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestStartMonitoringInvalidNumber(t *testing.T) {
	h := newServiceHarness(t)

	_, err := h.service.StartMonitoring(context.Background(), "0000001-00.2024.8.26.0001", 4, common.PriorityMedium)
	if !errors.IsCode(err, errors.ErrCodeChecksumMismatch) {
		t.Errorf("err = %v", err)
	}
	if len(h.service.ListSchedules()) != 0 {
		t.Error("schedule created for invalid number")
	}
}

func TestStopMonitoringDeactivatesProcess(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	if _, err := h.service.StartMonitoring(ctx, validNumber, 4, common.PriorityMedium); err != nil {
		t.Fatal(err)
	}
	if err := h.service.StopMonitoring(ctx, validNumber); err != nil {
		t.Fatal(err)
	}

	if entries := h.service.ListSchedules(); len(entries) != 0 {
		t.Errorf("schedules after stop = %d", len(entries))
	}
	proc, err := h.processes.GetByCNJ(ctx, "00000014520248260001")
	if err != nil {
		t.Fatal(err)
	}
	if proc.Status != common.StatusInactive {
		t.Errorf("status = %q", proc.Status)
	}
}

func TestStopMonitoringUnknownProcess(t *testing.T) {
	h := newServiceHarness(t)

	err := h.service.StopMonitoring(context.Background(), validNumber)
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestStartRestoresSchedulesFromActiveProcesses(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	active := &domproc.MonitoredProcess{
		ID:             common.NewID(),
		CNJNumber:      validNumber,
		CleanDigits:    "00000014520248260001",
		TribunalCode:   "8.26",
		Status:         common.StatusActive,
		Priority:       common.PriorityUrgent,
		FrequencyHours: 2,
	}
	inactive := &domproc.MonitoredProcess{
		ID:             common.NewID(),
		CNJNumber:      "7654321-42.2019.8.19.0001",
		CleanDigits:    "76543214220198190001",
		TribunalCode:   "8.19",
		Status:         common.StatusInactive,
		Priority:       common.PriorityLow,
		FrequencyHours: 24,
	}
	if err := h.processes.Create(ctx, active); err != nil {
		t.Fatal(err)
	}
	if err := h.processes.Create(ctx, inactive); err != nil {
		t.Fatal(err)
	}

	h.service.Start(ctx)
	defer h.service.Stop()

	entries := h.service.ListSchedules()
	if len(entries) != 1 {
		t.Fatalf("restored schedules = %d, want 1", len(entries))
	}
	if entries[0].ProcessID != active.ID || entries[0].FrequencyHours != 2 {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].Priority != common.PriorityUrgent {
		t.Errorf("priority = %q", entries[0].Priority)
	}
}

func TestStartIsIdempotentForSchedules(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	if _, err := h.service.StartMonitoring(ctx, validNumber, 4, common.PriorityMedium); err != nil {
		t.Fatal(err)
	}

	// Restore must not duplicate the entry the registration created.
	h.service.Start(ctx)
	defer h.service.Stop()

	if entries := h.service.ListSchedules(); len(entries) != 1 {
		t.Errorf("schedules = %d, want 1", len(entries))
	}
}

func TestPauseAndResumeMonitoring(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	entry, err := h.service.StartMonitoring(ctx, validNumber, 4, common.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.service.PauseMonitoring(entry.ID); err != nil {
		t.Fatal(err)
	}
	paused, err := h.scheduler.GetSchedule(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paused.State != schedule.StatePaused {
		t.Errorf("state = %q", paused.State)
	}

	if err := h.service.ResumeMonitoring(entry.ID); err != nil {
		t.Fatal(err)
	}
	resumed, err := h.scheduler.GetSchedule(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.State != schedule.StateActive {
		t.Errorf("state = %q", resumed.State)
	}
}

func TestGetStatsAggregates(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	if _, err := h.service.StartMonitoring(ctx, validNumber, 4, common.PriorityMedium); err != nil {
		t.Fatal(err)
	}

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Scheduler.TotalEntries != 1 {
		t.Errorf("scheduler entries = %d", stats.Scheduler.TotalEntries)
	}
}
