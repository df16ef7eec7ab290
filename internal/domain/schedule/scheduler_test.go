package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

type scriptedExecutor struct {
	mu       sync.Mutex
	outcomes []Outcome
	executed []common.ID
}

func (e *scriptedExecutor) Execute(_ context.Context, entry *Entry) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, entry.ID)
	if len(e.outcomes) == 0 {
		return Outcome{Status: ExecutionSuccess}
	}
	out := e.outcomes[0]
	if len(e.outcomes) > 1 {
		e.outcomes = e.outcomes[1:]
	}
	return out
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		TickInterval:          5 * time.Minute,
		InterExecutionDelay:   0,
		MaxRetries:            3,
		DefaultFrequencyHours: 4,
		HistorySize:           1000,
		RateLimitRequeueDelay: 5 * time.Minute,
	}
}

func newTestScheduler(exec Executor, opts ...SchedulerOption) (*Scheduler, *clock.Mock) {
	mock := clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	opts = append(opts, WithSchedulerClock(mock))
	return NewScheduler(exec, testConfig(), nil, opts...), mock
}

func TestAddScheduleDueImmediately(t *testing.T) {
	s, mock := newTestScheduler(&scriptedExecutor{})

	entry, err := s.AddSchedule(common.NewID(), "0000001-45.2024.8.26.0001", "8.26", 4, common.PriorityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.IsDue(mock.Now()) {
		t.Error("new entry not due immediately")
	}
	if entry.MaxRetries != 3 {
		t.Errorf("max retries = %d", entry.MaxRetries)
	}
}

func TestAddScheduleRejectsDuplicateProcess(t *testing.T) {
	s, _ := newTestScheduler(&scriptedExecutor{})
	processID := common.NewID()

	if _, err := s.AddSchedule(processID, "cnj", "8.26", 4, common.PriorityHigh); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddSchedule(processID, "cnj", "8.26", 4, common.PriorityHigh)
	if errors.GetCode(err) != errors.ErrCodeScheduleExists {
		t.Errorf("err = %v", err)
	}
}

func TestAddScheduleDefaults(t *testing.T) {
	s, _ := newTestScheduler(&scriptedExecutor{})
	entry, err := s.AddSchedule(common.NewID(), "cnj", "8.26", 0, "extreme")
	if err != nil {
		t.Fatal(err)
	}
	if entry.FrequencyHours != 4 {
		t.Errorf("frequency = %v, want default 4", entry.FrequencyHours)
	}
	if entry.Priority != common.PriorityMedium {
		t.Errorf("priority = %q, want medium", entry.Priority)
	}
}

func TestSuccessDelayRange(t *testing.T) {
	// frequency=4h, priority=high -> base 3h; jitter adds up to 10%.
	for _, jitter := range []float64{0, 0.5, 0.999} {
		jitter := jitter
		t.Run(fmt.Sprintf("jitter=%v", jitter), func(t *testing.T) {
			exec := &scriptedExecutor{outcomes: []Outcome{{Status: ExecutionSuccess}}}
			s, mock := newTestScheduler(exec, WithJitterSource(func() float64 { return jitter }))

			entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityHigh)
			s.Tick(context.Background())

			updated, _ := s.GetSchedule(entry.ID)
			delay := updated.NextExecution.Sub(mock.Now())
			if delay < 3*time.Hour || delay > 3*time.Hour+18*time.Minute {
				t.Errorf("delay = %v, want within [3h, 3.3h]", delay)
			}
			want := time.Duration((1 + 0.1*jitter) * 3 * float64(time.Hour))
			if delay != want {
				t.Errorf("delay = %v, want %v", delay, want)
			}
		})
	}
}

func TestPriorityMultipliers(t *testing.T) {
	tests := []struct {
		priority common.Priority
		want     time.Duration
	}{
		{common.PriorityUrgent, 2 * time.Hour},
		{common.PriorityHigh, 3 * time.Hour},
		{common.PriorityMedium, 4 * time.Hour},
		{common.PriorityLow, 6 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			exec := &scriptedExecutor{}
			s, mock := newTestScheduler(exec, WithJitterSource(func() float64 { return 0 }))
			entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, tt.priority)

			s.Tick(context.Background())

			updated, _ := s.GetSchedule(entry.ID)
			if delay := updated.NextExecution.Sub(mock.Now()); delay != tt.want {
				t.Errorf("delay = %v, want %v", delay, tt.want)
			}
		})
	}
}

func TestTickExecutesInPriorityOrder(t *testing.T) {
	exec := &scriptedExecutor{}
	s, _ := newTestScheduler(exec)

	low, _ := s.AddSchedule(common.NewID(), "low", "8.26", 4, common.PriorityLow)
	urgent, _ := s.AddSchedule(common.NewID(), "urgent", "8.26", 4, common.PriorityUrgent)
	medium, _ := s.AddSchedule(common.NewID(), "medium", "8.26", 4, common.PriorityMedium)

	if n := s.Tick(context.Background()); n != 3 {
		t.Fatalf("executed = %d", n)
	}
	want := []common.ID{urgent.ID, medium.ID, low.ID}
	for i, id := range want {
		if exec.executed[i] != id {
			t.Fatalf("execution order %v, want %v", exec.executed, want)
		}
	}
}

func TestTickSkipsNotDueAndPaused(t *testing.T) {
	exec := &scriptedExecutor{}
	s, _ := newTestScheduler(exec)

	due, _ := s.AddSchedule(common.NewID(), "due", "8.26", 4, common.PriorityMedium)
	paused, _ := s.AddSchedule(common.NewID(), "paused", "8.26", 4, common.PriorityMedium)
	if err := s.PauseSchedule(paused.ID); err != nil {
		t.Fatal(err)
	}

	if n := s.Tick(context.Background()); n != 1 {
		t.Fatalf("executed = %d, want 1", n)
	}
	if exec.executed[0] != due.ID {
		t.Error("wrong entry executed")
	}
}

func TestRateLimitedDoesNotCountAsRetry(t *testing.T) {
	exec := &scriptedExecutor{outcomes: []Outcome{
		{Status: ExecutionRateLimited, WaitTime: 10 * time.Minute},
	}}
	s, mock := newTestScheduler(exec)

	entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityMedium)
	s.Tick(context.Background())

	updated, _ := s.GetSchedule(entry.ID)
	if updated.RetryCount != 0 {
		t.Errorf("retry count = %d after rate limit", updated.RetryCount)
	}
	if updated.State != StateActive {
		t.Errorf("state = %q", updated.State)
	}
	if delay := updated.NextExecution.Sub(mock.Now()); delay != 10*time.Minute {
		t.Errorf("requeue delay = %v, want limiter hint 10m", delay)
	}
}

func TestRateLimitedWithoutHintUsesDefaultRequeue(t *testing.T) {
	exec := &scriptedExecutor{outcomes: []Outcome{{Status: ExecutionRateLimited}}}
	s, mock := newTestScheduler(exec)

	entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityMedium)
	s.Tick(context.Background())

	updated, _ := s.GetSchedule(entry.ID)
	if delay := updated.NextExecution.Sub(mock.Now()); delay != 5*time.Minute {
		t.Errorf("requeue delay = %v, want default 5m", delay)
	}
}

func TestRetryExhaustionTerminates(t *testing.T) {
	exec := &scriptedExecutor{outcomes: []Outcome{
		{Status: ExecutionFailure, Err: fmt.Errorf("timeout")},
	}}
	s, mock := newTestScheduler(exec, WithJitterSource(func() float64 { return 0 }))

	entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityMedium)

	for i := 0; i < 3; i++ {
		s.Tick(context.Background())
		updated, _ := s.GetSchedule(entry.ID)
		if i < 2 {
			if updated.State != StateActive {
				t.Fatalf("terminated after %d failures", i+1)
			}
			if updated.RetryCount != i+1 {
				t.Fatalf("retry count = %d, want %d", updated.RetryCount, i+1)
			}
			// Retries back off by the full interval, not instantly.
			if delay := updated.NextExecution.Sub(mock.Now()); delay != 4*time.Hour {
				t.Fatalf("retry delay = %v", delay)
			}
			mock.Advance(4 * time.Hour)
		} else {
			if updated.State != StateTerminated {
				t.Fatalf("state = %q after max retries", updated.State)
			}
			if updated.NextExecution != nil {
				t.Error("terminated entry still scheduled")
			}
		}
	}

	// Terminated entries never execute again.
	mock.Advance(24 * time.Hour)
	if n := s.Tick(context.Background()); n != 0 {
		t.Errorf("terminated entry executed")
	}

	if err := s.ResumeSchedule(entry.ID); errors.GetCode(err) != errors.ErrCodeScheduleTerminated {
		t.Errorf("resume of terminated = %v", err)
	}
}

func TestSuccessResetsRetryCount(t *testing.T) {
	exec := &scriptedExecutor{outcomes: []Outcome{
		{Status: ExecutionFailure, Err: fmt.Errorf("boom")},
		{Status: ExecutionSuccess},
	}}
	s, mock := newTestScheduler(exec, WithJitterSource(func() float64 { return 0 }))

	entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityMedium)

	s.Tick(context.Background())
	mock.Advance(4 * time.Hour)
	s.Tick(context.Background())

	updated, _ := s.GetSchedule(entry.ID)
	if updated.RetryCount != 0 {
		t.Errorf("retry count = %d after success", updated.RetryCount)
	}
}

func TestPauseResume(t *testing.T) {
	exec := &scriptedExecutor{}
	s, _ := newTestScheduler(exec)

	entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityMedium)
	if err := s.PauseSchedule(entry.ID); err != nil {
		t.Fatal(err)
	}
	if n := s.Tick(context.Background()); n != 0 {
		t.Error("paused entry executed")
	}

	if err := s.ResumeSchedule(entry.ID); err != nil {
		t.Fatal(err)
	}
	if n := s.Tick(context.Background()); n != 1 {
		t.Error("resumed entry not executed")
	}
}

func TestHistoryRing(t *testing.T) {
	exec := &scriptedExecutor{}
	mock := clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := testConfig()
	cfg.HistorySize = 3
	s := NewScheduler(exec, cfg, nil, WithSchedulerClock(mock), WithJitterSource(func() float64 { return 0 }))

	entry, _ := s.AddSchedule(common.NewID(), "cnj", "8.26", 1, common.PriorityMedium)
	for i := 0; i < 5; i++ {
		s.Tick(context.Background())
		mock.Advance(2 * time.Hour)
	}
	_ = entry

	hist := s.History()
	if len(hist) != 3 {
		t.Fatalf("history = %d records, want 3", len(hist))
	}
	// Most recent first.
	for i := 1; i < len(hist); i++ {
		if hist[i].ExecutedAt.After(hist[i-1].ExecutedAt) {
			t.Error("history not most-recent-first")
		}
	}
}

func TestStats(t *testing.T) {
	exec := &scriptedExecutor{outcomes: []Outcome{
		{Status: ExecutionFailure, Err: fmt.Errorf("boom")},
	}}
	s, _ := newTestScheduler(exec)

	s.AddSchedule(common.NewID(), "a", "8.26", 4, common.PriorityUrgent)
	b, _ := s.AddSchedule(common.NewID(), "b", "8.26", 4, common.PriorityLow)
	s.PauseSchedule(b.ID)

	s.Tick(context.Background())

	stats := s.GetStats()
	if stats.TotalEntries != 2 {
		t.Errorf("total = %d", stats.TotalEntries)
	}
	if stats.ByState[StateActive] != 1 || stats.ByState[StatePaused] != 1 {
		t.Errorf("by state = %v", stats.ByState)
	}
	if stats.RecentOutcomes[ExecutionFailure] != 1 {
		t.Errorf("outcomes = %v", stats.RecentOutcomes)
	}
}

func TestStartStop(t *testing.T) {
	exec := &scriptedExecutor{}
	cfg := testConfig()
	cfg.TickInterval = 10 * time.Millisecond
	s := NewScheduler(exec, cfg, nil)

	s.AddSchedule(common.NewID(), "cnj", "8.26", 4, common.PriorityMedium)

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	exec.mu.Lock()
	n := len(exec.executed)
	exec.mu.Unlock()
	if n == 0 {
		t.Error("loop never executed the due entry")
	}

	// Stop is idempotent.
	s.Stop()
}
