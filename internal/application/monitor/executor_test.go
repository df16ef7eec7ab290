package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

func scheduleEntry() *schedule.Entry {
	return &schedule.Entry{
		ID:           common.NewID(),
		ProcessID:    common.NewID(),
		CNJNumber:    validNumber,
		TribunalCode: "8.26",
		Priority:     common.PriorityHigh,
	}
}

func TestScheduleExecutorSuccess(t *testing.T) {
	h := newHarness(t, false)
	h.executor.results = []*ptypes.ProcessQueryResult{successResult("Despacho")}
	exec := NewScheduleExecutor(h.orchestrator, nil, h.clock)

	outcome := exec.Execute(context.Background(), scheduleEntry())
	if outcome.Status != schedule.ExecutionSuccess {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.NewMovements != 1 {
		t.Errorf("new movements = %d", outcome.NewMovements)
	}
}

func TestScheduleExecutorBudgetDenialRequeues(t *testing.T) {
	h := newHarness(t, false)
	h.budget.RequestsPerMinute = 1
	exec := NewScheduleExecutor(h.orchestrator, nil, h.clock)
	entry := scheduleEntry()

	if out := exec.Execute(context.Background(), entry); out.Status != schedule.ExecutionSuccess {
		t.Fatalf("first execution = %+v", out)
	}

	outcome := exec.Execute(context.Background(), entry)
	if outcome.Status != schedule.ExecutionRateLimited {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.WaitTime != time.Minute {
		t.Errorf("wait = %v", outcome.WaitTime)
	}
	// The tribunal was never reached for the denied execution.
	if h.executor.callCount() != 1 {
		t.Errorf("query executor calls = %d, want 1", h.executor.callCount())
	}
}

func TestScheduleExecutorQueryFailure(t *testing.T) {
	h := newHarness(t, false)
	h.executor.results = []*ptypes.ProcessQueryResult{{Status: ptypes.QueryTimeout}}
	exec := NewScheduleExecutor(h.orchestrator, nil, h.clock)

	outcome := exec.Execute(context.Background(), scheduleEntry())
	if outcome.Status != schedule.ExecutionFailure {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Err == nil {
		t.Error("failure outcome without error")
	}
}

func TestScheduleExecutorTribunalThrottleIsRateLimited(t *testing.T) {
	h := newHarness(t, false)
	h.executor.results = []*ptypes.ProcessQueryResult{{Status: ptypes.QueryRateLimited}}
	exec := NewScheduleExecutor(h.orchestrator, nil, h.clock)

	outcome := exec.Execute(context.Background(), scheduleEntry())
	if outcome.Status != schedule.ExecutionRateLimited {
		t.Fatalf("tribunal throttle treated as %+v", outcome)
	}
}
