package monitor

import (
	"context"
	"fmt"

	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/prometheus"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// ScheduleExecutor adapts the orchestrator to the scheduler's executor
// port.  Budget enforcement lives in the orchestrator, which serves both
// scheduled and ad-hoc callers; a budget denial comes back as a failed
// result and requeues the schedule instead of burning a retry.
type ScheduleExecutor struct {
	orchestrator *Orchestrator
	metrics      *prometheus.AppMetrics
	clk          clock.Clock
}

// NewScheduleExecutor wires the executor.  metrics may be nil.
func NewScheduleExecutor(orchestrator *Orchestrator, metrics *prometheus.AppMetrics, clk clock.Clock) *ScheduleExecutor {
	if clk == nil {
		clk = clock.System()
	}
	return &ScheduleExecutor{
		orchestrator: orchestrator,
		metrics:      metrics,
		clk:          clk,
	}
}

// Execute runs one schedule entry through the full query flow.  The
// outcome drives the scheduler's retry and requeue logic.
func (e *ScheduleExecutor) Execute(ctx context.Context, entry *schedule.Entry) schedule.Outcome {
	start := e.clk.Now()
	result := e.orchestrator.QueryMovements(ctx, entry.CNJNumber)
	duration := e.clk.Now().Sub(start)

	if e.metrics != nil {
		e.metrics.ExecutionDuration.WithLabelValues(entry.TribunalCode).Observe(duration.Seconds())
	}

	if result.Success {
		if e.metrics != nil {
			e.metrics.ScheduleExecutions.WithLabelValues("success").Inc()
		}
		return schedule.Outcome{
			Status:       schedule.ExecutionSuccess,
			Duration:     duration,
			NewMovements: result.NewMovements,
		}
	}

	// A local budget denial or a tribunal-side throttle is a reschedule,
	// not a retry.
	code := errors.ErrorCode(result.ErrorCode)
	if code == errors.ErrCodeRateLimited || code == errors.ErrCodeSourceRateLimited {
		if e.metrics != nil {
			e.metrics.ScheduleExecutions.WithLabelValues("rate_limited").Inc()
		}
		return schedule.Outcome{
			Status:   schedule.ExecutionRateLimited,
			Duration: duration,
			WaitTime: result.RetryAfter,
		}
	}

	if e.metrics != nil {
		e.metrics.ScheduleExecutions.WithLabelValues("failure").Inc()
	}
	return schedule.Outcome{
		Status:   schedule.ExecutionFailure,
		Duration: duration,
		Err:      fmt.Errorf("[%s] %s", result.ErrorCode, result.ErrorMessage),
	}
}
