// Package schedule implements the priority-aware polling scheduler.  Each
// monitored process owns one Entry; a periodic tick executes the due ones
// in priority order and recomputes their next execution with a
// priority-scaled interval plus additive jitter.
package schedule

import (
	"time"

	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// State is the lifecycle state of an Entry.  Terminated is final: an entry
// that exhausts its retry budget must be recreated to poll again.
type State string

const (
	StateActive     State = "active"
	StatePaused     State = "paused"
	StateTerminated State = "terminated"
)

// Entry is one process's polling schedule.
type Entry struct {
	ID           common.ID       `json:"id"`
	ProcessID    common.ID       `json:"process_id"`
	CNJNumber    string          `json:"cnj_number"`
	TribunalCode string          `json:"tribunal_code"`

	FrequencyHours float64         `json:"frequency_hours"`
	Priority       common.Priority `json:"priority"`
	State          State           `json:"state"`

	LastExecution *time.Time `json:"last_execution,omitempty"`
	NextExecution *time.Time `json:"next_execution,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the entry participates in tick selection.
func (e *Entry) IsActive() bool {
	return e.State == StateActive
}

// IsDue reports whether the entry should execute at instant now.
func (e *Entry) IsDue(now time.Time) bool {
	return e.IsActive() && e.NextExecution != nil && !e.NextExecution.After(now)
}

// priorityMultiplier scales the polling interval: urgent processes are
// polled twice as often as their base frequency, low-priority ones half
// as often.
var priorityMultiplier = map[common.Priority]float64{
	common.PriorityUrgent: 0.5,
	common.PriorityHigh:   0.75,
	common.PriorityMedium: 1.0,
	common.PriorityLow:    1.5,
}

// Multiplier returns the interval scale factor for p, defaulting to 1.
func Multiplier(p common.Priority) float64 {
	if m, ok := priorityMultiplier[p]; ok {
		return m
	}
	return 1.0
}

// ExecutionStatus classifies one execution outcome.
type ExecutionStatus string

const (
	ExecutionSuccess     ExecutionStatus = "success"
	ExecutionFailure     ExecutionStatus = "failure"
	ExecutionRateLimited ExecutionStatus = "rate_limited"
)

// Outcome is what the executor reports back for one execution.
type Outcome struct {
	Status ExecutionStatus

	// WaitTime is the rate limiter's retry hint; only meaningful for
	// ExecutionRateLimited.
	WaitTime time.Duration

	Err          error
	Duration     time.Duration
	NewMovements int
}

// ExecutionRecord is one history line kept for statistics.
type ExecutionRecord struct {
	EntryID      common.ID       `json:"entry_id"`
	CNJNumber    string          `json:"cnj_number"`
	TribunalCode string          `json:"tribunal_code"`
	Status       ExecutionStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
	Duration     time.Duration   `json:"duration"`
	NewMovements int             `json:"new_movements"`
	ExecutedAt   time.Time       `json:"executed_at"`
}
