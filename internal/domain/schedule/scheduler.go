package schedule

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// Executor runs one due entry.  The application layer wires this to the
// rate limiter and the query orchestrator.
type Executor interface {
	Execute(ctx context.Context, entry *Entry) Outcome
}

// jitterFraction bounds the additive jitter at 10% of the base delay.
const jitterFraction = 0.1

// Scheduler drives the polling loop.  All entry state lives in memory and
// is guarded by a single mutex; executions run serially within one tick.
type Scheduler struct {
	mu      sync.Mutex
	entries map[common.ID]*Entry
	history []ExecutionRecord
	histPos int
	histLen int

	executor Executor
	cfg      config.SchedulerConfig
	clk      clock.Clock
	logger   logging.Logger

	// jitter returns a uniform value in [0, 1); injectable for tests.
	jitter func() float64

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock overrides the clock, for tests.
func WithSchedulerClock(c clock.Clock) SchedulerOption {
	return func(s *Scheduler) { s.clk = c }
}

// WithJitterSource overrides the jitter source, for tests.  fn must return
// values in [0, 1).
func WithJitterSource(fn func() float64) SchedulerOption {
	return func(s *Scheduler) { s.jitter = fn }
}

// NewScheduler builds a scheduler around the given executor.
func NewScheduler(executor Executor, cfg config.SchedulerConfig, logger logging.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Scheduler{
		entries:  make(map[common.ID]*Entry),
		history:  make([]ExecutionRecord, cfg.HistorySize),
		executor: executor,
		cfg:      cfg,
		clk:      clock.System(),
		logger:   logger,
		jitter:   rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSchedule registers a new polling schedule for a process.  The first
// execution is due immediately.
func (s *Scheduler) AddSchedule(processID common.ID, cnjNumber, tribunalCode string, frequencyHours float64, priority common.Priority) (*Entry, error) {
	if frequencyHours <= 0 {
		frequencyHours = s.cfg.DefaultFrequencyHours
	}
	if !priority.Valid() {
		priority = common.PriorityMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ProcessID == processID && e.State != StateTerminated {
			return nil, errors.Newf(errors.ErrCodeScheduleExists,
				"processo %s já possui agendamento ativo", cnjNumber)
		}
	}

	now := s.clk.Now()
	next := now
	entry := &Entry{
		ID:             common.NewID(),
		ProcessID:      processID,
		CNJNumber:      cnjNumber,
		TribunalCode:   tribunalCode,
		FrequencyHours: frequencyHours,
		Priority:       priority,
		State:          StateActive,
		NextExecution:  &next,
		MaxRetries:     s.cfg.MaxRetries,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.entries[entry.ID] = entry

	s.logger.Info("schedule added",
		logging.String("cnj_number", cnjNumber),
		logging.String("priority", string(priority)),
		logging.Float64("frequency_hours", frequencyHours))
	return cloneEntry(entry), nil
}

// PauseSchedule moves an active entry to paused.
func (s *Scheduler) PauseSchedule(id common.ID) error {
	return s.transition(id, StateActive, StatePaused)
}

// ResumeSchedule moves a paused entry back to active, due immediately.
func (s *Scheduler) ResumeSchedule(id common.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return errors.Newf(errors.ErrCodeScheduleNotFound, "agendamento %s não encontrado", id)
	}
	if e.State == StateTerminated {
		return errors.Newf(errors.ErrCodeScheduleTerminated, "agendamento %s foi encerrado", id)
	}
	if e.State != StatePaused {
		return nil
	}
	now := s.clk.Now()
	e.State = StateActive
	e.NextExecution = &now
	e.UpdatedAt = now
	return nil
}

// RemoveSchedule deletes the entry outright.
func (s *Scheduler) RemoveSchedule(id common.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return errors.Newf(errors.ErrCodeScheduleNotFound, "agendamento %s não encontrado", id)
	}
	delete(s.entries, id)
	return nil
}

// GetSchedule returns a copy of one entry.
func (s *Scheduler) GetSchedule(id common.ID) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeScheduleNotFound, "agendamento %s não encontrado", id)
	}
	return cloneEntry(e), nil
}

// GetScheduleByProcess returns the non-terminated entry for a process.
func (s *Scheduler) GetScheduleByProcess(processID common.ID) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ProcessID == processID && e.State != StateTerminated {
			return cloneEntry(e), nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeScheduleNotFound, "processo %s sem agendamento", processID)
}

// ListSchedules returns copies of every entry sorted by priority then next
// execution.
func (s *Scheduler) ListSchedules() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, cloneEntry(e))
	}
	sortEntries(out)
	return out
}

// Start launches the tick loop.  Returns immediately; Stop halts the loop
// without preempting an in-flight execution.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(loopCtx)
	s.logger.Info("scheduler started", logging.Duration("tick_interval", s.cfg.TickInterval))
}

// Stop halts the tick loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick selects every due entry and executes them serially in priority
// order.  Exposed so tests and the manual trigger endpoint can drive the
// scheduler without waiting for the ticker.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.clk.Now()

	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if e.IsDue(now) {
			due = append(due, e)
		}
	}
	sortEntries(due)
	s.mu.Unlock()

	executed := 0
	for i, e := range due {
		if ctx.Err() != nil {
			return executed
		}
		s.executeEntry(ctx, e.ID)
		executed++

		if i < len(due)-1 && s.cfg.InterExecutionDelay > 0 {
			select {
			case <-ctx.Done():
				return executed
			case <-time.After(s.cfg.InterExecutionDelay):
			}
		}
	}
	return executed
}

// executeEntry runs one entry through the executor and applies the outcome
// to the entry's state.  The lock is released during execution.
func (s *Scheduler) executeEntry(ctx context.Context, id common.ID) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || !e.IsActive() {
		s.mu.Unlock()
		return
	}
	snapshot := cloneEntry(e)
	s.mu.Unlock()

	outcome := s.executor.Execute(ctx, snapshot)
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok = s.entries[id]
	if !ok {
		return
	}
	e.LastExecution = &now
	e.UpdatedAt = now

	record := ExecutionRecord{
		EntryID:      e.ID,
		CNJNumber:    e.CNJNumber,
		TribunalCode: e.TribunalCode,
		Status:       outcome.Status,
		Duration:     outcome.Duration,
		NewMovements: outcome.NewMovements,
		ExecutedAt:   now,
	}
	if outcome.Err != nil {
		record.Error = outcome.Err.Error()
	}

	switch outcome.Status {
	case ExecutionRateLimited:
		// Not a retry.  Requeue for when the limiter expects capacity.
		wait := outcome.WaitTime
		if wait <= 0 {
			wait = s.cfg.RateLimitRequeueDelay
		}
		next := now.Add(wait)
		e.NextExecution = &next
		s.logger.Debug("execution rate limited",
			logging.String("cnj_number", e.CNJNumber),
			logging.Duration("requeued_for", wait))

	case ExecutionSuccess:
		e.RetryCount = 0
		next := now.Add(s.nextDelay(e))
		e.NextExecution = &next

	case ExecutionFailure:
		e.RetryCount++
		if e.RetryCount >= e.MaxRetries {
			e.State = StateTerminated
			e.NextExecution = nil
			s.logger.Warn("schedule terminated after retry exhaustion",
				logging.String("cnj_number", e.CNJNumber),
				logging.Int("retry_count", e.RetryCount))
		} else {
			// Full-interval backoff keeps retries from hammering a court
			// that just failed.
			next := now.Add(s.nextDelay(e))
			e.NextExecution = &next
		}
	}

	s.appendHistoryLocked(record)
}

// nextDelay computes frequencyHours scaled by the priority multiplier plus
// additive jitter in [0, 10%] of the base delay.
func (s *Scheduler) nextDelay(e *Entry) time.Duration {
	base := time.Duration(e.FrequencyHours * Multiplier(e.Priority) * float64(time.Hour))
	jitter := time.Duration(s.jitter() * jitterFraction * float64(base))
	return base + jitter
}

func (s *Scheduler) transition(id common.ID, from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return errors.Newf(errors.ErrCodeScheduleNotFound, "agendamento %s não encontrado", id)
	}
	if e.State == StateTerminated {
		return errors.Newf(errors.ErrCodeScheduleTerminated, "agendamento %s foi encerrado", id)
	}
	if e.State != from {
		return nil
	}
	e.State = to
	e.UpdatedAt = s.clk.Now()
	return nil
}

func (s *Scheduler) appendHistoryLocked(r ExecutionRecord) {
	if len(s.history) == 0 {
		return
	}
	s.history[s.histPos] = r
	s.histPos = (s.histPos + 1) % len(s.history)
	if s.histLen < len(s.history) {
		s.histLen++
	}
}

// History returns the retained execution records, most recent first.
func (s *Scheduler) History() []ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ExecutionRecord, 0, s.histLen)
	for i := 0; i < s.histLen; i++ {
		idx := (s.histPos - 1 - i + len(s.history)) % len(s.history)
		out = append(out, s.history[idx])
	}
	return out
}

// Stats summarizes the scheduler's current entry population and recent
// execution outcomes.
type Stats struct {
	TotalEntries   int                     `json:"total_entries"`
	ByState        map[State]int           `json:"by_state"`
	ByPriority     map[common.Priority]int `json:"by_priority"`
	RecentOutcomes map[ExecutionStatus]int `json:"recent_outcomes"`
}

// GetStats returns a snapshot of the scheduler state.
func (s *Scheduler) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		TotalEntries:   len(s.entries),
		ByState:        make(map[State]int),
		ByPriority:     make(map[common.Priority]int),
		RecentOutcomes: make(map[ExecutionStatus]int),
	}
	for _, e := range s.entries {
		stats.ByState[e.State]++
		if e.State == StateActive {
			stats.ByPriority[e.Priority]++
		}
	}
	for i := 0; i < s.histLen; i++ {
		stats.RecentOutcomes[s.history[i].Status]++
	}
	return stats
}

func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.NextExecution == nil:
			return false
		case b.NextExecution == nil:
			return true
		default:
			return a.NextExecution.Before(*b.NextExecution)
		}
	})
}

func cloneEntry(e *Entry) *Entry {
	clone := *e
	if e.LastExecution != nil {
		t := *e.LastExecution
		clone.LastExecution = &t
	}
	if e.NextExecution != nil {
		t := *e.NextExecution
		clone.NextExecution = &t
	}
	return &clone
}
