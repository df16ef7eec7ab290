package monitor

import (
	"context"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/ratelimit"
	"github.com/vigiajus/vigiajus/internal/domain/schedule"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// Service is the public application facade.  Transport layers (HTTP, CLI)
// call only this type.
type Service struct {
	parser       *cnj.Parser
	registry     *tribunal.Registry
	orchestrator *Orchestrator
	detector     *novelty.Detector
	scheduler    *schedule.Scheduler
	limiter      *ratelimit.Limiter
	cache        *cache.Layer
	cleanup      *CleanupJob

	processes domproc.Repository
	logs      domproc.QueryLogRepository

	sweepInterval time.Duration
	logger        logging.Logger

	cancel context.CancelFunc
}

// NewService assembles the facade from already-wired components.
func NewService(
	parser *cnj.Parser,
	registry *tribunal.Registry,
	orchestrator *Orchestrator,
	detector *novelty.Detector,
	scheduler *schedule.Scheduler,
	limiter *ratelimit.Limiter,
	cacheLayer *cache.Layer,
	cleanup *CleanupJob,
	processes domproc.Repository,
	logs domproc.QueryLogRepository,
	rateCfg config.RateLimitConfig,
	logger logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		parser:        parser,
		registry:      registry,
		orchestrator:  orchestrator,
		detector:      detector,
		scheduler:     scheduler,
		limiter:       limiter,
		cache:         cacheLayer,
		cleanup:       cleanup,
		processes:     processes,
		logs:          logs,
		sweepInterval: rateCfg.SweepInterval,
		logger:        logger,
	}
}

// Start launches the background loops: scheduler ticks, cleanup runs, and
// rate-limit sweeps.  Schedules for processes persisted as active are
// rebuilt first, so a restart resumes monitoring where it left off.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.restoreSchedules(runCtx)
	s.scheduler.Start(runCtx)
	s.cleanup.Start(runCtx)
	if s.sweepInterval > 0 {
		go s.limiter.Run(runCtx, s.sweepInterval)
	}
	s.logger.Info("monitoring service started")
}

// Stop halts the background loops, waiting for in-flight work.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
	s.cleanup.Stop()
	s.logger.Info("monitoring service stopped")
}

// restoreSchedules re-registers a schedule entry for every active process
// record.  Entries already present (another instance, tests) are skipped.
func (s *Service) restoreSchedules(ctx context.Context) {
	page := common.Pagination{Page: 1, PageSize: 100}
	restored := 0
	for {
		procs, total, err := s.processes.List(ctx, page)
		if err != nil {
			s.logger.Warn("schedule restore aborted", logging.Err(err))
			return
		}
		for _, proc := range procs {
			if proc.Status != common.StatusActive {
				continue
			}
			_, err := s.scheduler.AddSchedule(proc.ID, proc.CNJNumber,
				proc.TribunalCode, proc.FrequencyHours, proc.Priority)
			if err != nil {
				if !errors.IsCode(err, errors.ErrCodeScheduleExists) {
					s.logger.Warn("schedule restore failed",
						logging.String("cnj_number", proc.CNJNumber), logging.Err(err))
				}
				continue
			}
			restored++
		}
		if page.Page*page.PageSize >= total || len(procs) == 0 {
			break
		}
		page.Page++
	}
	if restored > 0 {
		s.logger.Info("schedules restored", logging.Int("count", restored))
	}
}

// QueryMovements runs one on-demand query.
func (s *Service) QueryMovements(ctx context.Context, processNumber string) *ptypes.MovementQueryResult {
	return s.orchestrator.QueryMovements(ctx, processNumber)
}

// ValidateNumber checks a CNJ process number without any side effects.
func (s *Service) ValidateNumber(processNumber string) cnj.ValidationResult {
	return s.parser.Validate(processNumber)
}

// GetAvailableTribunals lists every registered tribunal.
func (s *Service) GetAvailableTribunals() []*tribunal.Config {
	return s.registry.GetAll()
}

// GetTribunalsBySegment lists the tribunals of one judiciary segment.
func (s *Service) GetTribunalsBySegment(segment int) []*tribunal.Config {
	return s.registry.GetBySegment(segment)
}

// UpdateTribunalConfig patches a tribunal's registry entry.
func (s *Service) UpdateTribunalConfig(code string, patch tribunal.ConfigPatch) (*tribunal.Config, error) {
	return s.registry.UpdateConfig(code, patch)
}

// StartMonitoring places a process under scheduled polling.  The process
// record is created on first contact; the schedule's first execution is
// due on the next tick.
func (s *Service) StartMonitoring(ctx context.Context, processNumber string, frequencyHours float64, priority common.Priority) (*schedule.Entry, error) {
	ident, err := s.registry.Identify(processNumber)
	if err != nil {
		return nil, err
	}

	proc, err := s.orchestrator.ensureProcess(ctx, ident)
	if err != nil {
		return nil, err
	}

	entry, err := s.scheduler.AddSchedule(proc.ID, proc.CNJNumber, proc.TribunalCode, frequencyHours, priority)
	if err != nil {
		return nil, err
	}

	if proc.Priority != priority && priority.Valid() {
		proc.Priority = priority
		proc.FrequencyHours = entry.FrequencyHours
		if updateErr := s.processes.Update(ctx, proc); updateErr != nil {
			s.logger.Warn("process priority update failed",
				logging.String("cnj_number", proc.CNJNumber), logging.Err(updateErr))
		}
	}

	s.logger.Info("monitoring started",
		logging.String("cnj_number", proc.CNJNumber),
		logging.String("priority", string(entry.Priority)))
	return entry, nil
}

// StopMonitoring removes the process's schedule and marks the record
// inactive.  Movement history and novelties are retained.
func (s *Service) StopMonitoring(ctx context.Context, processNumber string) error {
	number, err := s.parser.Parse(processNumber)
	if err != nil {
		return err
	}

	proc, err := s.processes.GetByCNJ(ctx, number.CleanDigits())
	if err != nil {
		return err
	}

	entry, err := s.scheduler.GetScheduleByProcess(proc.ID)
	if err == nil {
		if removeErr := s.scheduler.RemoveSchedule(entry.ID); removeErr != nil {
			return removeErr
		}
	} else if !errors.IsCode(err, errors.ErrCodeScheduleNotFound) {
		return err
	}

	proc.Status = common.StatusInactive
	if err := s.processes.Update(ctx, proc); err != nil {
		return errors.Wrap(err, errors.ErrCodePersistenceError, "falha ao desativar processo")
	}

	s.logger.Info("monitoring stopped", logging.String("cnj_number", proc.CNJNumber))
	return nil
}

// PauseMonitoring suspends a schedule without losing its state.
func (s *Service) PauseMonitoring(entryID common.ID) error {
	return s.scheduler.PauseSchedule(entryID)
}

// ResumeMonitoring reactivates a paused schedule, due immediately.
func (s *Service) ResumeMonitoring(entryID common.ID) error {
	return s.scheduler.ResumeSchedule(entryID)
}

// ListSchedules returns every schedule entry.
func (s *Service) ListSchedules() []*schedule.Entry {
	return s.scheduler.ListSchedules()
}

// ListProcesses pages through the monitored process records.
func (s *Service) ListProcesses(ctx context.Context, page common.Pagination) ([]*domproc.MonitoredProcess, int, error) {
	return s.processes.List(ctx, page)
}

// GetUnreadNovelties returns up to limit unread novelties ordered by
// priority.
func (s *Service) GetUnreadNovelties(ctx context.Context, limit int) ([]*novelty.Novelty, error) {
	return s.detector.GetUnread(ctx, limit)
}

// MarkNoveltiesAsRead flags the given novelties as read, returning how
// many actually changed.
func (s *Service) MarkNoveltiesAsRead(ctx context.Context, ids []common.ID) (int, error) {
	return s.detector.MarkAsRead(ctx, ids)
}

// MarkProcessNoveltiesAsRead flags every novelty of one process as read.
func (s *Service) MarkProcessNoveltiesAsRead(ctx context.Context, processID common.ID) (int, error) {
	return s.detector.MarkProcessAsRead(ctx, processID)
}

// RunSystemCleanup triggers a full cleanup pass immediately.
func (s *Service) RunSystemCleanup(ctx context.Context) CleanupResult {
	return s.cleanup.RunNow(ctx)
}

// SystemStats aggregates operational statistics across components.
type SystemStats struct {
	Cache          cache.Stats              `json:"cache"`
	Scheduler      schedule.Stats           `json:"scheduler"`
	Tribunals      []*domproc.TribunalStats `json:"tribunals,omitempty"`
	CleanupHistory []CleanupResult          `json:"cleanup_history,omitempty"`
}

// GetStats assembles the system statistics snapshot.  Tribunal stats
// cover the last 24 hours.
func (s *Service) GetStats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{
		Scheduler:      s.scheduler.GetStats(),
		CleanupHistory: s.cleanup.History(),
	}
	if s.cache != nil {
		stats.Cache = s.cache.GetStats()
	}

	tribStats, err := s.logs.GetTribunalStats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		s.logger.Warn("tribunal stats unavailable", logging.Err(err))
	} else {
		stats.Tribunals = tribStats
	}
	return stats, nil
}

// GetRateLimitUsage reports the limiter's window counts for one tribunal.
func (s *Service) GetRateLimitUsage(code string) ratelimit.Usage {
	return s.limiter.GetUsage(code)
}
