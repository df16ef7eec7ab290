// Package monitor is the application layer tying the domain components
// together: the query orchestrator, the monitoring service, the schedule
// executor, and the cleanup job.
package monitor

import (
	"context"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/ratelimit"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/prometheus"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// SnapshotArchive is the outbound port archiving raw query results.
// Archiving is best-effort and never blocks the query path.
type SnapshotArchive interface {
	Archive(ctx context.Context, key string, result *ptypes.ProcessQueryResult) error
}

// Orchestrator is the single externally visible query entry point.  It
// never returns a raw error to callers: every outcome is a
// MovementQueryResult with a success flag and a structured error.
type Orchestrator struct {
	registry  *tribunal.Registry
	limiter   *ratelimit.Limiter
	cache     *cache.Layer
	detector  *novelty.Detector
	executors *domproc.ExecutorRegistry

	processes domproc.Repository
	movements domproc.MovementRepository
	logs      domproc.QueryLogRepository

	archive SnapshotArchive
	metrics *prometheus.AppMetrics

	cfg    config.QueryConfig
	clk    clock.Clock
	logger logging.Logger
}

// OrchestratorOption configures optional collaborators.
type OrchestratorOption func(*Orchestrator)

// WithSnapshotArchive attaches the raw result archive.
func WithSnapshotArchive(a SnapshotArchive) OrchestratorOption {
	return func(o *Orchestrator) { o.archive = a }
}

// WithMetrics attaches the metrics sink.
func WithMetrics(m *prometheus.AppMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithOrchestratorClock overrides the clock, for tests.
func WithOrchestratorClock(c clock.Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clk = c }
}

// NewOrchestrator wires the orchestrator.  registry, limiter, detector,
// executors, and the three repositories are required; cache may be nil to
// disable caching outright.
func NewOrchestrator(
	registry *tribunal.Registry,
	limiter *ratelimit.Limiter,
	cacheLayer *cache.Layer,
	detector *novelty.Detector,
	executors *domproc.ExecutorRegistry,
	processes domproc.Repository,
	movements domproc.MovementRepository,
	logs domproc.QueryLogRepository,
	cfg config.QueryConfig,
	logger logging.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := &Orchestrator{
		registry:  registry,
		limiter:   limiter,
		cache:     cacheLayer,
		detector:  detector,
		executors: executors,
		processes: processes,
		movements: movements,
		logs:      logs,
		cfg:       cfg,
		clk:       clock.System(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// QueryMovements resolves the process number, serves the result from
// cache when possible, otherwise queries the tribunal, and runs novelty
// detection over whatever movements were obtained.  Novelties are
// recomputed even on cache hits so a consumer that missed an earlier
// notification still sees them.
func (o *Orchestrator) QueryMovements(ctx context.Context, processNumber string) *ptypes.MovementQueryResult {
	start := o.clk.Now()

	ident, err := o.registry.Identify(processNumber)
	if err != nil {
		return o.failure(processNumber, start, err)
	}
	number := ident.Number
	tribunalName := ident.Tribunal.Name

	proc, err := o.ensureProcess(ctx, ident)
	if err != nil {
		return o.failure(processNumber, start, err)
	}

	cacheKey := number.CacheKey()
	if o.cacheEnabled() {
		if cached := o.cache.Get(ctx, cacheKey); cached != nil {
			o.observeCache("memory", true)
			return o.finishQuery(ctx, proc, tribunalName, cached, true, start)
		}
		o.observeCache("memory", false)
	}

	executor, err := o.executors.Get(number.TribunalCode)
	if err != nil {
		return o.failure(processNumber, start, err)
	}

	// Cache hits cost the tribunal nothing; only a real outbound query
	// consumes budget.  Check records the request when it allows one.
	if decision := o.limiter.Check(number.TribunalCode); !decision.Allowed {
		o.observeRateDenial(number.TribunalCode, string(decision.Window))
		denied := o.failure(processNumber, start, errors.Newf(errors.ErrCodeRateLimited,
			"orçamento de consultas do tribunal %s esgotado: %s", number.TribunalCode, decision.Reason))
		denied.RetryAfter = decision.WaitTime
		return denied
	}

	queryCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	result, err := executor.QueryProcess(queryCtx, number)
	cancel()
	if err != nil {
		err = errors.Wrap(err, errors.ErrCodeSourceError, "falha na consulta ao tribunal")
		o.logQuery(ctx, proc, ptypes.QueryError, err.Error(), o.clk.Now().Sub(start), false, 0)
		return o.failure(processNumber, start, err)
	}

	if !result.Status.IsSuccess() {
		srcErr := statusError(result)
		o.logQuery(ctx, proc, result.Status, result.ErrorDetail, o.clk.Now().Sub(start), false, 0)
		o.observeQuery(number.TribunalCode, string(result.Status), o.clk.Now().Sub(start))
		return o.failure(processNumber, start, srcErr)
	}

	if result.ContentHash == "" {
		result.ContentHash = novelty.HashMovements(result.Movements)
	}

	if o.cacheEnabled() {
		o.cache.Set(ctx, cacheKey, result, o.cfg.CacheTTL)
	}

	o.persistMovements(ctx, proc, result)
	o.archiveSnapshot(ctx, cacheKey, result)

	return o.finishQuery(ctx, proc, tribunalName, result, false, start)
}

// finishQuery runs novelty detection, updates the process snapshot, logs
// the outcome, and assembles the caller-facing result.  Detection and
// persistence failures degrade the result but never fail the query.
func (o *Orchestrator) finishQuery(ctx context.Context, proc *domproc.MonitoredProcess, tribunalName string, result *ptypes.ProcessQueryResult, fromCache bool, start time.Time) *ptypes.MovementQueryResult {
	detection, err := o.detector.ProcessMovements(ctx, proc.ID, result.Movements, proc.CNJNumber, tribunalName)
	if err != nil {
		o.logger.Warn("novelty detection failed",
			logging.String("cnj_number", proc.CNJNumber), logging.Err(err))
		detection = &novelty.DetectionResult{TotalMovements: len(result.Movements)}
	}

	if !fromCache {
		o.updateProcessSnapshot(ctx, proc, result)
	}

	duration := o.clk.Now().Sub(start)
	o.logQuery(ctx, proc, ptypes.QuerySuccess, "", duration, fromCache, detection.NewNovelties)
	o.observeQuery(proc.TribunalCode, "success", duration)

	out := &ptypes.MovementQueryResult{
		Success:        true,
		ProcessNumber:  proc.CNJNumber,
		TribunalName:   tribunalName,
		TotalMovements: len(result.Movements),
		NewMovements:   detection.NewNovelties,
		ContentHash:    result.ContentHash,
		FromCache:      fromCache,
		Duration:       duration,
	}
	for _, n := range detection.Created {
		out.Novelties = append(out.Novelties, ptypes.NoveltySummary{
			ID:        n.ID,
			ProcessID: n.ProcessID,
			Title:     n.Title,
			Priority:  string(n.Priority),
			Tags:      n.Tags,
			CreatedAt: n.CreatedAt,
			ExpiresAt: n.ExpiresAt,
		})
	}
	return out
}

// ensureProcess returns the persisted record for the process, creating it
// on first contact so movements and novelties have a stable owner.
func (o *Orchestrator) ensureProcess(ctx context.Context, ident *tribunal.Identification) (*domproc.MonitoredProcess, error) {
	existing, err := o.processes.GetByCNJ(ctx, ident.Number.CleanDigits())
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, errors.Wrap(err, errors.ErrCodePersistenceError, "falha ao carregar processo")
	}

	now := o.clk.Now()
	proc := &domproc.MonitoredProcess{
		ID:           common.NewID(),
		CNJNumber:    ident.Number.Formatted(),
		CleanDigits:  ident.Number.CleanDigits(),
		TribunalCode: ident.Number.TribunalCode,
		TribunalName: ident.Tribunal.Name,
		Status:       common.StatusActive,
		Priority:     common.PriorityMedium,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := o.processes.Create(ctx, proc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePersistenceError, "falha ao registrar processo")
	}
	return proc, nil
}

func (o *Orchestrator) persistMovements(ctx context.Context, proc *domproc.MonitoredProcess, result *ptypes.ProcessQueryResult) {
	if len(result.Movements) == 0 {
		return
	}
	now := o.clk.Now()
	records := make([]ptypes.MovementRecord, 0, len(result.Movements))
	for _, m := range result.Movements {
		records = append(records, ptypes.MovementRecord{
			ID:          common.NewID(),
			ProcessID:   proc.ID,
			Date:        m.Date,
			Title:       m.Title,
			Description: m.Description,
			IsJudicial:  m.IsJudicial,
			ContentHash: novelty.HashMovement(m),
			CreatedAt:   now,
		})
	}
	if _, err := o.movements.SaveBatch(ctx, proc.ID, records); err != nil {
		o.logger.Warn("movement persistence failed",
			logging.String("cnj_number", proc.CNJNumber), logging.Err(err))
	}
}

func (o *Orchestrator) updateProcessSnapshot(ctx context.Context, proc *domproc.MonitoredProcess, result *ptypes.ProcessQueryResult) {
	now := o.clk.Now()
	proc.LastContentHash = result.ContentHash
	proc.LastQueriedAt = &now
	proc.MovementCount = len(result.Movements)
	proc.UpdatedAt = now
	if err := o.processes.Update(ctx, proc); err != nil {
		o.logger.Warn("process snapshot update failed",
			logging.String("cnj_number", proc.CNJNumber), logging.Err(err))
	}
}

func (o *Orchestrator) logQuery(ctx context.Context, proc *domproc.MonitoredProcess, status ptypes.QueryStatus, detail string, duration time.Duration, fromCache bool, newMovements int) {
	entry := &domproc.QueryLog{
		ID:           common.NewID(),
		ProcessID:    proc.ID,
		CNJNumber:    proc.CNJNumber,
		TribunalCode: proc.TribunalCode,
		Status:       status,
		ErrorDetail:  detail,
		Duration:     duration,
		FromCache:    fromCache,
		NewMovements: newMovements,
		QueriedAt:    o.clk.Now(),
	}
	if err := o.logs.Log(ctx, entry); err != nil {
		o.logger.Warn("query log write failed",
			logging.String("cnj_number", proc.CNJNumber), logging.Err(err))
	}
}

func (o *Orchestrator) archiveSnapshot(ctx context.Context, key string, result *ptypes.ProcessQueryResult) {
	if o.archive == nil {
		return
	}
	go func() {
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := o.archive.Archive(archiveCtx, key, result); err != nil {
			o.logger.Warn("snapshot archive failed", logging.String("key", key), logging.Err(err))
			o.observeArchive("failure")
			return
		}
		o.observeArchive("success")
	}()
}

func (o *Orchestrator) failure(processNumber string, start time.Time, err error) *ptypes.MovementQueryResult {
	return &ptypes.MovementQueryResult{
		Success:       false,
		ProcessNumber: processNumber,
		Duration:      o.clk.Now().Sub(start),
		ErrorCode:     string(errors.GetCode(err)),
		ErrorMessage:  err.Error(),
	}
}

func (o *Orchestrator) cacheEnabled() bool {
	return o.cache != nil && o.cfg.CacheEnabled
}

func (o *Orchestrator) observeQuery(tribunalCode, status string, d time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.QueriesTotal.WithLabelValues(tribunalCode, status).Inc()
	o.metrics.QueryDuration.WithLabelValues(tribunalCode).Observe(d.Seconds())
}

func (o *Orchestrator) observeCache(tier string, hit bool) {
	if o.metrics == nil {
		return
	}
	if hit {
		o.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	} else {
		o.metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	}
}

func (o *Orchestrator) observeRateDenial(tribunalCode, window string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RateLimitDenials.WithLabelValues(tribunalCode, window).Inc()
}

func (o *Orchestrator) observeArchive(status string) {
	if o.metrics == nil {
		return
	}
	o.metrics.SnapshotArchiveTotal.WithLabelValues(status).Inc()
}

// statusError maps a non-success query status to its error code.
func statusError(result *ptypes.ProcessQueryResult) error {
	detail := result.ErrorDetail
	switch result.Status {
	case ptypes.QueryNotFound:
		return errors.New(errors.ErrCodeSourceNotFound, "processo não encontrado no tribunal").WithDetail(detail)
	case ptypes.QueryBlocked:
		return errors.New(errors.ErrCodeSourceBlocked, "acesso bloqueado pelo tribunal").WithDetail(detail)
	case ptypes.QueryTimeout:
		return errors.New(errors.ErrCodeSourceTimeout, "tempo de consulta esgotado").WithDetail(detail)
	case ptypes.QueryRateLimited:
		return errors.New(errors.ErrCodeSourceRateLimited, "tribunal limitou as consultas").WithDetail(detail)
	default:
		return errors.New(errors.ErrCodeSourceError, "erro na consulta ao tribunal").WithDetail(detail)
	}
}
