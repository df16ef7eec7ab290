package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// QueryLogRepository records query attempts and serves the per-tribunal
// statistics consumed by the stats endpoint.  Durations are stored in
// milliseconds.
type QueryLogRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewQueryLogRepository constructs a ready-to-use QueryLogRepository.
func NewQueryLogRepository(pool *pgxpool.Pool, logger logging.Logger) *QueryLogRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &QueryLogRepository{pool: pool, logger: logger}
}

// Log appends one query attempt.
func (r *QueryLogRepository) Log(ctx context.Context, entry *domproc.QueryLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO query_logs (id, process_id, cnj_number, tribunal_code, status,
		                        error_detail, duration_ms, from_cache, new_movements, queried_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, entry.ProcessID, entry.CNJNumber, entry.TribunalCode, entry.Status,
		nullIfEmpty(entry.ErrorDetail), entry.Duration.Milliseconds(), entry.FromCache,
		entry.NewMovements, entry.QueriedAt,
	)
	if err != nil {
		r.logger.Error("query log insert failed",
			logging.String("tribunal", entry.TribunalCode), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao registrar consulta")
	}
	return nil
}

// DeleteOlderThan purges log entries queried before the cutoff and returns
// the number removed.  Called by the cleanup job.
func (r *QueryLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM query_logs WHERE queried_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao expurgar logs de consulta")
	}
	return int(tag.RowsAffected()), nil
}

// GetTribunalStats aggregates query outcomes per tribunal since the given
// instant, busiest tribunal first.
func (r *QueryLogRepository) GetTribunalStats(ctx context.Context, since time.Time) ([]*domproc.TribunalStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tribunal_code,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'success') AS successes,
		       COUNT(*) FILTER (WHERE status <> 'success') AS failures,
		       COALESCE(AVG(duration_ms), 0) AS avg_ms
		FROM query_logs
		WHERE queried_at >= $1
		GROUP BY tribunal_code
		ORDER BY total DESC`, since)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao agregar estatísticas")
	}
	defer rows.Close()

	var result []*domproc.TribunalStats
	for rows.Next() {
		var (
			s     domproc.TribunalStats
			avgMS float64
		)
		if err := rows.Scan(&s.TribunalCode, &s.TotalQueries, &s.Successes, &s.Failures, &avgMS); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao ler estatísticas")
		}
		s.AvgDuration = time.Duration(avgMS * float64(time.Millisecond))
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao iterar estatísticas")
	}
	return result, nil
}
