package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// Maintenance refreshes planner statistics on the hot tables.  Plugged into
// the cleanup job, which runs it after the retention purges.
type Maintenance struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewMaintenance constructs the maintenance task.
func NewMaintenance(pool *pgxpool.Pool, logger logging.Logger) *Maintenance {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Maintenance{pool: pool, logger: logger}
}

// RunMaintenance analyzes the tables the cleanup job just churned.
func (m *Maintenance) RunMaintenance(ctx context.Context) error {
	for _, table := range []string{"novelties", "query_logs", "movements"} {
		if _, err := m.pool.Exec(ctx, "ANALYZE "+table); err != nil {
			m.logger.Warn("analyze failed", logging.String("table", table), logging.Err(err))
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "falha na manutenção do banco")
		}
	}
	return nil
}
