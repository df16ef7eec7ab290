package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// MovementRepository persists the movement history of monitored processes.
// The (process_id, content_hash) unique constraint is what makes SaveBatch
// idempotent across repeated queries of the same process.
type MovementRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewMovementRepository constructs a ready-to-use MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool, logger logging.Logger) *MovementRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MovementRepository{pool: pool, logger: logger}
}

// SaveBatch inserts the records inside one transaction, skipping content
// hashes already stored for the process, and returns the number actually
// inserted.
func (r *MovementRepository) SaveBatch(ctx context.Context, processID common.ID, records []ptypes.MovementRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao iniciar transação")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inserted := 0
	for _, rec := range records {
		tag, err := tx.Exec(ctx, `
			INSERT INTO movements (id, process_id, date, title, description, is_judicial, content_hash, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (process_id, content_hash) DO NOTHING`,
			rec.ID, processID, rec.Date, rec.Title, rec.Description, rec.IsJudicial, rec.ContentHash, rec.CreatedAt,
		)
		if err != nil {
			r.logger.Error("movement insert failed",
				logging.String("process_id", processID.String()), logging.Err(err))
			return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao inserir movimentação")
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao confirmar transação")
	}
	return inserted, nil
}

// GetByProcess returns a page of movements for a process, newest first,
// with the total count.
func (r *MovementRepository) GetByProcess(ctx context.Context, processID common.ID, page common.Pagination) ([]*ptypes.MovementRecord, int, error) {
	page.Normalize()

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM movements WHERE process_id = $1`, processID,
	).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao contar movimentações")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, process_id, date, title, description, is_judicial, content_hash, created_at
		FROM movements
		WHERE process_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3`, processID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao listar movimentações")
	}
	defer rows.Close()

	var result []*ptypes.MovementRecord
	for rows.Next() {
		var rec ptypes.MovementRecord
		if err := rows.Scan(&rec.ID, &rec.ProcessID, &rec.Date, &rec.Title,
			&rec.Description, &rec.IsJudicial, &rec.ContentHash, &rec.CreatedAt); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao ler movimentação")
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao iterar movimentações")
	}
	return result, total, nil
}
