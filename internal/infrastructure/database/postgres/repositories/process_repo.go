// Package repositories provides the PostgreSQL-backed implementations of
// the persistence ports declared by the domain packages.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

const processColumns = `id, cnj_number, clean_digits, tribunal_code, tribunal_name,
	       status, priority, frequency_hours, last_content_hash, last_queried_at,
	       movement_count, metadata, created_at, updated_at`

// ProcessRepository persists monitored processes.
type ProcessRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewProcessRepository constructs a ready-to-use ProcessRepository.
func NewProcessRepository(pool *pgxpool.Pool, logger logging.Logger) *ProcessRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ProcessRepository{pool: pool, logger: logger}
}

// Create inserts a new monitored process.  A process with the same clean
// digits already on file is a conflict.
func (r *ProcessRepository) Create(ctx context.Context, p *domproc.MonitoredProcess) error {
	metaJSON, _ := json.Marshal(p.Metadata)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO processes (`+processColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.CNJNumber, p.CleanDigits, p.TribunalCode, p.TribunalName,
		p.Status, p.Priority, p.FrequencyHours, nullIfEmpty(p.LastContentHash), p.LastQueriedAt,
		p.MovementCount, metaJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("process insert failed",
			logging.String("process_id", p.ID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao inserir processo")
	}
	return nil
}

// GetByID loads a process by primary key.
func (r *ProcessRepository) GetByID(ctx context.Context, id common.ID) (*domproc.MonitoredProcess, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+processColumns+` FROM processes WHERE id = $1`, id)
	return scanProcess(row)
}

// GetByCNJ loads a process by the 20-digit form of its number.
func (r *ProcessRepository) GetByCNJ(ctx context.Context, cleanDigits string) (*domproc.MonitoredProcess, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+processColumns+` FROM processes WHERE clean_digits = $1`, cleanDigits)
	return scanProcess(row)
}

// Update rewrites the mutable columns of a process.
func (r *ProcessRepository) Update(ctx context.Context, p *domproc.MonitoredProcess) error {
	metaJSON, _ := json.Marshal(p.Metadata)

	tag, err := r.pool.Exec(ctx, `
		UPDATE processes SET
			status=$1, priority=$2, frequency_hours=$3,
			last_content_hash=$4, last_queried_at=$5, movement_count=$6,
			metadata=$7, updated_at=$8
		WHERE id=$9`,
		p.Status, p.Priority, p.FrequencyHours,
		nullIfEmpty(p.LastContentHash), p.LastQueriedAt, p.MovementCount,
		metaJSON, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("process update failed",
			logging.String("process_id", p.ID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao atualizar processo")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("processo não encontrado").WithDetail(fmt.Sprintf("id=%s", p.ID))
	}
	return nil
}

// List returns a page of processes, newest first, with the total count.
func (r *ProcessRepository) List(ctx context.Context, page common.Pagination) ([]*domproc.MonitoredProcess, int, error) {
	page.Normalize()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM processes`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao contar processos")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+processColumns+`
		FROM processes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao listar processos")
	}
	defer rows.Close()

	var result []*domproc.MonitoredProcess
	for rows.Next() {
		p, err := scanProcessRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao iterar processos")
	}
	return result, total, nil
}

// Delete removes a process; movements, novelties and logs follow by cascade.
func (r *ProcessRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM processes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao remover processo")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("processo não encontrado").WithDetail(fmt.Sprintf("id=%s", id))
	}
	return nil
}

func scanProcess(row pgx.Row) (*domproc.MonitoredProcess, error) {
	p, err := scanProcessInto(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("processo não encontrado")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao ler processo")
	}
	return p, nil
}

func scanProcessRow(rows pgx.Rows) (*domproc.MonitoredProcess, error) {
	p, err := scanProcessInto(rows)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao ler processo")
	}
	return p, nil
}

func scanProcessInto(row pgx.Row) (*domproc.MonitoredProcess, error) {
	var (
		p        domproc.MonitoredProcess
		hash     *string
		queried  *time.Time
		metaJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.CNJNumber, &p.CleanDigits, &p.TribunalCode, &p.TribunalName,
		&p.Status, &p.Priority, &p.FrequencyHours, &hash, &queried,
		&p.MovementCount, &metaJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		p.LastContentHash = *hash
	}
	p.LastQueriedAt = queried
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &p.Metadata)
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
