package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

const noveltyColumns = `id, process_id, cnj_number, tribunal_name, title, description,
	       date, content_hash, priority, tags, is_read, created_at, expires_at`

// NoveltyRepository persists novelties and serves the seen-hash sets the
// detector dedups against.  Seen hashes come from the movements table, not
// from the novelties themselves: novelties expire after the TTL, movement
// history does not, so an old movement never re-triggers a novelty.
type NoveltyRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewNoveltyRepository constructs a ready-to-use NoveltyRepository.
func NewNoveltyRepository(pool *pgxpool.Pool, logger logging.Logger) *NoveltyRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NoveltyRepository{pool: pool, logger: logger}
}

// SeenHashes returns the content hashes of every movement already recorded
// for the process.
func (r *NoveltyRepository) SeenHashes(ctx context.Context, processID common.ID) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT content_hash FROM movements WHERE process_id = $1`, processID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao carregar hashes conhecidos")
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao ler hash")
		}
		seen[hash] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao iterar hashes")
	}
	return seen, nil
}

// Create inserts one novelty.
func (r *NoveltyRepository) Create(ctx context.Context, n *novelty.Novelty) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO novelties (`+noveltyColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		n.ID, n.ProcessID, n.CNJNumber, n.TribunalName, n.Title, n.Description,
		n.Date, n.ContentHash, n.Priority, n.Tags, n.IsRead, n.CreatedAt, n.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("novelty insert failed",
			logging.String("process_id", n.ProcessID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao inserir novidade")
	}
	return nil
}

// GetUnread returns unread, unexpired novelties ordered by priority then
// creation time, newest first within a priority.
func (r *NoveltyRepository) GetUnread(ctx context.Context, limit int) ([]*novelty.Novelty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+noveltyColumns+`
		FROM novelties
		WHERE NOT is_read AND expires_at > NOW()
		ORDER BY CASE priority
		           WHEN 'urgent' THEN 0
		           WHEN 'high'   THEN 1
		           WHEN 'medium' THEN 2
		           WHEN 'low'    THEN 3
		           ELSE 4
		         END,
		         created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao listar novidades")
	}
	defer rows.Close()
	return scanNovelties(rows)
}

// GetByProcess returns every novelty of a process, newest first.
func (r *NoveltyRepository) GetByProcess(ctx context.Context, processID common.ID) ([]*novelty.Novelty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+noveltyColumns+`
		FROM novelties
		WHERE process_id = $1
		ORDER BY created_at DESC`, processID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao listar novidades do processo")
	}
	defer rows.Close()
	return scanNovelties(rows)
}

// MarkAsRead marks the given novelties as read and returns how many changed.
func (r *NoveltyRepository) MarkAsRead(ctx context.Context, ids []common.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE novelties SET is_read = TRUE WHERE id = ANY($1) AND NOT is_read`, raw)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao marcar novidades como lidas")
	}
	return int(tag.RowsAffected()), nil
}

// MarkProcessAsRead marks every unread novelty of a process as read.
func (r *NoveltyRepository) MarkProcessAsRead(ctx context.Context, processID common.ID) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE novelties SET is_read = TRUE WHERE process_id = $1 AND NOT is_read`, processID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao marcar processo como lido")
	}
	return int(tag.RowsAffected()), nil
}

// DeleteOldestExcess trims the process to at most keep novelties, removing
// the oldest-created first, and returns the number removed.
func (r *NoveltyRepository) DeleteOldestExcess(ctx context.Context, processID common.ID, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM novelties
		WHERE id IN (
			SELECT id FROM novelties
			WHERE process_id = $1
			ORDER BY created_at DESC
			OFFSET $2
		)`, processID, keep)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao aparar novidades excedentes")
	}
	return int(tag.RowsAffected()), nil
}

// DeleteExpired removes every novelty past its expiry.
func (r *NoveltyRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM novelties WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao remover novidades expiradas")
	}
	return int(tag.RowsAffected()), nil
}

func scanNovelties(rows pgx.Rows) ([]*novelty.Novelty, error) {
	var result []*novelty.Novelty
	for rows.Next() {
		var n novelty.Novelty
		if err := rows.Scan(
			&n.ID, &n.ProcessID, &n.CNJNumber, &n.TribunalName, &n.Title, &n.Description,
			&n.Date, &n.ContentHash, &n.Priority, &n.Tags, &n.IsRead, &n.CreatedAt, &n.ExpiresAt,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao ler novidade")
		}
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "falha ao iterar novidades")
	}
	return result, nil
}
