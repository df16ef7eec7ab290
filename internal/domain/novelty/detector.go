package novelty

import (
	"context"
	"fmt"
	"time"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	"github.com/vigiajus/vigiajus/pkg/types/process"
)

// Detector turns freshly polled movements into novelties: hash-based
// dedup, priority classification, tagging, TTL stamping, and per-process
// cap enforcement.
type Detector struct {
	repo      Repository
	rules     *RuleSet
	publisher EventPublisher
	clk       clock.Clock
	logger    logging.Logger

	ttl           time.Duration
	maxPerProcess int
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithPublisher attaches the novelty event publisher.
func WithPublisher(p EventPublisher) DetectorOption {
	return func(d *Detector) { d.publisher = p }
}

// WithDetectorClock overrides the clock, for tests.
func WithDetectorClock(c clock.Clock) DetectorOption {
	return func(d *Detector) { d.clk = c }
}

// NewDetector builds a detector.  ttl bounds each novelty's visibility;
// maxPerProcess caps how many a single process may accumulate.
func NewDetector(repo Repository, rules *RuleSet, ttl time.Duration, maxPerProcess int, logger logging.Logger, opts ...DetectorOption) *Detector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Detector{
		repo:          repo,
		rules:         rules,
		clk:           clock.System(),
		logger:        logger,
		ttl:           ttl,
		maxPerProcess: maxPerProcess,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProcessMovements runs detection over one poll's movement list.  Already
// seen movements are skipped; each new one becomes a Novelty.  The
// per-process cap is enforced after insertion by trimming the oldest.
func (d *Detector) ProcessMovements(ctx context.Context, processID common.ID, movements []process.Movement, cnjNumber, tribunalName string) (*DetectionResult, error) {
	seen, err := d.repo.SeenHashes(ctx, processID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePersistenceError, "falha ao carregar hashes conhecidos")
	}

	now := d.clk.Now()
	result := &DetectionResult{TotalMovements: len(movements)}

	for _, m := range movements {
		hash := HashMovement(m)
		if seen[hash] {
			continue
		}
		seen[hash] = true

		priority, matched := d.rules.Classify(m)
		n := &Novelty{
			ID:           common.NewID(),
			ProcessID:    processID,
			CNJNumber:    cnjNumber,
			TribunalName: tribunalName,
			Title:        m.Title,
			Description:  m.Description,
			Date:         m.Date,
			ContentHash:  hash,
			Priority:     priority,
			Tags:         buildTags(m, matched),
			CreatedAt:    now,
			ExpiresAt:    now.Add(d.ttl),
		}

		if err := d.repo.Create(ctx, n); err != nil {
			return result, errors.Wrap(err, errors.ErrCodePersistenceError, "falha ao criar novidade")
		}
		result.NewNovelties++
		result.Created = append(result.Created, n)

		if d.publisher != nil {
			if err := d.publisher.PublishNoveltyCreated(ctx, n); err != nil {
				d.logger.Warn("novelty event publish failed",
					logging.String("novelty_id", n.ID.String()),
					logging.String("cnj_number", cnjNumber),
					logging.Err(err))
			}
		}
	}

	if result.NewNovelties > 0 && d.maxPerProcess > 0 {
		trimmed, err := d.repo.DeleteOldestExcess(ctx, processID, d.maxPerProcess)
		if err != nil {
			d.logger.Warn("novelty cap enforcement failed",
				logging.String("process_id", processID.String()), logging.Err(err))
		} else {
			result.Trimmed = trimmed
		}
	}

	if result.NewNovelties > 0 {
		d.logger.Info("novelties detected",
			logging.String("cnj_number", cnjNumber),
			logging.Int("new", result.NewNovelties),
			logging.Int("total_movements", result.TotalMovements))
	}
	return result, nil
}

// GetUnread returns up to limit unread novelties.
func (d *Detector) GetUnread(ctx context.Context, limit int) ([]*Novelty, error) {
	if limit <= 0 {
		limit = 50
	}
	return d.repo.GetUnread(ctx, limit)
}

// MarkAsRead flags the given novelties as read.
func (d *Detector) MarkAsRead(ctx context.Context, ids []common.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return d.repo.MarkAsRead(ctx, ids)
}

// MarkProcessAsRead flags every novelty of a process as read.
func (d *Detector) MarkProcessAsRead(ctx context.Context, processID common.ID) (int, error) {
	return d.repo.MarkProcessAsRead(ctx, processID)
}

// RemoveExpired deletes every novelty past its expiry.  Invoked by the
// cleanup job.
func (d *Detector) RemoveExpired(ctx context.Context) (int, error) {
	return d.repo.DeleteExpired(ctx, d.clk.Now())
}

// buildTags derives display tags from the movement's declared type, the
// matched keywords, attachment count, and author.
func buildTags(m process.Movement, matchedKeywords []string) []string {
	var tags []string
	if m.Type != "" {
		tags = append(tags, "tipo:"+m.Type)
	}
	tags = append(tags, matchedKeywords...)
	if n := m.Attachments; n > 0 {
		tags = append(tags, fmt.Sprintf("anexos:%d", n))
	}
	if m.Author != "" {
		tags = append(tags, "autor:"+m.Author)
	}
	if m.IsJudicial {
		tags = append(tags, "judicial")
	}
	return tags
}
