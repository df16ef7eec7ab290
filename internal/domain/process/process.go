// Package process defines the monitored process aggregate, the query
// executor port implemented per tribunal, and the persistence ports the
// orchestrator depends on.
package process

import (
	"context"
	"time"

	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	"github.com/vigiajus/vigiajus/pkg/types/process"
)

// MonitoredProcess is a judicial process under active monitoring.
type MonitoredProcess struct {
	ID           common.ID       `json:"id"`
	CNJNumber    string          `json:"cnj_number"`
	CleanDigits  string          `json:"clean_digits"`
	TribunalCode string          `json:"tribunal_code"`
	TribunalName string          `json:"tribunal_name"`
	Status       common.Status   `json:"status"`
	Priority     common.Priority `json:"priority"`

	FrequencyHours float64 `json:"frequency_hours"`

	// Snapshot of the last successful query.
	LastContentHash string     `json:"last_content_hash,omitempty"`
	LastQueriedAt   *time.Time `json:"last_queried_at,omitempty"`
	MovementCount   int        `json:"movement_count"`

	Metadata  common.Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// QueryLog is one recorded query attempt, kept for statistics and purged
// by the cleanup job after the retention window.
type QueryLog struct {
	ID           common.ID           `json:"id"`
	ProcessID    common.ID           `json:"process_id"`
	CNJNumber    string              `json:"cnj_number"`
	TribunalCode string              `json:"tribunal_code"`
	Status       process.QueryStatus `json:"status"`
	ErrorDetail  string              `json:"error_detail,omitempty"`
	Duration     time.Duration       `json:"duration"`
	FromCache    bool                `json:"from_cache"`
	NewMovements int                 `json:"new_movements"`
	QueriedAt    time.Time           `json:"queried_at"`
}

// TribunalStats aggregates query outcomes per tribunal.
type TribunalStats struct {
	TribunalCode string        `json:"tribunal_code"`
	TotalQueries int           `json:"total_queries"`
	Successes    int           `json:"successes"`
	Failures     int           `json:"failures"`
	AvgDuration  time.Duration `json:"avg_duration"`
}

// Repository is the persistence port for monitored processes.
type Repository interface {
	Create(ctx context.Context, p *MonitoredProcess) error
	GetByID(ctx context.Context, id common.ID) (*MonitoredProcess, error)
	GetByCNJ(ctx context.Context, cleanDigits string) (*MonitoredProcess, error)
	Update(ctx context.Context, p *MonitoredProcess) error
	List(ctx context.Context, page common.Pagination) ([]*MonitoredProcess, int, error)
	Delete(ctx context.Context, id common.ID) error
}

// MovementRepository persists the movement history of monitored processes.
type MovementRepository interface {
	// SaveBatch inserts the records, skipping content hashes already
	// stored for the process.  Returns the number actually inserted.
	SaveBatch(ctx context.Context, processID common.ID, records []process.MovementRecord) (int, error)
	GetByProcess(ctx context.Context, processID common.ID, page common.Pagination) ([]*process.MovementRecord, int, error)
}

// QueryLogRepository records query attempts and serves statistics.
type QueryLogRepository interface {
	Log(ctx context.Context, entry *QueryLog) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int, error)
	GetTribunalStats(ctx context.Context, since time.Time) ([]*TribunalStats, error)
}

// QueryExecutor is the per-tribunal outbound port that actually talks to
// the court's consultation system.
type QueryExecutor interface {
	// QueryProcess fetches the current movement list.  Transport-level
	// failures are reported through the result status, not the error;
	// the error is reserved for programming mistakes.
	QueryProcess(ctx context.Context, number *cnj.ProcessNumber) (*process.ProcessQueryResult, error)
}
