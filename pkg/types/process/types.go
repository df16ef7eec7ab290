// Package process defines the wire-level types exchanged with per-tribunal
// query executors and returned by the public orchestrator API.  These types
// are the boundary contract: tribunal scrapers produce ProcessQueryResult,
// the engine consumes it, and MovementQueryResult is what callers receive.
package process

import (
	"time"

	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// QueryStatus is the outcome reported by a tribunal query executor.
type QueryStatus string

const (
	QuerySuccess     QueryStatus = "success"
	QueryNotFound    QueryStatus = "not_found"
	QueryError       QueryStatus = "error"
	QueryBlocked     QueryStatus = "blocked"
	QueryTimeout     QueryStatus = "timeout"
	QueryRateLimited QueryStatus = "rate_limit"
)

// IsSuccess reports whether the status represents a usable result.
func (s QueryStatus) IsSuccess() bool { return s == QuerySuccess }

// Movement is a single procedural event recorded against a judicial
// process, as reported by a tribunal data source.
type Movement struct {
	// Date is when the movement was recorded by the tribunal.
	Date time.Time `json:"date"`

	// Title is the short movement headline (e.g. "Juntada de petição").
	Title string `json:"title"`

	// Description is the full movement text, possibly empty.
	Description string `json:"description"`

	// IsJudicial distinguishes judicial acts from clerical annotations.
	IsJudicial bool `json:"is_judicial"`

	// Type is the tribunal's declared movement type code, when available.
	// Used for exact-match priority classification before keyword rules.
	Type string `json:"type,omitempty"`

	// Author is the actor that produced the movement (judge, clerk, party).
	Author string `json:"author,omitempty"`

	// Attachments counts documents attached to the movement.
	Attachments int `json:"attachments,omitempty"`
}

// BasicInfo carries the process header returned alongside movements.
type BasicInfo struct {
	Subject      string `json:"subject,omitempty"`
	Court        string `json:"court,omitempty"`
	Judge        string `json:"judge,omitempty"`
	Plaintiff    string `json:"plaintiff,omitempty"`
	Defendant    string `json:"defendant,omitempty"`
	CurrentPhase string `json:"current_phase,omitempty"`
	Value        string `json:"value,omitempty"`
}

// ProcessQueryResult is the raw outcome of one tribunal query.
type ProcessQueryResult struct {
	Status      QueryStatus `json:"status"`
	BasicInfo   *BasicInfo  `json:"basic_info,omitempty"`
	Movements   []Movement  `json:"movements,omitempty"`
	ContentHash string      `json:"content_hash,omitempty"`
	ErrorDetail string      `json:"error_detail,omitempty"`
	QueriedAt   time.Time   `json:"queried_at"`
}

// MovementRecord is a persisted movement with its dedup identity.
// Immutable once persisted; ContentHash is the dedup key consumed by the
// novelty detector.
type MovementRecord struct {
	ID          common.ID `json:"id"`
	ProcessID   common.ID `json:"process_id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsJudicial  bool      `json:"is_judicial"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// NoveltySummary is the caller-facing projection of a created novelty.
type NoveltySummary struct {
	ID        common.ID `json:"id"`
	ProcessID common.ID `json:"process_id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MovementQueryResult is the unified result of the public QueryMovements
// operation.  It always carries a success flag and a structured error
// description instead of a raw error value.
type MovementQueryResult struct {
	Success        bool             `json:"success"`
	ProcessNumber  string           `json:"process_number"`
	TribunalName   string           `json:"tribunal_name,omitempty"`
	TotalMovements int              `json:"total_movements"`
	NewMovements   int              `json:"new_movements"`
	Novelties      []NoveltySummary `json:"novelties,omitempty"`
	ContentHash    string           `json:"content_hash,omitempty"`
	FromCache      bool             `json:"from_cache"`
	Duration       time.Duration    `json:"duration"`
	ErrorCode      string           `json:"error_code,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`

	// RetryAfter hints when a budget-denied query may be retried.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}
