// Package common defines the shared primitive types used across the
// VigiaJus monitoring engine: identifiers, pagination, and the generic
// status vocabulary shared by schedules and monitored processes.
package common

import (
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// NewID generates a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// String returns the raw string form of the ID.
func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool { return id == "" }

// Metadata is an open-ended key-value bag attached to entities.
type Metadata map[string]interface{}

// Status represents the lifecycle state of a platform entity.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// Pagination defines parameters for paginated queries.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// Normalize clamps pagination parameters to sane bounds.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset returns the row offset implied by the pagination parameters.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TimeRange is a half-open interval [From, To).
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}
