// Package novelty detects movements newly observed since the last
// successful poll of a process, assigns them a priority from configurable
// keyword rules, and manages their bounded lifetime.
package novelty

import (
	"context"
	"time"

	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// Novelty is one newly observed movement.  Visible until ExpiresAt and
// then removed by the cleanup sweep.
type Novelty struct {
	ID           common.ID       `json:"id"`
	ProcessID    common.ID       `json:"process_id"`
	CNJNumber    string          `json:"cnj_number"`
	TribunalName string          `json:"tribunal_name"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	ContentHash  string          `json:"content_hash"`
	Priority     common.Priority `json:"priority"`
	Tags         []string        `json:"tags,omitempty"`
	IsRead       bool            `json:"is_read"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// Repository is the persistence port for novelties and the per-process
// seen-hash sets consumed by the detector.
type Repository interface {
	// SeenHashes returns the content hashes of every movement already
	// recorded for the process.
	SeenHashes(ctx context.Context, processID common.ID) (map[string]bool, error)

	Create(ctx context.Context, n *Novelty) error

	// GetUnread returns unread, unexpired novelties ordered by priority
	// then creation time, newest first within a priority.
	GetUnread(ctx context.Context, limit int) ([]*Novelty, error)

	GetByProcess(ctx context.Context, processID common.ID) ([]*Novelty, error)

	MarkAsRead(ctx context.Context, ids []common.ID) (int, error)
	MarkProcessAsRead(ctx context.Context, processID common.ID) (int, error)

	// DeleteOldestExcess trims the process to at most keep novelties,
	// removing the oldest-created first.  Returns the number removed.
	DeleteOldestExcess(ctx context.Context, processID common.ID, keep int) (int, error)

	// DeleteExpired removes every novelty past its expiry.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// EventPublisher is the outbound port notifying downstream consumers of
// created novelties.  Publishing is best-effort; failures never abort
// detection.
type EventPublisher interface {
	PublishNoveltyCreated(ctx context.Context, n *Novelty) error
}

// DetectionResult summarizes one ProcessMovements run.
type DetectionResult struct {
	TotalMovements int        `json:"total_movements"`
	NewNovelties   int        `json:"new_novelties"`
	Trimmed        int        `json:"trimmed"`
	Created        []*Novelty `json:"created,omitempty"`
}
