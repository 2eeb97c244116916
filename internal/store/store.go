// Package store provides the audit journal of confirmed status transitions.
package store

import (
	"context"

	"github.com/ashureev/hms-console/internal/domain"
)

// Repository persists confirmed appointment status transitions.
// It is append-only; views never read collections from it.
type Repository interface {
	// RecordTransition appends one confirmed transition.
	RecordTransition(ctx context.Context, t *domain.Transition) error

	// ListTransitions returns the newest transitions for a record key first.
	// A limit <= 0 means no limit.
	ListTransitions(ctx context.Context, recordKey string, limit int) ([]*domain.Transition, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
