package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// GradingStore defines the interface for grading history persistence.
// Grading records are append-only: an attempt happened, passed or failed,
// and the history is never edited afterwards.
type GradingStore interface {
	// Create saves a new grading record.
	// It handles domain validation internally.
	// Returns validation errors from the domain GradingRecord if data is invalid.
	Create(ctx context.Context, record *domain.GradingRecord) error

	// ListByProfile retrieves the profile's grading history, oldest first,
	// which reads as the belt journey. Returns an empty slice if the profile
	// has never graded.
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*domain.GradingRecord, error)

	// DeleteByProfile removes every grading record owned by the profile.
	// Deleting zero rows is not an error.
	// Used by profile deletion, which must run inside a transaction.
	DeleteByProfile(ctx context.Context, profileID uuid.UUID) error

	// WithTx returns a new GradingStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) GradingStore
}
