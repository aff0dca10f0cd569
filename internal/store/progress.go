package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// ProgressStore defines the interface for review progress persistence.
// Progress rows are unique per (profile, item, kind); one learner's
// scheduling state never touches another's.
type ProgressStore interface {
	// Create saves a new review progress record.
	// It handles domain validation internally.
	// Returns ErrProgressExists if the profile already has a record for the item.
	// Returns validation errors from the domain ReviewProgress if data is invalid.
	Create(ctx context.Context, progress *domain.ReviewProgress) error

	// GetByID retrieves a progress record by its unique ID.
	// Returns ErrProgressNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewProgress, error)

	// Get retrieves the progress record for one profile/item combination.
	// Returns ErrProgressNotFound if the profile has never reviewed the item.
	// NOTE: This method does NOT provide any row locking, so it should not be
	// used when you plan to update the row and need concurrency protection.
	Get(
		ctx context.Context,
		profileID uuid.UUID,
		itemID string,
		kind domain.ItemKind,
	) (*domain.ReviewProgress, error)

	// GetForUpdate retrieves a progress record with a row-level lock using
	// SELECT FOR UPDATE. This should be used within a transaction when you
	// plan to update the row and need protection from concurrent modifications.
	// Returns ErrProgressNotFound if the record does not exist.
	GetForUpdate(
		ctx context.Context,
		profileID uuid.UUID,
		itemID string,
		kind domain.ItemKind,
	) (*domain.ReviewProgress, error)

	// ListByProfile retrieves all progress records for a profile, restricted
	// to one item kind when kind is non-empty. Records come back in item
	// order. Returns an empty slice if the profile has no matching records.
	ListByProfile(
		ctx context.Context,
		profileID uuid.UUID,
		kind domain.ItemKind,
	) ([]*domain.ReviewProgress, error)

	// Update saves changes to an existing progress record.
	// It handles domain validation internally.
	// Returns ErrProgressNotFound if the record does not exist.
	// Returns validation errors from the domain ReviewProgress if data is invalid.
	Update(ctx context.Context, progress *domain.ReviewProgress) error

	// DeleteByProfile removes every progress record owned by the profile.
	// Deleting zero rows is not an error; a fresh profile has no progress.
	// Used by profile deletion, which must run inside a transaction.
	DeleteByProfile(ctx context.Context, profileID uuid.UUID) error

	// WithTx returns a new ProgressStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ProgressStore
}
