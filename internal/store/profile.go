package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// ProfileStore defines the interface for learner profile persistence.
type ProfileStore interface {
	// Create saves a new learner profile to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain LearnerProfile if data is invalid.
	Create(ctx context.Context, profile *domain.LearnerProfile) error

	// GetByID retrieves a profile by its unique ID.
	// Returns ErrProfileNotFound if the profile does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error)

	// ListByUser retrieves all profiles owned by the given user, oldest first.
	// Returns an empty slice if the user has no profiles.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LearnerProfile, error)

	// Update saves changes to an existing profile.
	// The caller must provide a complete profile object.
	// Returns ErrProfileNotFound if the profile does not exist.
	// Returns validation errors if the profile data is invalid.
	Update(ctx context.Context, profile *domain.LearnerProfile) error

	// Delete removes a profile row by its ID.
	//
	// IMPORTANT: This method removes only the profile row itself. Dependent
	// records (review progress, study sessions, grading history) are NOT
	// removed here; the schema restricts rather than cascades, so callers
	// must delete dependents first within a single transaction. Profile
	// deletion is a service-layer orchestration, not a store concern.
	//
	// Returns ErrProfileNotFound if the profile does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// LapseStreaks zeroes the streak of every profile whose last activity
	// falls strictly before the cutoff. Profiles already at zero are left
	// untouched. Returns the number of streaks lapsed.
	LapseStreaks(ctx context.Context, cutoff time.Time) (int64, error)

	// WithTx returns a new ProfileStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ProfileStore
}
