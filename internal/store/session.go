package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// SessionStore defines the interface for study session persistence.
type SessionStore interface {
	// Create saves a new study session to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain StudySession if data is invalid.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// ListByProfile retrieves the profile's sessions, most recent first.
	// Results can be limited and paginated through offset; a limit of zero
	// means no limit. Returns an empty slice if the profile has no sessions.
	ListByProfile(
		ctx context.Context,
		profileID uuid.UUID,
		limit, offset int,
	) ([]*domain.StudySession, error)

	// Update saves changes to an existing session, typically its completion.
	// Returns ErrSessionNotFound if the session does not exist.
	// Returns validation errors if the session data is invalid.
	Update(ctx context.Context, session *domain.StudySession) error

	// DeleteByProfile removes every session owned by the profile.
	// Deleting zero rows is not an error.
	// Used by profile deletion, which must run inside a transaction.
	DeleteByProfile(ctx context.Context, profileID uuid.UUID) error

	// WithTx returns a new SessionStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) SessionStore
}
