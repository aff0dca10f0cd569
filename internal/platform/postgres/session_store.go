package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/platform/logger"
	"github.com/tkdojang/dojang-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create
// It saves a new study session, handling domain validation.
// Returns store.ErrInvalidEntity if the profile doesn't exist (foreign key violation).
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate session data
	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO study_sessions (id, profile_id, session_type, card_count,
			correct_count, incorrect_count, duration_seconds,
			started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.ProfileID,
		session.SessionType,
		session.CardCount,
		session.CorrectCount,
		session.IncorrectCount,
		session.DurationSeconds,
		session.StartedAt,
		session.CompletedAt,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during session creation",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()),
				slog.String("profile_id", session.ProfileID.String()))
			return fmt.Errorf("%w: profile with ID %s not found",
				store.ErrInvalidEntity, session.ProfileID)
		}

		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("profile_id", session.ProfileID.String()),
		slog.String("session_type", string(session.SessionType)),
		slog.Int("card_count", session.CardCount))
	return nil
}

// GetByID implements store.SessionStore.GetByID
// It retrieves a session by its unique ID.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, profile_id, session_type, card_count, correct_count,
			incorrect_count, duration_seconds, started_at, completed_at,
			created_at, updated_at
		FROM study_sessions
		WHERE id = $1
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, err
	}

	return session, nil
}

// ListByProfile implements store.SessionStore.ListByProfile
// It retrieves the profile's sessions, most recent first. A limit of zero
// means no limit.
// Returns an empty slice if the profile has no sessions.
func (s *PostgresSessionStore) ListByProfile(
	ctx context.Context,
	profileID uuid.UUID,
	limit, offset int,
) ([]*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if offset < 0 {
		offset = 0
	}

	log.Debug("listing sessions by profile",
		slog.String("profile_id", profileID.String()),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	var query string
	var args []interface{}

	if limit > 0 {
		query = `
			SELECT id, profile_id, session_type, card_count, correct_count,
				incorrect_count, duration_seconds, started_at, completed_at,
				created_at, updated_at
			FROM study_sessions
			WHERE profile_id = $1
			ORDER BY started_at DESC
			LIMIT $2 OFFSET $3
		`
		args = []interface{}{profileID, limit, offset}
	} else {
		query = `
			SELECT id, profile_id, session_type, card_count, correct_count,
				incorrect_count, duration_seconds, started_at, completed_at,
				created_at, updated_at
			FROM study_sessions
			WHERE profile_id = $1
			ORDER BY started_at DESC
			OFFSET $2
		`
		args = []interface{}{profileID, offset}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query sessions by profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var sessions []*domain.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row",
				slog.String("error", err.Error()))
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no sessions found
	if sessions == nil {
		sessions = []*domain.StudySession{}
	}

	log.Debug("listed sessions by profile",
		slog.String("profile_id", profileID.String()),
		slog.Int("count", len(sessions)))
	return sessions, nil
}

// Update implements store.SessionStore.Update
// It saves changes to an existing session, typically its completion.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate session data
	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	session.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE study_sessions
		SET correct_count = $1, incorrect_count = $2, duration_seconds = $3,
			completed_at = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.CorrectCount,
		session.IncorrectCount,
		session.DurationSeconds,
		session.CompletedAt,
		session.UpdatedAt,
		session.ID,
	)

	if err != nil {
		log.Error("failed to update session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("session not found for update",
			slog.String("session_id", session.ID.String()))
		return store.ErrSessionNotFound
	}

	log.Info("session updated successfully",
		slog.String("session_id", session.ID.String()))
	return nil
}

// DeleteByProfile implements store.SessionStore.DeleteByProfile
// It removes every session owned by the profile. Deleting zero rows is not
// an error.
func (s *PostgresSessionStore) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM study_sessions
		WHERE profile_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, profileID)
	if err != nil {
		log.Error("failed to delete sessions by profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return err
	}

	log.Info("sessions deleted for profile",
		slog.String("profile_id", profileID.String()),
		slog.Int64("count", rowsAffected))
	return nil
}

// WithTx implements store.SessionStore.WithTx
// It returns a new SessionStore that runs its operations on the given transaction.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanSession reads one study_sessions row in column order.
func scanSession(row rowScanner) (*domain.StudySession, error) {
	var session domain.StudySession
	var sessionType string

	err := row.Scan(
		&session.ID,
		&session.ProfileID,
		&sessionType,
		&session.CardCount,
		&session.CorrectCount,
		&session.IncorrectCount,
		&session.DurationSeconds,
		&session.StartedAt,
		&session.CompletedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.SessionType = domain.SessionType(sessionType)
	return &session, nil
}
