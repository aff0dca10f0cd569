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

// PostgresProfileStore implements the store.ProfileStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProfileStore creates a new PostgreSQL implementation of the ProfileStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProfileStore(db store.DBTX, logger *slog.Logger) *PostgresProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

// Ensure PostgresProfileStore implements store.ProfileStore interface
var _ store.ProfileStore = (*PostgresProfileStore)(nil)

// nullableTime maps the zero time to SQL NULL so "never happened" round-trips
// cleanly through nullable timestamp columns.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// Create implements store.ProfileStore.Create
// It saves a new learner profile to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the owning user doesn't exist (foreign key violation).
func (s *PostgresProfileStore) Create(ctx context.Context, profile *domain.LearnerProfile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate profile data
	if err := profile.Validate(); err != nil {
		log.Warn("profile validation failed during create",
			slog.String("error", err.Error()),
			slog.String("profile_id", profile.ID.String()))
		return err
	}

	query := `
		INSERT INTO profiles (id, user_id, name, avatar, color_theme, belt_rank,
			learning_mode, daily_goal, streak_days, last_active_at,
			total_study_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		profile.ID,
		profile.UserID,
		profile.Name,
		profile.Avatar,
		profile.ColorTheme,
		profile.BeltRank,
		profile.LearningMode,
		profile.DailyGoal,
		profile.StreakDays,
		nullableTime(profile.LastActiveAt),
		profile.TotalStudySeconds,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during profile creation",
				slog.String("error", err.Error()),
				slog.String("profile_id", profile.ID.String()),
				slog.String("user_id", profile.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, profile.UserID)
		}

		log.Error("failed to create profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profile.ID.String()),
			slog.String("user_id", profile.UserID.String()))
		return MapError(err)
	}

	log.Info("profile created successfully",
		slog.String("profile_id", profile.ID.String()),
		slog.String("user_id", profile.UserID.String()),
		slog.Int("belt_rank", profile.BeltRank))
	return nil
}

// GetByID implements store.ProfileStore.GetByID
// It retrieves a profile by its unique ID.
// Returns store.ErrProfileNotFound if the profile does not exist.
func (s *PostgresProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving profile by ID", slog.String("profile_id", id.String()))

	query := `
		SELECT id, user_id, name, avatar, color_theme, belt_rank,
			learning_mode, daily_goal, streak_days, last_active_at,
			total_study_seconds, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	profile, err := scanProfile(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("profile not found", slog.String("profile_id", id.String()))
			return nil, store.ErrProfileNotFound
		}
		log.Error("failed to get profile by ID",
			slog.String("error", err.Error()),
			slog.String("profile_id", id.String()))
		return nil, err
	}

	return profile, nil
}

// ListByUser implements store.ProfileStore.ListByUser
// It retrieves all profiles owned by the given user, oldest first so the
// family roster keeps a stable order.
// Returns an empty slice if the user has no profiles.
func (s *PostgresProfileStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LearnerProfile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing profiles by user", slog.String("user_id", userID.String()))

	query := `
		SELECT id, user_id, name, avatar, color_theme, belt_rank,
			learning_mode, daily_goal, streak_days, last_active_at,
			total_study_seconds, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query profiles by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var profiles []*domain.LearnerProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			log.Error("failed to scan profile row",
				slog.String("error", err.Error()))
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no profiles found
	if profiles == nil {
		profiles = []*domain.LearnerProfile{}
	}

	log.Debug("listed profiles by user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(profiles)))
	return profiles, nil
}

// Update implements store.ProfileStore.Update
// It saves changes to an existing profile.
// Returns store.ErrProfileNotFound if the profile does not exist.
// Returns validation errors if the profile data is invalid.
func (s *PostgresProfileStore) Update(ctx context.Context, profile *domain.LearnerProfile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate profile data
	if err := profile.Validate(); err != nil {
		log.Warn("profile validation failed during update",
			slog.String("error", err.Error()),
			slog.String("profile_id", profile.ID.String()))
		return err
	}

	profile.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE profiles
		SET name = $1, avatar = $2, color_theme = $3, belt_rank = $4,
			learning_mode = $5, daily_goal = $6, streak_days = $7,
			last_active_at = $8, total_study_seconds = $9, updated_at = $10
		WHERE id = $11
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		profile.Name,
		profile.Avatar,
		profile.ColorTheme,
		profile.BeltRank,
		profile.LearningMode,
		profile.DailyGoal,
		profile.StreakDays,
		nullableTime(profile.LastActiveAt),
		profile.TotalStudySeconds,
		profile.UpdatedAt,
		profile.ID,
	)

	if err != nil {
		log.Error("failed to update profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profile.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("profile_id", profile.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("profile not found for update",
			slog.String("profile_id", profile.ID.String()))
		return store.ErrProfileNotFound
	}

	log.Info("profile updated successfully",
		slog.String("profile_id", profile.ID.String()),
		slog.Int("belt_rank", profile.BeltRank))
	return nil
}

// Delete implements store.ProfileStore.Delete
// It removes the profile row itself. Dependent rows must already be gone;
// the schema restricts rather than cascades, so a foreign key violation
// here means the caller skipped the dependent deletes.
// Returns store.ErrProfileNotFound if the profile does not exist.
func (s *PostgresProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM profiles
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Error("profile still has dependent rows",
				slog.String("error", err.Error()),
				slog.String("profile_id", id.String()))
		} else {
			log.Error("failed to delete profile",
				slog.String("error", err.Error()),
				slog.String("profile_id", id.String()))
		}
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("profile_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("profile not found for delete",
			slog.String("profile_id", id.String()))
		return store.ErrProfileNotFound
	}

	log.Info("profile deleted successfully",
		slog.String("profile_id", id.String()))
	return nil
}

// LapseStreaks implements store.ProfileStore.LapseStreaks
// It zeroes the streak of every profile whose last activity falls strictly
// before the cutoff. A positive streak with a NULL last_active_at cannot
// legitimately exist, so those rows are lapsed too.
func (s *PostgresProfileStore) LapseStreaks(ctx context.Context, cutoff time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE profiles
		SET streak_days = 0, updated_at = $2
		WHERE streak_days > 0
			AND (last_active_at IS NULL OR last_active_at < $1)
	`

	result, err := s.db.ExecContext(ctx, query, cutoff, time.Now().UTC())
	if err != nil {
		log.Error("failed to lapse streaks",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return 0, MapError(err)
	}

	lapsed, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()))
		return 0, err
	}

	return lapsed, nil
}

// WithTx implements store.ProfileStore.WithTx
// It returns a new ProfileStore that runs its operations on the given transaction.
func (s *PostgresProfileStore) WithTx(tx *sql.Tx) store.ProfileStore {
	return &PostgresProfileStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProfile reads one profile row in column order.
func scanProfile(row rowScanner) (*domain.LearnerProfile, error) {
	var profile domain.LearnerProfile
	var mode string
	var lastActive sql.NullTime

	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Name,
		&profile.Avatar,
		&profile.ColorTheme,
		&profile.BeltRank,
		&mode,
		&profile.DailyGoal,
		&profile.StreakDays,
		&lastActive,
		&profile.TotalStudySeconds,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	profile.LearningMode = domain.LearningMode(mode)
	if lastActive.Valid {
		profile.LastActiveAt = lastActive.Time
	}

	return &profile, nil
}
