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

// progressColumns is the shared column list for review_progress reads.
const progressColumns = `id, profile_id, item_id, item_kind, current_box,
		correct_count, incorrect_count, consecutive_correct,
		last_reviewed_at, next_review_at, created_at, updated_at`

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// Create implements store.ProgressStore.Create
// It saves a new review progress record, handling domain validation.
// Returns store.ErrProgressExists if the profile already tracks the item.
// Returns store.ErrInvalidEntity if the profile doesn't exist (foreign key violation).
func (s *PostgresProgressStore) Create(ctx context.Context, progress *domain.ReviewProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate progress data
	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during create",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()))
		return err
	}

	query := `
		INSERT INTO review_progress (id, profile_id, item_id, item_kind, current_box,
			correct_count, incorrect_count, consecutive_correct,
			last_reviewed_at, next_review_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.ID,
		progress.ProfileID,
		progress.ItemID,
		progress.ItemKind,
		progress.CurrentBox,
		progress.CorrectCount,
		progress.IncorrectCount,
		progress.ConsecutiveCorrect,
		nullableTime(progress.LastReviewedAt),
		progress.NextReviewAt,
		progress.CreatedAt,
		progress.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate progress record",
				slog.String("profile_id", progress.ProfileID.String()),
				slog.String("item_id", progress.ItemID),
				slog.String("item_kind", string(progress.ItemKind)))
			return MapUniqueViolation(err, "review progress", "", store.ErrProgressExists)
		}

		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during progress creation",
				slog.String("error", err.Error()),
				slog.String("profile_id", progress.ProfileID.String()))
			return fmt.Errorf("%w: profile with ID %s not found",
				store.ErrInvalidEntity, progress.ProfileID)
		}

		log.Error("failed to create progress record",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()))
		return MapError(err)
	}

	log.Debug("progress record created",
		slog.String("profile_id", progress.ProfileID.String()),
		slog.String("item_id", progress.ItemID),
		slog.String("item_kind", string(progress.ItemKind)))
	return nil
}

// GetByID implements store.ProgressStore.GetByID
// It retrieves a progress record by its unique ID.
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumns + `
		FROM review_progress
		WHERE id = $1
	`

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("progress record not found", slog.String("progress_id", id.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress by ID",
			slog.String("error", err.Error()),
			slog.String("progress_id", id.String()))
		return nil, err
	}

	return progress, nil
}

// Get implements store.ProgressStore.Get
// It retrieves the progress record for one profile/item combination without
// any row locking.
// Returns store.ErrProgressNotFound if the profile has never reviewed the item.
func (s *PostgresProgressStore) Get(
	ctx context.Context,
	profileID uuid.UUID,
	itemID string,
	kind domain.ItemKind,
) (*domain.ReviewProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM review_progress
		WHERE profile_id = $1 AND item_id = $2 AND item_kind = $3
	`
	return s.getForItem(ctx, query, profileID, itemID, kind)
}

// GetForUpdate implements store.ProgressStore.GetForUpdate
// It retrieves a progress record with a row-level lock (SELECT FOR UPDATE),
// blocking concurrent writers until the surrounding transaction finishes.
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) GetForUpdate(
	ctx context.Context,
	profileID uuid.UUID,
	itemID string,
	kind domain.ItemKind,
) (*domain.ReviewProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM review_progress
		WHERE profile_id = $1 AND item_id = $2 AND item_kind = $3
		FOR UPDATE
	`
	return s.getForItem(ctx, query, profileID, itemID, kind)
}

// getForItem runs one of the single-row item lookups.
func (s *PostgresProgressStore) getForItem(
	ctx context.Context,
	query string,
	profileID uuid.UUID,
	itemID string,
	kind domain.ItemKind,
) (*domain.ReviewProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, profileID, itemID, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("progress record not found",
				slog.String("profile_id", profileID.String()),
				slog.String("item_id", itemID),
				slog.String("item_kind", string(kind)))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress record",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()),
			slog.String("item_id", itemID))
		return nil, err
	}

	return progress, nil
}

// ListByProfile implements store.ProgressStore.ListByProfile
// It retrieves the profile's progress records in item order, restricted to
// one item kind when kind is non-empty.
// Returns an empty slice if the profile has no matching records.
func (s *PostgresProgressStore) ListByProfile(
	ctx context.Context,
	profileID uuid.UUID,
	kind domain.ItemKind,
) ([]*domain.ReviewProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing progress by profile",
		slog.String("profile_id", profileID.String()),
		slog.String("item_kind", string(kind)))

	var query string
	var args []interface{}

	if kind != "" {
		query = `
			SELECT ` + progressColumns + `
			FROM review_progress
			WHERE profile_id = $1 AND item_kind = $2
			ORDER BY item_kind ASC, item_id ASC
		`
		args = []interface{}{profileID, kind}
	} else {
		query = `
			SELECT ` + progressColumns + `
			FROM review_progress
			WHERE profile_id = $1
			ORDER BY item_kind ASC, item_id ASC
		`
		args = []interface{}{profileID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query progress by profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var records []*domain.ReviewProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress row",
				slog.String("error", err.Error()))
			return nil, err
		}
		records = append(records, progress)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no records found
	if records == nil {
		records = []*domain.ReviewProgress{}
	}

	log.Debug("listed progress by profile",
		slog.String("profile_id", profileID.String()),
		slog.Int("count", len(records)))
	return records, nil
}

// Update implements store.ProgressStore.Update
// It saves changes to an existing progress record, handling domain validation.
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) Update(ctx context.Context, progress *domain.ReviewProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate progress data
	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during update",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()))
		return err
	}

	progress.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE review_progress
		SET current_box = $1, correct_count = $2, incorrect_count = $3,
			consecutive_correct = $4, last_reviewed_at = $5,
			next_review_at = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		progress.CurrentBox,
		progress.CorrectCount,
		progress.IncorrectCount,
		progress.ConsecutiveCorrect,
		nullableTime(progress.LastReviewedAt),
		progress.NextReviewAt,
		progress.UpdatedAt,
		progress.ID,
	)

	if err != nil {
		log.Error("failed to update progress record",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("progress record not found for update",
			slog.String("progress_id", progress.ID.String()))
		return store.ErrProgressNotFound
	}

	log.Debug("progress record updated",
		slog.String("progress_id", progress.ID.String()),
		slog.Int("current_box", progress.CurrentBox))
	return nil
}

// DeleteByProfile implements store.ProgressStore.DeleteByProfile
// It removes every progress record owned by the profile. Deleting zero rows
// is not an error; a fresh profile has no progress.
func (s *PostgresProgressStore) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM review_progress
		WHERE profile_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, profileID)
	if err != nil {
		log.Error("failed to delete progress by profile",
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

	log.Info("progress records deleted for profile",
		slog.String("profile_id", profileID.String()),
		slog.Int64("count", rowsAffected))
	return nil
}

// WithTx implements store.ProgressStore.WithTx
// It returns a new ProgressStore that runs its operations on the given transaction.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanProgress reads one review_progress row in column order.
func scanProgress(row rowScanner) (*domain.ReviewProgress, error) {
	var progress domain.ReviewProgress
	var kind string
	var lastReviewed sql.NullTime

	err := row.Scan(
		&progress.ID,
		&progress.ProfileID,
		&progress.ItemID,
		&kind,
		&progress.CurrentBox,
		&progress.CorrectCount,
		&progress.IncorrectCount,
		&progress.ConsecutiveCorrect,
		&lastReviewed,
		&progress.NextReviewAt,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	progress.ItemKind = domain.ItemKind(kind)
	if lastReviewed.Valid {
		progress.LastReviewedAt = lastReviewed.Time
	}

	return &progress, nil
}
