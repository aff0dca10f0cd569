package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/platform/logger"
	"github.com/tkdojang/dojang-api/internal/store"
)

// PostgresGradingStore implements the store.GradingStore interface
// using a PostgreSQL database as the storage backend.
// Grading history is append-only; there are no update methods.
type PostgresGradingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGradingStore creates a new PostgreSQL implementation of the GradingStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresGradingStore(db store.DBTX, logger *slog.Logger) *PostgresGradingStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGradingStore{
		db:     db,
		logger: logger.With(slog.String("component", "grading_store")),
	}
}

// Ensure PostgresGradingStore implements store.GradingStore interface
var _ store.GradingStore = (*PostgresGradingStore)(nil)

// Create implements store.GradingStore.Create
// It saves a new grading record, handling domain validation.
// Returns store.ErrInvalidEntity if the profile doesn't exist (foreign key violation).
func (s *PostgresGradingStore) Create(ctx context.Context, record *domain.GradingRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate record data
	if err := record.Validate(); err != nil {
		log.Warn("grading record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("grading_id", record.ID.String()))
		return err
	}

	query := `
		INSERT INTO grading_records (id, profile_id, from_rank, to_rank,
			result, notes, graded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.ProfileID,
		record.FromRank,
		record.ToRank,
		record.Result,
		record.Notes,
		record.GradedAt,
		record.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during grading record creation",
				slog.String("error", err.Error()),
				slog.String("grading_id", record.ID.String()),
				slog.String("profile_id", record.ProfileID.String()))
			return fmt.Errorf("%w: profile with ID %s not found",
				store.ErrInvalidEntity, record.ProfileID)
		}

		log.Error("failed to create grading record",
			slog.String("error", err.Error()),
			slog.String("grading_id", record.ID.String()))
		return MapError(err)
	}

	log.Info("grading record created",
		slog.String("grading_id", record.ID.String()),
		slog.String("profile_id", record.ProfileID.String()),
		slog.Int("from_rank", record.FromRank),
		slog.Int("to_rank", record.ToRank),
		slog.String("result", string(record.Result)))
	return nil
}

// ListByProfile implements store.GradingStore.ListByProfile
// It retrieves the profile's grading history oldest first, which reads as
// the belt journey.
// Returns an empty slice if the profile has never graded.
func (s *PostgresGradingStore) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*domain.GradingRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, profile_id, from_rank, to_rank, result, notes,
			graded_at, created_at
		FROM grading_records
		WHERE profile_id = $1
		ORDER BY graded_at ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, profileID)
	if err != nil {
		log.Error("failed to query grading records by profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var records []*domain.GradingRecord
	for rows.Next() {
		var record domain.GradingRecord
		var result string

		err := rows.Scan(
			&record.ID,
			&record.ProfileID,
			&record.FromRank,
			&record.ToRank,
			&result,
			&record.Notes,
			&record.GradedAt,
			&record.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan grading record row",
				slog.String("error", err.Error()))
			return nil, err
		}

		record.Result = domain.GradingResult(result)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no records found
	if records == nil {
		records = []*domain.GradingRecord{}
	}

	log.Debug("listed grading records by profile",
		slog.String("profile_id", profileID.String()),
		slog.Int("count", len(records)))
	return records, nil
}

// DeleteByProfile implements store.GradingStore.DeleteByProfile
// It removes every grading record owned by the profile. Deleting zero rows
// is not an error.
func (s *PostgresGradingStore) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM grading_records
		WHERE profile_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, profileID)
	if err != nil {
		log.Error("failed to delete grading records by profile",
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

	log.Info("grading records deleted for profile",
		slog.String("profile_id", profileID.String()),
		slog.Int64("count", rowsAffected))
	return nil
}

// WithTx implements store.GradingStore.WithTx
// It returns a new GradingStore that runs its operations on the given transaction.
func (s *PostgresGradingStore) WithTx(tx *sql.Tx) store.GradingStore {
	return &PostgresGradingStore{
		db:     tx,
		logger: s.logger,
	}
}
