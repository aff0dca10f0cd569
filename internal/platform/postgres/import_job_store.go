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

// PostgresImportJobStore implements the store.ImportJobStore interface
// using a PostgreSQL database as the storage backend. The raw archive is
// stored on the row so a restarted worker can resume a job without the
// original upload.
type PostgresImportJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresImportJobStore creates a new PostgreSQL implementation of the ImportJobStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresImportJobStore(db store.DBTX, logger *slog.Logger) *PostgresImportJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresImportJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "import_job_store")),
	}
}

// Ensure PostgresImportJobStore implements store.ImportJobStore interface
var _ store.ImportJobStore = (*PostgresImportJobStore)(nil)

// Create implements store.ImportJobStore.Create
// It saves a new import job including its raw archive document.
// Returns store.ErrInvalidEntity if the owning user doesn't exist (foreign key violation).
func (s *PostgresImportJobStore) Create(ctx context.Context, job *domain.ImportJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate job data
	if err := job.Validate(); err != nil {
		log.Warn("import job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	query := `
		INSERT INTO import_jobs (id, user_id, status, archive,
			profiles_imported, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.UserID,
		job.Status,
		[]byte(job.Archive),
		job.ProfilesImported,
		job.ErrorMessage,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during import job creation",
				slog.String("error", err.Error()),
				slog.String("job_id", job.ID.String()),
				slog.String("user_id", job.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, job.UserID)
		}

		log.Error("failed to create import job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return MapError(err)
	}

	log.Info("import job created",
		slog.String("job_id", job.ID.String()),
		slog.String("user_id", job.UserID.String()))
	return nil
}

// GetByID implements store.ImportJobStore.GetByID
// It retrieves an import job by its unique ID, archive included.
// Returns store.ErrImportJobNotFound if the job does not exist.
func (s *PostgresImportJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, status, archive, profiles_imported,
			error_message, created_at, updated_at
		FROM import_jobs
		WHERE id = $1
	`

	var job domain.ImportJob
	var status string
	var archive []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.UserID,
		&status,
		&archive,
		&job.ProfilesImported,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("import job not found", slog.String("job_id", id.String()))
			return nil, store.ErrImportJobNotFound
		}
		log.Error("failed to get import job",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return nil, err
	}

	job.Status = domain.ImportStatus(status)
	job.Archive = archive

	return &job, nil
}

// Update implements store.ImportJobStore.Update
// It saves changes to an existing job's status and outcome fields. The
// archive is immutable once written.
// Returns store.ErrImportJobNotFound if the job does not exist.
func (s *PostgresImportJobStore) Update(ctx context.Context, job *domain.ImportJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate job data
	if err := job.Validate(); err != nil {
		log.Warn("import job validation failed during update",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	job.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE import_jobs
		SET status = $1, profiles_imported = $2, error_message = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		job.Status,
		job.ProfilesImported,
		job.ErrorMessage,
		job.UpdatedAt,
		job.ID,
	)

	if err != nil {
		log.Error("failed to update import job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("import job not found for update",
			slog.String("job_id", job.ID.String()))
		return store.ErrImportJobNotFound
	}

	log.Info("import job updated",
		slog.String("job_id", job.ID.String()),
		slog.String("status", string(job.Status)))
	return nil
}

// WithTx implements store.ImportJobStore.WithTx
// It returns a new ImportJobStore that runs its operations on the given transaction.
func (s *PostgresImportJobStore) WithTx(tx *sql.Tx) store.ImportJobStore {
	return &PostgresImportJobStore{
		db:     tx,
		logger: s.logger,
	}
}
