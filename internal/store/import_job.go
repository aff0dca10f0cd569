package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// ImportJobStore defines the interface for profile import job persistence.
// The raw archive lives on the row so a restarted worker can resume a job
// without the original upload.
type ImportJobStore interface {
	// Create saves a new import job, including its raw archive document.
	// It handles domain validation internally.
	// Returns validation errors from the domain ImportJob if data is invalid.
	Create(ctx context.Context, job *domain.ImportJob) error

	// GetByID retrieves an import job by its unique ID, archive included.
	// Returns ErrImportJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)

	// Update saves changes to an existing job, typically a status move with
	// its outcome fields.
	// Returns ErrImportJobNotFound if the job does not exist.
	// Returns validation errors if the job data is invalid.
	Update(ctx context.Context, job *domain.ImportJob) error

	// WithTx returns a new ImportJobStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ImportJobStore
}
