package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// Status constants for ProfileImportTask
// These match the TaskStatus values defined in task.go
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilJobStore   = errors.New("import job store cannot be nil")
	ErrNilImporter   = errors.New("profile importer cannot be nil")
	ErrNilTaskLogger = errors.New("logger cannot be nil")
	ErrEmptyJobID    = errors.New("import job ID cannot be empty")
)

// ImportJobStore defines the interface for import job persistence used
// during task execution. The store package's ImportJobStore satisfies it;
// declaring the narrow view here keeps the task package free of a service
// dependency and the import cycle that would come with it.
type ImportJobStore interface {
	// GetByID retrieves an import job by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)

	// Update saves changes to an existing import job
	Update(ctx context.Context, job *domain.ImportJob) error
}

// ProfileImporter defines the interface for restoring archived profiles
type ProfileImporter interface {
	// ImportArchive restores every profile in the archive for the given user
	// in a single transaction and returns how many profiles were created
	ImportArchive(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (int, error)
}

// profileImportPayload represents the serialized data stored in the task
type profileImportPayload struct {
	ImportJobID uuid.UUID `json:"import_job_id"`
}

// ProfileImportTask implements the Task interface for restoring learner
// profiles from an uploaded device archive
type ProfileImportTask struct {
	id       uuid.UUID
	jobID    uuid.UUID
	jobStore ImportJobStore
	importer ProfileImporter
	logger   *slog.Logger
	status   string // Using string instead of TaskStatus to avoid circular imports
}

// NewProfileImportTask creates a new profile import task
func NewProfileImportTask(
	jobID uuid.UUID,
	jobStore ImportJobStore,
	importer ProfileImporter,
	logger *slog.Logger,
) (*ProfileImportTask, error) {
	// Validate dependencies
	if jobStore == nil {
		return nil, ErrNilJobStore
	}
	if importer == nil {
		return nil, ErrNilImporter
	}
	if logger == nil {
		return nil, ErrNilTaskLogger
	}

	// Validate job ID
	if jobID == uuid.Nil {
		return nil, ErrEmptyJobID
	}

	return &ProfileImportTask{
		id:       uuid.New(),
		jobID:    jobID,
		jobStore: jobStore,
		importer: importer,
		logger:   logger.With("task_type", TaskTypeProfileImport, "import_job_id", jobID),
		status:   statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *ProfileImportTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ProfileImportTask) Type() string {
	return TaskTypeProfileImport
}

// Payload returns the task data as a byte slice
func (t *ProfileImportTask) Payload() []byte {
	payload := profileImportPayload{
		ImportJobID: t.jobID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
// We convert the string to TaskStatus to fulfill the Task interface
func (t *ProfileImportTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute runs the profile import task, handling the complete lifecycle:
// loading the job, marking it processing, restoring the archived profiles,
// and recording the outcome on the job row. Import failures are terminal
// for the job but still recorded, so the uploader can read what went wrong.
func (t *ProfileImportTask) Execute(ctx context.Context) error {
	// Update task status to processing
	t.status = statusProcessing
	t.logger.Info("starting profile import task")

	// Check for context cancellation
	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Retrieve the import job
	job, err := t.jobStore.GetByID(ctx, t.jobID)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("failed to retrieve import job", "error", err)
		return fmt.Errorf("failed to retrieve import job: %w", err)
	}

	t.logger.Info("retrieved import job", "user_id", job.UserID, "job_status", job.Status)

	// 2. Mark the job as processing
	if err := job.UpdateStatus(domain.ImportStatusProcessing); err != nil {
		t.status = statusFailed
		t.logger.Error("failed to mark import job processing", "error", err)
		return fmt.Errorf("failed to mark import job processing: %w", err)
	}
	if err := t.jobStore.Update(ctx, job); err != nil {
		t.status = statusFailed
		t.logger.Error("failed to save import job status", "error", err)
		return fmt.Errorf("failed to save import job status: %w", err)
	}

	// 3. Restore the archived profiles in a single transaction
	t.logger.Info("restoring profiles from archive")
	imported, importErr := t.importer.ImportArchive(ctx, job.UserID, job.Archive)
	if importErr != nil {
		// Record the failure on the job so the uploader can see the reason
		job.MarkFailed(importErr.Error())
		if err := t.jobStore.Update(ctx, job); err != nil {
			t.logger.Error("failed to record import failure",
				"error", err,
				"import_error", importErr)
		}
		t.status = statusFailed
		t.logger.Error("failed to restore profiles from archive", "error", importErr)
		return fmt.Errorf("failed to restore profiles from archive: %w", importErr)
	}

	// 4. Record the successful import on the job
	job.MarkCompleted(imported)
	if err := t.jobStore.Update(ctx, job); err != nil {
		// Log the error but don't fail the task - the profiles were imported
		t.logger.Error("failed to record import completion, but profiles were imported",
			"error", err,
			"profiles_imported", imported)
	}

	// Update task status to completed
	t.status = statusCompleted
	t.logger.Info("profile import task completed successfully", "profiles_imported", imported)
	return nil
}
