package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ImportStatus represents the processing state of a profile import.
type ImportStatus string

// Possible import status values.
const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// Common validation errors for ImportJob.
var (
	ErrEmptyImportID       = errors.New("import job ID cannot be empty")
	ErrEmptyImportUserID   = errors.New("import job user ID cannot be empty")
	ErrEmptyImportArchive  = errors.New("import archive cannot be empty")
	ErrInvalidImportStatus = errors.New("invalid import status")
)

// ImportJob is an uploaded profile archive queued for background ingestion.
// The raw archive stays on the row so a crashed worker can pick it back up.
type ImportJob struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Status           ImportStatus    `json:"status"`
	Archive          json.RawMessage `json:"-"`
	ProfilesImported int             `json:"profiles_imported"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewImportJob creates a pending import for the given archive document.
func NewImportJob(userID uuid.UUID, archive json.RawMessage) (*ImportJob, error) {
	now := time.Now().UTC()
	job := &ImportJob{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    ImportStatusPending,
		Archive:   archive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the ImportJob has valid data.
func (j *ImportJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyImportID
	}

	if j.UserID == uuid.Nil {
		return ErrEmptyImportUserID
	}

	if len(j.Archive) == 0 {
		return ErrEmptyImportArchive
	}

	if !isValidImportStatus(j.Status) {
		return ErrInvalidImportStatus
	}

	return nil
}

// UpdateStatus moves the job to a new processing state.
// Returns an error if the new status is invalid.
func (j *ImportJob) UpdateStatus(status ImportStatus) error {
	if !isValidImportStatus(status) {
		return ErrInvalidImportStatus
	}

	j.Status = status
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted records a successful import of the given profile count.
func (j *ImportJob) MarkCompleted(profilesImported int) {
	j.Status = ImportStatusCompleted
	j.ProfilesImported = profilesImported
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

// MarkFailed records a failed import with the reason shown to the user.
func (j *ImportJob) MarkFailed(message string) {
	j.Status = ImportStatusFailed
	j.ErrorMessage = message
	j.UpdatedAt = time.Now().UTC()
}

// isValidImportStatus checks if the given status is a valid ImportStatus.
func isValidImportStatus(status ImportStatus) bool {
	switch status {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return true
	default:
		return false
	}
}
