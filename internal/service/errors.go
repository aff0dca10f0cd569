package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// This is typically returned when a user attempts to modify a resource they don't own.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrProfileNotFound indicates that the requested learner profile does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrProfileNotFound = errors.New("learner profile not found")

	// ErrSessionNotFound indicates that the requested study session does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrImportNotFound indicates that the requested import job does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrImportNotFound = errors.New("import job not found")

	// ErrFeedbackPostNotFound indicates that the requested feedback post does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrFeedbackPostNotFound = errors.New("feedback post not found")

	// ErrUnknownBeltRank indicates a belt rank that is not part of the curriculum.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrUnknownBeltRank = errors.New("belt rank is not part of the curriculum")

	// ErrAtHighestBelt indicates the profile already holds the highest belt,
	// so there is no next belt to grade toward or to draw material from.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrAtHighestBelt = errors.New("profile already holds the highest belt")

	// ErrNoStudyContent indicates the catalogue has no items for the requested
	// belt and kind selection, so no deck can be built.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrNoStudyContent = errors.New("no study content available for this selection")

	// ErrSessionAlreadyCompleted indicates an attempt to complete a session twice.
	// API layer should map this to HTTP 409 Conflict.
	ErrSessionAlreadyCompleted = errors.New("study session is already completed")

	// ErrInvalidArchive indicates an uploaded profile archive that failed
	// schema validation before any job was enqueued.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrInvalidArchive = errors.New("profile archive failed validation")

	// ErrAlreadyVoted indicates the user has already voted on the feedback post.
	// API layer should map this to HTTP 409 Conflict.
	ErrAlreadyVoted = errors.New("already voted on this post")

	// ErrVoteNotFound indicates the user has no vote on the post to retract.
	// API layer should map this to HTTP 404 Not Found.
	ErrVoteNotFound = errors.New("no vote on this post")
)

// ServiceError wraps unexpected errors from a service operation with context.
// Expected conditions come back as the sentinel errors above; ServiceError is
// for everything else, preserving the cause for errors.Is/errors.As.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_profile", "start_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. Returns nil if err is nil so
// callers can wrap unconditionally.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
