// Package review grades flashcard answers against the Leitner schedule and
// exposes per-item progress. It is the write path of the spaced repetition
// system; deck assembly lives in the study package and never touches it.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// SubmitReviewRequest represents one graded flashcard answer.
type SubmitReviewRequest struct {
	ItemID         string          `json:"item_id"`
	ItemKind       domain.ItemKind `json:"item_kind"`
	IsCorrect      bool            `json:"is_correct"`
	ResponseTimeMs int             `json:"response_time_ms"` // Informational; not persisted
}

// ReviewService applies graded answers to a profile's review schedule.
type ReviewService interface {
	// SubmitReview processes one graded answer for a catalogue item and
	// updates the profile's review schedule.
	//
	// This method performs several operations within a single transaction:
	// 1. Verifies the profile exists and belongs to the calling user
	// 2. Resolves the item in the content catalogue
	// 3. Loads the profile's progress for the item, or starts a box-one
	//    baseline on the first review
	// 4. Applies the answer through the Leitner scheduler and persists the
	//    resulting progress
	//
	// Returns:
	//   - (*domain.ReviewProgress, nil): The updated progress record
	//   - (nil, ErrProfileNotFound): If the profile does not exist
	//   - (nil, ErrProfileNotOwned): If the caller does not own the profile
	//   - (nil, ErrItemNotFound): If the item is not in the catalogue
	//   - (nil, error): Any other error, typically from the database
	SubmitReview(
		ctx context.Context,
		userID uuid.UUID,
		profileID uuid.UUID,
		request SubmitReviewRequest,
	) (*domain.ReviewProgress, error)

	// PostponeReview pushes an item's next review forward by the given
	// number of days without grading an answer.
	//
	// Returns ErrProgressNotFound if the profile has never reviewed the
	// item; postponing something never studied is meaningless.
	PostponeReview(
		ctx context.Context,
		userID uuid.UUID,
		profileID uuid.UUID,
		itemID string,
		kind domain.ItemKind,
		days int,
	) (*domain.ReviewProgress, error)

	// ListProgress retrieves the profile's progress records, restricted to
	// one item kind when kind is non-empty.
	//
	// Returns ErrInvalidKind when a non-empty kind names no catalogue
	// section.
	ListProgress(
		ctx context.Context,
		userID uuid.UUID,
		profileID uuid.UUID,
		kind domain.ItemKind,
	) ([]*domain.ReviewProgress, error)
}

// Common error types for ReviewService
var (
	// ErrProfileNotFound indicates that the profile does not exist.
	ErrProfileNotFound = errors.New("learner profile not found")

	// ErrProfileNotOwned indicates that the caller does not own the profile.
	ErrProfileNotOwned = errors.New("unauthorized access: profile not owned by user")

	// ErrItemNotFound indicates that the item is not in the content catalogue.
	ErrItemNotFound = errors.New("study item not found in the catalogue")

	// ErrProgressNotFound indicates that the profile has never reviewed the item.
	ErrProgressNotFound = errors.New("review progress not found")

	// ErrInvalidKind indicates an item kind that names no catalogue section.
	ErrInvalidKind = errors.New("invalid item kind")

	// ErrInvalidPostpone indicates a postponement of less than one day.
	ErrInvalidPostpone = errors.New("postpone days must be at least 1")
)

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service
// errors using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_review",
		Message:   message,
		Err:       err,
	}
}

// NewListProgressError returns a new ServiceError for the list_progress operation.
func NewListProgressError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "list_progress",
		Message:   message,
		Err:       err,
	}
}
