package leitner

import (
	"errors"
	"time"

	"github.com/tkdojang/dojang-api/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("review progress cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the interface for Leitner scheduling operations
type Service interface {
	// RecordReview computes new progress based on a single graded answer
	RecordReview(
		progress *domain.ReviewProgress,
		correct bool,
		now time.Time,
	) (*domain.ReviewProgress, error)

	// PostponeReview pushes the next review time forward by a specified number of days
	PostponeReview(
		progress *domain.ReviewProgress,
		days int,
		now time.Time,
	) (*domain.ReviewProgress, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new Leitner service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new Leitner service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// RecordReview implements the Service interface for applying one graded answer
func (s *defaultService) RecordReview(
	progress *domain.ReviewProgress,
	correct bool,
	now time.Time,
) (*domain.ReviewProgress, error) {
	// Validate inputs
	if progress == nil {
		return nil, ErrNilProgress
	}

	// Use the pure calculation function to get new progress
	newProgress := calculateNextProgress(progress, correct, now, s.params)

	return newProgress, nil
}

// PostponeReview implements the Service interface for postponing reviews
func (s *defaultService) PostponeReview(
	progress *domain.ReviewProgress,
	days int,
	now time.Time,
) (*domain.ReviewProgress, error) {
	// Validate inputs
	if progress == nil {
		return nil, ErrNilProgress
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	// Create a copy of the original progress
	newProgress := &domain.ReviewProgress{
		ID:                 progress.ID,
		ProfileID:          progress.ProfileID,
		ItemID:             progress.ItemID,
		ItemKind:           progress.ItemKind,
		CurrentBox:         progress.CurrentBox,
		CorrectCount:       progress.CorrectCount,
		IncorrectCount:     progress.IncorrectCount,
		ConsecutiveCorrect: progress.ConsecutiveCorrect,
		LastReviewedAt:     progress.LastReviewedAt,
		NextReviewAt:       progress.NextReviewAt,
		CreatedAt:          progress.CreatedAt,
		UpdatedAt:          now, // Update the updated timestamp
	}

	// Postpone the next review
	newProgress.NextReviewAt = progress.NextReviewAt.AddDate(0, 0, days)

	return newProgress, nil
}
