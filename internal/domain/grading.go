package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GradingResult is the outcome of a belt grading attempt.
type GradingResult string

// Possible grading result values.
const (
	GradingResultPassed GradingResult = "passed"
	GradingResultFailed GradingResult = "failed"
)

// MaxGradingNotesLength bounds free-form examiner notes.
const MaxGradingNotesLength = 500

// Common validation errors for GradingRecord.
var (
	ErrEmptyGradingID        = errors.New("grading record ID cannot be empty")
	ErrEmptyGradingProfileID = errors.New("grading record profile ID cannot be empty")
	ErrInvalidGradingRanks   = errors.New("grading ranks must be positive integers")
	ErrInvalidGradingResult  = errors.New("grading result must be passed or failed")
	ErrGradingNotesTooLong   = errors.New("grading notes cannot exceed 500 characters")
)

// GradingRecord is one entry in a profile's grading history: an attempt to
// move from one belt rank to the next, passed or failed.
type GradingRecord struct {
	ID        uuid.UUID     `json:"id"`
	ProfileID uuid.UUID     `json:"profile_id"`
	FromRank  int           `json:"from_rank"`
	ToRank    int           `json:"to_rank"`
	Result    GradingResult `json:"result"`
	Notes     string        `json:"notes,omitempty"`
	GradedAt  time.Time     `json:"graded_at"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewGradingRecord creates a grading history entry.
func NewGradingRecord(
	profileID uuid.UUID,
	fromRank, toRank int,
	result GradingResult,
	notes string,
	gradedAt time.Time,
) (*GradingRecord, error) {
	record := &GradingRecord{
		ID:        uuid.New(),
		ProfileID: profileID,
		FromRank:  fromRank,
		ToRank:    toRank,
		Result:    result,
		Notes:     notes,
		GradedAt:  gradedAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the GradingRecord has valid data.
func (g *GradingRecord) Validate() error {
	if g.ID == uuid.Nil {
		return ErrEmptyGradingID
	}

	if g.ProfileID == uuid.Nil {
		return ErrEmptyGradingProfileID
	}

	if g.FromRank <= 0 || g.ToRank <= 0 {
		return ErrInvalidGradingRanks
	}

	if g.Result != GradingResultPassed && g.Result != GradingResultFailed {
		return ErrInvalidGradingResult
	}

	if utf8.RuneCountInString(g.Notes) > MaxGradingNotesLength {
		return ErrGradingNotesTooLong
	}

	return nil
}
