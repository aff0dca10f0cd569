package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ItemKind identifies which part of the catalogue a content item belongs to.
type ItemKind string

// Possible item kind values.
const (
	ItemKindTerminology  ItemKind = "terminology"
	ItemKindPattern      ItemKind = "pattern"
	ItemKindStepSparring ItemKind = "step_sparring"
)

// Review box bounds. Box one holds new and demoted items; box five holds
// items the learner has effectively mastered.
const (
	FirstReviewBox = 1
	MaxReviewBox   = 5
)

// Common validation errors for ReviewProgress.
var (
	ErrEmptyProgressID        = errors.New("review progress ID cannot be empty")
	ErrEmptyProgressProfileID = errors.New("review progress profile ID cannot be empty")
	ErrEmptyProgressItemID    = errors.New("review progress item ID cannot be empty")
	ErrInvalidItemKind        = errors.New("invalid content item kind")
	ErrBoxOutOfRange          = errors.New("review box must be between 1 and 5")
	ErrNegativeReviewCount    = errors.New("review counts cannot be negative")
	ErrConsecutiveExceedsCorrect = errors.New(
		"consecutive correct count cannot exceed total correct count",
	)
)

// ReviewProgress tracks one learner profile's spaced-repetition state for a
// single content item. A record is created on the first review of an item
// and lives until the owning profile is deleted. Items are referenced by
// their catalogue identifier, which is unique within an item kind.
type ReviewProgress struct {
	ID                 uuid.UUID `json:"id"`
	ProfileID          uuid.UUID `json:"profile_id"`
	ItemID             string    `json:"item_id"`
	ItemKind           ItemKind  `json:"item_kind"`
	CurrentBox         int       `json:"current_box"`
	CorrectCount       int       `json:"correct_count"`
	IncorrectCount     int       `json:"incorrect_count"`
	ConsecutiveCorrect int       `json:"consecutive_correct"`
	LastReviewedAt     time.Time `json:"last_reviewed_at"` // Zero until the first review is applied
	NextReviewAt       time.Time `json:"next_review_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewReviewProgress creates the baseline progress record for an item the
// profile has not reviewed before: box one, zero counts, due immediately.
func NewReviewProgress(profileID uuid.UUID, itemID string, kind ItemKind) (*ReviewProgress, error) {
	now := time.Now().UTC()
	progress := &ReviewProgress{
		ID:           uuid.New(),
		ProfileID:    profileID,
		ItemID:       itemID,
		ItemKind:     kind,
		CurrentBox:   FirstReviewBox,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the ReviewProgress has valid data.
// Returns an error if any field fails validation.
func (p *ReviewProgress) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProgressID
	}

	if p.ProfileID == uuid.Nil {
		return ErrEmptyProgressProfileID
	}

	if p.ItemID == "" {
		return ErrEmptyProgressItemID
	}

	if !IsValidItemKind(p.ItemKind) {
		return ErrInvalidItemKind
	}

	if p.CurrentBox < FirstReviewBox || p.CurrentBox > MaxReviewBox {
		return ErrBoxOutOfRange
	}

	if p.CorrectCount < 0 || p.IncorrectCount < 0 || p.ConsecutiveCorrect < 0 {
		return ErrNegativeReviewCount
	}

	// A streak cannot outgrow the number of correct answers; in particular
	// a record with no correct answers cannot carry a streak.
	if p.ConsecutiveCorrect > p.CorrectCount {
		return ErrConsecutiveExceedsCorrect
	}

	return nil
}

// TotalReviews is the number of answers ever submitted for this item.
// Derived rather than stored so it cannot drift from the two counters.
func (p *ReviewProgress) TotalReviews() int {
	return p.CorrectCount + p.IncorrectCount
}

// Accuracy is the fraction of reviews answered correctly, zero when the
// item has never been reviewed.
func (p *ReviewProgress) Accuracy() float64 {
	total := p.TotalReviews()
	if total == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(total)
}

// IsValidItemKind checks if the given kind names a catalogue section.
func IsValidItemKind(kind ItemKind) bool {
	switch kind {
	case ItemKindTerminology, ItemKindPattern, ItemKindStepSparring:
		return true
	default:
		return false
	}
}
