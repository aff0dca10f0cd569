package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FeedbackCategory classifies a community feedback post.
type FeedbackCategory string

// Possible feedback category values.
const (
	FeedbackCategoryFeature FeedbackCategory = "feature"
	FeedbackCategoryBug     FeedbackCategory = "bug"
	FeedbackCategoryContent FeedbackCategory = "content"
	FeedbackCategoryOther   FeedbackCategory = "other"
)

// FeedbackStatus tracks a post through the public roadmap.
type FeedbackStatus string

// Possible feedback status values.
const (
	FeedbackStatusOpen       FeedbackStatus = "open"
	FeedbackStatusPlanned    FeedbackStatus = "planned"
	FeedbackStatusInProgress FeedbackStatus = "in_progress"
	FeedbackStatusDone       FeedbackStatus = "done"
	FeedbackStatusDeclined   FeedbackStatus = "declined"
)

// Feedback field bounds.
const (
	MaxFeedbackTitleLength = 120
	MaxFeedbackBodyLength  = 4000
)

// Common validation errors for FeedbackPost.
var (
	ErrEmptyFeedbackID         = errors.New("feedback post ID cannot be empty")
	ErrEmptyFeedbackUserID     = errors.New("feedback post user ID cannot be empty")
	ErrEmptyFeedbackTitle      = errors.New("feedback title cannot be empty")
	ErrFeedbackTitleTooLong    = errors.New("feedback title cannot exceed 120 characters")
	ErrEmptyFeedbackBody       = errors.New("feedback body cannot be empty")
	ErrFeedbackBodyTooLong     = errors.New("feedback body cannot exceed 4000 characters")
	ErrInvalidFeedbackCategory = errors.New("invalid feedback category")
	ErrInvalidFeedbackStatus   = errors.New("invalid feedback status")
	ErrNegativeVoteCount       = errors.New("vote count cannot be negative")
)

// FeedbackPost is a community suggestion or report. Posts move through the
// roadmap statuses and accumulate one vote per account.
type FeedbackPost struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Category  FeedbackCategory `json:"category"`
	Status    FeedbackStatus   `json:"status"`
	VoteCount int              `json:"vote_count"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewFeedbackPost creates an open post with no votes.
func NewFeedbackPost(
	userID uuid.UUID,
	title, body string,
	category FeedbackCategory,
) (*FeedbackPost, error) {
	now := time.Now().UTC()
	post := &FeedbackPost{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Category:  category,
		Status:    FeedbackStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	return post, nil
}

// Validate checks if the FeedbackPost has valid data.
// Returns an error if any field fails validation.
func (f *FeedbackPost) Validate() error {
	if f.ID == uuid.Nil {
		return ErrEmptyFeedbackID
	}

	if f.UserID == uuid.Nil {
		return ErrEmptyFeedbackUserID
	}

	if f.Title == "" {
		return ErrEmptyFeedbackTitle
	}

	if utf8.RuneCountInString(f.Title) > MaxFeedbackTitleLength {
		return ErrFeedbackTitleTooLong
	}

	if f.Body == "" {
		return ErrEmptyFeedbackBody
	}

	if utf8.RuneCountInString(f.Body) > MaxFeedbackBodyLength {
		return ErrFeedbackBodyTooLong
	}

	if !IsValidFeedbackCategory(f.Category) {
		return ErrInvalidFeedbackCategory
	}

	if !IsValidFeedbackStatus(f.Status) {
		return ErrInvalidFeedbackStatus
	}

	if f.VoteCount < 0 {
		return ErrNegativeVoteCount
	}

	return nil
}

// UpdateStatus moves the post to a new roadmap status.
// Returns an error if the new status is invalid.
func (f *FeedbackPost) UpdateStatus(status FeedbackStatus) error {
	if !IsValidFeedbackStatus(status) {
		return ErrInvalidFeedbackStatus
	}

	f.Status = status
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// IsValidFeedbackCategory checks if the given category is known.
func IsValidFeedbackCategory(c FeedbackCategory) bool {
	switch c {
	case FeedbackCategoryFeature, FeedbackCategoryBug, FeedbackCategoryContent, FeedbackCategoryOther:
		return true
	default:
		return false
	}
}

// IsValidFeedbackStatus checks if the given status is known.
func IsValidFeedbackStatus(s FeedbackStatus) bool {
	switch s {
	case FeedbackStatusOpen, FeedbackStatusPlanned, FeedbackStatusInProgress,
		FeedbackStatusDone, FeedbackStatusDeclined:
		return true
	default:
		return false
	}
}
