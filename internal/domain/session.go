package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionType identifies what kind of study a session contained.
type SessionType string

// Possible session type values.
const (
	SessionTypeFlashcards SessionType = "flashcards"
	SessionTypeTesting    SessionType = "testing"
	SessionTypePatterns   SessionType = "patterns"
	SessionTypeMixed      SessionType = "mixed"
)

// MaxSessionCards bounds a single session deck.
const MaxSessionCards = 100

// Common validation errors for StudySession.
var (
	ErrEmptySessionID        = errors.New("session ID cannot be empty")
	ErrEmptySessionProfileID = errors.New("session profile ID cannot be empty")
	ErrInvalidSessionType    = errors.New("invalid session type")
	ErrInvalidCardCount      = errors.New("card count must be between 1 and 100")
	ErrNegativeAnswerCount   = errors.New("answer counts cannot be negative")
	ErrAnswersExceedCards    = errors.New("answers cannot exceed the session card count")
	ErrNegativeDuration      = errors.New("session duration cannot be negative")
	ErrSessionCompleted      = errors.New("session is already completed")
	ErrSessionNotCompleted   = errors.New("session is not completed")
)

// StudySession records one sitting with a deck of cards. The deck itself is
// ephemeral; the row keeps the outcome for history and streak bookkeeping.
type StudySession struct {
	ID              uuid.UUID   `json:"id"`
	ProfileID       uuid.UUID   `json:"profile_id"`
	SessionType     SessionType `json:"session_type"`
	CardCount       int         `json:"card_count"`
	CorrectCount    int         `json:"correct_count"`
	IncorrectCount  int         `json:"incorrect_count"`
	DurationSeconds int         `json:"duration_seconds"`
	StartedAt       time.Time   `json:"started_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewStudySession creates an in-progress session for the given deck size.
func NewStudySession(profileID uuid.UUID, sessionType SessionType, cardCount int) (*StudySession, error) {
	now := time.Now().UTC()
	session := &StudySession{
		ID:          uuid.New(),
		ProfileID:   profileID,
		SessionType: sessionType,
		CardCount:   cardCount,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
// Returns an error if any field fails validation.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if s.ProfileID == uuid.Nil {
		return ErrEmptySessionProfileID
	}

	if !isValidSessionType(s.SessionType) {
		return ErrInvalidSessionType
	}

	if s.CardCount < 1 || s.CardCount > MaxSessionCards {
		return ErrInvalidCardCount
	}

	if s.CorrectCount < 0 || s.IncorrectCount < 0 {
		return ErrNegativeAnswerCount
	}

	if s.CorrectCount+s.IncorrectCount > s.CardCount {
		return ErrAnswersExceedCards
	}

	if s.DurationSeconds < 0 {
		return ErrNegativeDuration
	}

	return nil
}

// Complete records the session outcome. A session can only be completed
// once; abandoning a session partway through is allowed, so the answer
// total may fall short of the deck size.
func (s *StudySession) Complete(correct, incorrect, durationSeconds int, now time.Time) error {
	if s.CompletedAt != nil {
		return ErrSessionCompleted
	}

	if correct < 0 || incorrect < 0 {
		return ErrNegativeAnswerCount
	}

	if correct+incorrect > s.CardCount {
		return ErrAnswersExceedCards
	}

	if durationSeconds < 0 {
		return ErrNegativeDuration
	}

	now = now.UTC()
	s.CorrectCount = correct
	s.IncorrectCount = incorrect
	s.DurationSeconds = durationSeconds
	s.CompletedAt = &now
	s.UpdatedAt = now
	return nil
}

// Accuracy is the fraction of answered cards that were correct, zero when
// nothing was answered.
func (s *StudySession) Accuracy() float64 {
	answered := s.CorrectCount + s.IncorrectCount
	if answered == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(answered)
}

// isValidSessionType checks if the given value is a valid SessionType.
func isValidSessionType(t SessionType) bool {
	switch t {
	case SessionTypeFlashcards, SessionTypeTesting, SessionTypePatterns, SessionTypeMixed:
		return true
	default:
		return false
	}
}
