package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// LearningMode selects which belts contribute study material for a profile.
type LearningMode string

// Possible learning mode values.
const (
	// LearningModeProgression restricts study content to the next belt only.
	LearningModeProgression LearningMode = "progression"

	// LearningModeMastery includes all previously earned belts plus the
	// next belt, bounded by the selection limit.
	LearningModeMastery LearningMode = "mastery"
)

// Profile field bounds.
const (
	MaxProfileNameLength = 40
	MaxAvatarLength      = 64
	MaxColorThemeLength  = 32

	// DailyGoal must stay within a sane range; the product treats anything
	// in the hundreds as plausible and four digits as a typo.
	MinDailyGoal = 1
	MaxDailyGoal = 999

	DefaultDailyGoal = 20
)

// Common validation errors for LearnerProfile.
var (
	ErrEmptyProfileID      = errors.New("profile ID cannot be empty")
	ErrEmptyProfileUserID  = errors.New("profile user ID cannot be empty")
	ErrEmptyProfileName    = errors.New("profile name cannot be empty")
	ErrProfileNameTooLong  = errors.New("profile name cannot exceed 40 characters")
	ErrInvalidBeltRank     = errors.New("belt rank must be a positive integer")
	ErrInvalidLearningMode = errors.New("learning mode must be either progression or mastery")
	ErrInvalidDailyGoal    = errors.New("daily goal must be between 1 and 999")
	ErrNegativeStreak      = errors.New("streak days cannot be negative")
	ErrNegativeStudyTime   = errors.New("total study time cannot be negative")
)

// LearnerProfile is one family member using the app under a shared account.
// Each profile owns its review progress, sessions, and grading history;
// those records never leak between profiles and are removed together with
// the profile.
type LearnerProfile struct {
	ID                uuid.UUID    `json:"id"`
	UserID            uuid.UUID    `json:"user_id"`
	Name              string       `json:"name"`
	Avatar            string       `json:"avatar,omitempty"`
	ColorTheme        string       `json:"color_theme,omitempty"`
	BeltRank          int          `json:"belt_rank"` // Catalogue sort order of the current belt
	LearningMode      LearningMode `json:"learning_mode"`
	DailyGoal         int          `json:"daily_goal"` // Cards per day
	StreakDays        int          `json:"streak_days"`
	LastActiveAt      time.Time    `json:"last_active_at"`
	TotalStudySeconds int64        `json:"total_study_seconds"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewLearnerProfile creates a profile at the given belt rank with default
// study settings (progression mode, default daily goal, no streak).
func NewLearnerProfile(userID uuid.UUID, name string, beltRank int) (*LearnerProfile, error) {
	now := time.Now().UTC()
	profile := &LearnerProfile{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		BeltRank:     beltRank,
		LearningMode: LearningModeProgression,
		DailyGoal:    DefaultDailyGoal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}

// Validate checks if the LearnerProfile has valid data.
// Returns an error if any field fails validation.
func (p *LearnerProfile) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProfileID
	}

	if p.UserID == uuid.Nil {
		return ErrEmptyProfileUserID
	}

	if p.Name == "" {
		return ErrEmptyProfileName
	}

	if utf8.RuneCountInString(p.Name) > MaxProfileNameLength {
		return ErrProfileNameTooLong
	}

	if p.BeltRank <= 0 {
		return ErrInvalidBeltRank
	}

	if !isValidLearningMode(p.LearningMode) {
		return ErrInvalidLearningMode
	}

	if p.DailyGoal < MinDailyGoal || p.DailyGoal > MaxDailyGoal {
		return ErrInvalidDailyGoal
	}

	if p.StreakDays < 0 {
		return ErrNegativeStreak
	}

	if p.TotalStudySeconds < 0 {
		return ErrNegativeStudyTime
	}

	return nil
}

// RecordActivity updates the study streak for activity happening at now.
// Activity on the same UTC day leaves the streak unchanged, activity on the
// following day extends it, and any longer gap restarts it at one.
func (p *LearnerProfile) RecordActivity(now time.Time) {
	now = now.UTC()
	today := startOfDay(now)

	switch {
	case p.LastActiveAt.IsZero():
		p.StreakDays = 1
	case startOfDay(p.LastActiveAt.UTC()).Equal(today):
		// Already counted today.
	case today.Sub(startOfDay(p.LastActiveAt.UTC())) == 24*time.Hour:
		p.StreakDays++
	default:
		p.StreakDays = 1
	}

	p.LastActiveAt = now
	p.UpdatedAt = now
}

// AddStudyTime accumulates session time; negative durations are ignored.
func (p *LearnerProfile) AddStudyTime(seconds int64) {
	if seconds <= 0 {
		return
	}
	p.TotalStudySeconds += seconds
}

// LapseStreak clears the streak for a profile that missed a day.
func (p *LearnerProfile) LapseStreak(now time.Time) {
	p.StreakDays = 0
	p.UpdatedAt = now.UTC()
}

// isValidLearningMode checks if the given mode is a valid LearningMode.
func isValidLearningMode(mode LearningMode) bool {
	switch mode {
	case LearningModeProgression, LearningModeMastery:
		return true
	default:
		return false
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
