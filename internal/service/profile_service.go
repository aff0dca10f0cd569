package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/domain/leitner"
	"github.com/tkdojang/dojang-api/internal/store"
)

// CreateProfileParams carries the caller-supplied fields for a new profile.
// Learning mode and daily goal start at their domain defaults and are
// changed through UpdateProfile.
type CreateProfileParams struct {
	Name       string
	BeltRank   int
	Avatar     string
	ColorTheme string
}

// UpdateProfileParams carries a partial profile update. Nil fields are left
// untouched, so a caller can change the daily goal without resending the name.
type UpdateProfileParams struct {
	Name         *string
	Avatar       *string
	ColorTheme   *string
	BeltRank     *int
	LearningMode *domain.LearningMode
	DailyGoal    *int
}

// ProfileStats summarizes a profile's learning state across the catalogue.
type ProfileStats struct {
	ProfileID         uuid.UUID                    `json:"profile_id"`
	BeltRank          int                          `json:"belt_rank"`
	StreakDays        int                          `json:"streak_days"`
	TotalStudySeconds int64                        `json:"total_study_seconds"`
	ItemsSeen         int                          `json:"items_seen"`
	TotalReviews      int                          `json:"total_reviews"`
	CorrectCount      int                          `json:"correct_count"`
	IncorrectCount    int                          `json:"incorrect_count"`
	Accuracy          float64                      `json:"accuracy"`
	DueCount          int                          `json:"due_count"`
	MasteryBreakdown  map[leitner.MasteryLevel]int `json:"mastery_breakdown"`
}

// ProfileService provides learner profile operations. Every method takes the
// calling user's ID and refuses to touch profiles owned by someone else.
type ProfileService interface {
	// CreateProfile creates a profile for the user at the given belt rank.
	// Returns ErrUnknownBeltRank if the rank is not in the catalogue.
	CreateProfile(ctx context.Context, userID uuid.UUID, params CreateProfileParams) (*domain.LearnerProfile, error)

	// GetProfile retrieves one of the user's profiles.
	// Returns ErrProfileNotFound or ErrNotOwned.
	GetProfile(ctx context.Context, userID, profileID uuid.UUID) (*domain.LearnerProfile, error)

	// ListProfiles retrieves all profiles owned by the user, oldest first.
	ListProfiles(ctx context.Context, userID uuid.UUID) ([]*domain.LearnerProfile, error)

	// UpdateProfile applies a partial update to one of the user's profiles.
	// A belt rank change is validated against the catalogue.
	UpdateProfile(ctx context.Context, userID, profileID uuid.UUID, params UpdateProfileParams) (*domain.LearnerProfile, error)

	// PromoteProfile records a grading attempt. A passed attempt moves the
	// profile to the next belt and the record is written in the same
	// transaction; a failed attempt records the attempt only.
	// Returns ErrAtHighestBelt when there is no next belt to grade toward.
	PromoteProfile(ctx context.Context, userID, profileID uuid.UUID, passed bool, notes string) (*domain.GradingRecord, error)

	// DeleteProfile removes a profile and everything it owns - review
	// progress, sessions, grading history - in a single transaction.
	DeleteProfile(ctx context.Context, userID, profileID uuid.UUID) error

	// GetProfileStats computes review totals, accuracy, due counts, and the
	// mastery breakdown for one of the user's profiles.
	GetProfileStats(ctx context.Context, userID, profileID uuid.UUID) (*ProfileStats, error)

	// ExportProfile builds the portable archive document for one of the
	// user's profiles, full study history included.
	ExportProfile(ctx context.Context, userID, profileID uuid.UUID) (*domain.ProfileArchive, error)
}

// profileServiceImpl implements the ProfileService interface.
type profileServiceImpl struct {
	profileStore  store.ProfileStore
	progressStore store.ProgressStore
	sessionStore  store.SessionStore
	gradingStore  store.GradingStore
	catalog       *catalog.Catalog
	db            *sql.DB
	logger        *slog.Logger
}

// NewProfileService creates a new ProfileService.
// It returns an error if any of the required dependencies are nil.
func NewProfileService(
	profileStore store.ProfileStore,
	progressStore store.ProgressStore,
	sessionStore store.SessionStore,
	gradingStore store.GradingStore,
	cat *catalog.Catalog,
	db *sql.DB,
	logger *slog.Logger,
) (ProfileService, error) {
	if profileStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "profileStore cannot be nil"}
	}
	if progressStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "progressStore cannot be nil"}
	}
	if sessionStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "sessionStore cannot be nil"}
	}
	if gradingStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "gradingStore cannot be nil"}
	}
	if cat == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "catalog cannot be nil"}
	}
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &profileServiceImpl{
		profileStore:  profileStore,
		progressStore: progressStore,
		sessionStore:  sessionStore,
		gradingStore:  gradingStore,
		catalog:       cat,
		db:            db,
		logger:        logger.With("component", "profile_service"),
	}, nil
}

// loadOwnedProfile fetches a profile and enforces that the caller owns it.
// Store not-found errors come back as ErrProfileNotFound; a profile owned by
// a different user comes back as ErrNotOwned without revealing anything else.
func loadOwnedProfile(
	ctx context.Context,
	profiles store.ProfileStore,
	userID, profileID uuid.UUID,
) (*domain.LearnerProfile, error) {
	profile, err := profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if profile.UserID != userID {
		return nil, ErrNotOwned
	}

	return profile, nil
}

// CreateProfile creates a profile for the user at the given belt rank.
func (s *profileServiceImpl) CreateProfile(
	ctx context.Context,
	userID uuid.UUID,
	params CreateProfileParams,
) (*domain.LearnerProfile, error) {
	if _, ok := s.catalog.BeltByRank(params.BeltRank); !ok {
		s.logger.Debug("rejected profile at unknown belt rank",
			"user_id", userID,
			"belt_rank", params.BeltRank)
		return nil, ErrUnknownBeltRank
	}

	profile, err := domain.NewLearnerProfile(userID, params.Name, params.BeltRank)
	if err != nil {
		s.logger.Debug("invalid profile data",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_profile", "invalid profile data", err)
	}
	profile.Avatar = params.Avatar
	profile.ColorTheme = params.ColorTheme

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.profileStore.WithTx(tx).Create(ctx, profile)
	})
	if err != nil {
		s.logger.Error("failed to save profile",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_profile", "failed to save profile", err)
	}

	s.logger.Info("profile created",
		"profile_id", profile.ID,
		"user_id", userID,
		"belt_rank", profile.BeltRank)

	return profile, nil
}

// GetProfile retrieves one of the user's profiles.
func (s *profileServiceImpl) GetProfile(
	ctx context.Context,
	userID, profileID uuid.UUID,
) (*domain.LearnerProfile, error) {
	profile, err := loadOwnedProfile(ctx, s.profileStore, userID, profileID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			s.logger.Debug("profile access refused",
				"error", err,
				"profile_id", profileID,
				"user_id", userID)
			return nil, err
		}
		s.logger.Error("failed to retrieve profile",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("get_profile", "failed to retrieve profile", err)
	}
	return profile, nil
}

// ListProfiles retrieves all profiles owned by the user.
func (s *profileServiceImpl) ListProfiles(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LearnerProfile, error) {
	profiles, err := s.profileStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list profiles",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("list_profiles", "failed to list profiles", err)
	}
	return profiles, nil
}

// UpdateProfile applies a partial update to one of the user's profiles.
// Follows the pattern of retrieving the complete profile first, applying the
// requested fields, and writing the whole object back inside a transaction.
func (s *profileServiceImpl) UpdateProfile(
	ctx context.Context,
	userID, profileID uuid.UUID,
	params UpdateProfileParams,
) (*domain.LearnerProfile, error) {
	if params.BeltRank != nil {
		if _, ok := s.catalog.BeltByRank(*params.BeltRank); !ok {
			s.logger.Debug("rejected update to unknown belt rank",
				"profile_id", profileID,
				"belt_rank", *params.BeltRank)
			return nil, ErrUnknownBeltRank
		}
	}

	var updated *domain.LearnerProfile
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)

		profile, err := loadOwnedProfile(ctx, txProfiles, userID, profileID)
		if err != nil {
			return err
		}

		if params.Name != nil {
			profile.Name = *params.Name
		}
		if params.Avatar != nil {
			profile.Avatar = *params.Avatar
		}
		if params.ColorTheme != nil {
			profile.ColorTheme = *params.ColorTheme
		}
		if params.BeltRank != nil {
			profile.BeltRank = *params.BeltRank
		}
		if params.LearningMode != nil {
			profile.LearningMode = *params.LearningMode
		}
		if params.DailyGoal != nil {
			profile.DailyGoal = *params.DailyGoal
		}
		profile.UpdatedAt = time.Now().UTC()

		if err := txProfiles.Update(ctx, profile); err != nil {
			return err
		}

		updated = profile
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			s.logger.Debug("profile update refused",
				"error", err,
				"profile_id", profileID,
				"user_id", userID)
			return nil, err
		}
		s.logger.Error("failed to update profile",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("update_profile", "failed to update profile", err)
	}

	s.logger.Info("profile updated",
		"profile_id", profileID,
		"user_id", userID)

	return updated, nil
}

// PromoteProfile records a grading attempt for the profile's next belt.
// The grading record and, on a pass, the belt change are written in the same
// transaction so history never disagrees with the profile row.
func (s *profileServiceImpl) PromoteProfile(
	ctx context.Context,
	userID, profileID uuid.UUID,
	passed bool,
	notes string,
) (*domain.GradingRecord, error) {
	var record *domain.GradingRecord
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)

		profile, err := loadOwnedProfile(ctx, txProfiles, userID, profileID)
		if err != nil {
			return err
		}

		next, ok := s.catalog.NextBelt(profile.BeltRank)
		if !ok {
			return ErrAtHighestBelt
		}

		result := domain.GradingResultFailed
		if passed {
			result = domain.GradingResultPassed
		}

		now := time.Now().UTC()
		record, err = domain.NewGradingRecord(profileID, profile.BeltRank, next.Rank, result, notes, now)
		if err != nil {
			return err
		}

		if err := s.gradingStore.WithTx(tx).Create(ctx, record); err != nil {
			return err
		}

		if passed {
			profile.BeltRank = next.Rank
			profile.UpdatedAt = now
			if err := txProfiles.Update(ctx, profile); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) || errors.Is(err, ErrAtHighestBelt) {
			s.logger.Debug("grading refused",
				"error", err,
				"profile_id", profileID,
				"user_id", userID)
			return nil, err
		}
		s.logger.Error("failed to record grading",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("promote_profile", "failed to record grading", err)
	}

	s.logger.Info("grading recorded",
		"profile_id", profileID,
		"from_rank", record.FromRank,
		"to_rank", record.ToRank,
		"result", record.Result)

	return record, nil
}

// DeleteProfile removes the profile and all dependent records in a single
// transaction. Dependents go first: the schema restricts rather than
// cascades, so a missed table surfaces as a foreign key error instead of
// silently orphaning rows.
func (s *profileServiceImpl) DeleteProfile(ctx context.Context, userID, profileID uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)

		if _, err := loadOwnedProfile(ctx, txProfiles, userID, profileID); err != nil {
			return err
		}

		if err := s.progressStore.WithTx(tx).DeleteByProfile(ctx, profileID); err != nil {
			return err
		}
		if err := s.sessionStore.WithTx(tx).DeleteByProfile(ctx, profileID); err != nil {
			return err
		}
		if err := s.gradingStore.WithTx(tx).DeleteByProfile(ctx, profileID); err != nil {
			return err
		}

		return txProfiles.Delete(ctx, profileID)
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			s.logger.Debug("profile deletion refused",
				"error", err,
				"profile_id", profileID,
				"user_id", userID)
			return err
		}
		s.logger.Error("failed to delete profile",
			"error", err,
			"profile_id", profileID)
		return NewServiceError("delete_profile", "failed to delete profile", err)
	}

	s.logger.Info("profile deleted with all dependent records",
		"profile_id", profileID,
		"user_id", userID)

	return nil
}

// GetProfileStats computes review totals and scheduling state for a profile.
func (s *profileServiceImpl) GetProfileStats(
	ctx context.Context,
	userID, profileID uuid.UUID,
) (*ProfileStats, error) {
	profile, err := loadOwnedProfile(ctx, s.profileStore, userID, profileID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			return nil, err
		}
		return nil, NewServiceError("get_profile_stats", "failed to retrieve profile", err)
	}

	records, err := s.progressStore.ListByProfile(ctx, profileID, "")
	if err != nil {
		s.logger.Error("failed to list progress for stats",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("get_profile_stats", "failed to list review progress", err)
	}

	stats := &ProfileStats{
		ProfileID:         profile.ID,
		BeltRank:          profile.BeltRank,
		StreakDays:        profile.StreakDays,
		TotalStudySeconds: profile.TotalStudySeconds,
		ItemsSeen:         len(records),
		MasteryBreakdown: map[leitner.MasteryLevel]int{
			leitner.MasteryLearning:   0,
			leitner.MasteryFamiliar:   0,
			leitner.MasteryProficient: 0,
			leitner.MasteryMastered:   0,
		},
	}

	now := time.Now().UTC()
	for _, record := range records {
		stats.TotalReviews += record.TotalReviews()
		stats.CorrectCount += record.CorrectCount
		stats.IncorrectCount += record.IncorrectCount
		if !record.NextReviewAt.After(now) {
			stats.DueCount++
		}
		stats.MasteryBreakdown[leitner.MasteryLevelFor(record.CurrentBox)]++
	}
	if stats.TotalReviews > 0 {
		stats.Accuracy = float64(stats.CorrectCount) / float64(stats.TotalReviews)
	}

	return stats, nil
}
