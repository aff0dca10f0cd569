package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/domain/leitner"
	"github.com/tkdojang/dojang-api/internal/platform/logger"
	"github.com/tkdojang/dojang-api/internal/store"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	profileStore  store.ProfileStore
	progressStore store.ProgressStore
	scheduler     leitner.Service
	catalog       *catalog.Catalog
	db            *sql.DB
	logger        *slog.Logger
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	profileStore store.ProfileStore,
	progressStore store.ProgressStore,
	scheduler leitner.Service,
	cat *catalog.Catalog,
	db *sql.DB,
	logger *slog.Logger,
) ReviewService {
	// Validate inputs
	if profileStore == nil {
		panic("profileStore cannot be nil")
	}
	if progressStore == nil {
		panic("progressStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if cat == nil {
		panic("catalog cannot be nil")
	}
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		profileStore:  profileStore,
		progressStore: progressStore,
		scheduler:     scheduler,
		catalog:       cat,
		db:            db,
		logger:        logger.With(slog.String("component", "review_service")),
	}
}

// SubmitReview implements ReviewService.SubmitReview.
// It grades one answer and moves the item through the Leitner boxes.
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID uuid.UUID,
	profileID uuid.UUID,
	request SubmitReviewRequest,
) (*domain.ReviewProgress, error) {
	// Get logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing review answer",
		slog.String("user_id", userID.String()),
		slog.String("profile_id", profileID.String()),
		slog.String("item_id", request.ItemID),
		slog.String("item_kind", string(request.ItemKind)),
		slog.Bool("is_correct", request.IsCorrect),
		slog.Int("response_time_ms", request.ResponseTimeMs))

	if !domain.IsValidItemKind(request.ItemKind) {
		log.Warn("invalid item kind in review",
			slog.String("user_id", userID.String()),
			slog.String("item_kind", string(request.ItemKind)))
		return nil, ErrInvalidKind
	}

	var updatedProgress *domain.ReviewProgress
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)
		txProgress := s.progressStore.WithTx(tx)

		// First, verify that the profile exists and belongs to the caller
		profile, err := txProfiles.GetByID(ctx, profileID)
		if err != nil {
			if errors.Is(err, store.ErrProfileNotFound) {
				log.Warn("profile not found for review",
					slog.String("user_id", userID.String()),
					slog.String("profile_id", profileID.String()))
				return ErrProfileNotFound
			}
			return fmt.Errorf("failed to get profile: %w", err)
		}

		if profile.UserID != userID {
			log.Warn("user does not own profile",
				slog.String("user_id", userID.String()),
				slog.String("profile_id", profileID.String()),
				slog.String("owner_id", profile.UserID.String()))
			return ErrProfileNotOwned
		}

		// Resolve the item in the content catalogue
		if _, ok := s.catalog.ItemByID(request.ItemKind, request.ItemID); !ok {
			log.Warn("review for unknown catalogue item",
				slog.String("profile_id", profileID.String()),
				slog.String("item_id", request.ItemID),
				slog.String("item_kind", string(request.ItemKind)))
			return ErrItemNotFound
		}

		// Get the current progress, locking the row against concurrent reviews
		firstReview := false
		progress, err := txProgress.GetForUpdate(ctx, profileID, request.ItemID, request.ItemKind)
		if err != nil {
			if !errors.Is(err, store.ErrProgressNotFound) {
				return fmt.Errorf("failed to get review progress: %w", err)
			}
			// First review of this item: start from the box-one baseline
			firstReview = true
			progress, err = domain.NewReviewProgress(profileID, request.ItemID, request.ItemKind)
			if err != nil {
				return fmt.Errorf("failed to create baseline progress: %w", err)
			}
		}

		// Apply the graded answer through the Leitner scheduler
		newProgress, err := s.scheduler.RecordReview(progress, request.IsCorrect, time.Now().UTC())
		if err != nil {
			log.Error("failed to apply review to schedule",
				slog.String("error", err.Error()),
				slog.String("profile_id", profileID.String()),
				slog.String("item_id", request.ItemID))
			return fmt.Errorf("failed to apply review to schedule: %w", err)
		}

		// Save or update the progress record
		if firstReview {
			if err := txProgress.Create(ctx, newProgress); err != nil {
				return fmt.Errorf("failed to create review progress: %w", err)
			}
		} else {
			if err := txProgress.Update(ctx, newProgress); err != nil {
				return fmt.Errorf("failed to update review progress: %w", err)
			}
		}

		// Store the updated progress for the return value
		updatedProgress = newProgress
		return nil
	})

	if err != nil {
		// If the error is already one of our service errors, pass it through
		if errors.Is(err, ErrProfileNotFound) ||
			errors.Is(err, ErrProfileNotOwned) ||
			errors.Is(err, ErrItemNotFound) {
			return nil, err
		}

		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("profile_id", profileID.String()),
			slog.String("item_id", request.ItemID))
		return nil, NewSubmitReviewError("transaction failed", err)
	}

	log.Debug("successfully processed review answer",
		slog.String("profile_id", profileID.String()),
		slog.String("item_id", request.ItemID),
		slog.Bool("is_correct", request.IsCorrect),
		slog.Int("current_box", updatedProgress.CurrentBox),
		slog.Time("next_review_at", updatedProgress.NextReviewAt))

	return updatedProgress, nil
}

// PostponeReview implements ReviewService.PostponeReview.
// It defers an item's next review without grading an answer.
func (s *reviewServiceImpl) PostponeReview(
	ctx context.Context,
	userID uuid.UUID,
	profileID uuid.UUID,
	itemID string,
	kind domain.ItemKind,
	days int,
) (*domain.ReviewProgress, error) {
	// Get logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("postponing review",
		slog.String("user_id", userID.String()),
		slog.String("profile_id", profileID.String()),
		slog.String("item_id", itemID),
		slog.String("item_kind", string(kind)),
		slog.Int("days", days))

	if !domain.IsValidItemKind(kind) {
		return nil, ErrInvalidKind
	}
	if days < 1 {
		return nil, ErrInvalidPostpone
	}

	var updatedProgress *domain.ReviewProgress
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)
		txProgress := s.progressStore.WithTx(tx)

		profile, err := txProfiles.GetByID(ctx, profileID)
		if err != nil {
			if errors.Is(err, store.ErrProfileNotFound) {
				return ErrProfileNotFound
			}
			return fmt.Errorf("failed to get profile: %w", err)
		}

		if profile.UserID != userID {
			log.Warn("user does not own profile",
				slog.String("user_id", userID.String()),
				slog.String("profile_id", profileID.String()),
				slog.String("owner_id", profile.UserID.String()))
			return ErrProfileNotOwned
		}

		// Postponing an item the profile has never reviewed is meaningless
		progress, err := txProgress.GetForUpdate(ctx, profileID, itemID, kind)
		if err != nil {
			if errors.Is(err, store.ErrProgressNotFound) {
				return ErrProgressNotFound
			}
			return fmt.Errorf("failed to get review progress: %w", err)
		}

		newProgress, err := s.scheduler.PostponeReview(progress, days, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to postpone review: %w", err)
		}

		if err := txProgress.Update(ctx, newProgress); err != nil {
			return fmt.Errorf("failed to update review progress: %w", err)
		}

		updatedProgress = newProgress
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrProfileNotFound) ||
			errors.Is(err, ErrProfileNotOwned) ||
			errors.Is(err, ErrProgressNotFound) {
			return nil, err
		}

		log.Error("failed to postpone review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("profile_id", profileID.String()),
			slog.String("item_id", itemID))
		return nil, &ServiceError{
			Operation: "postpone_review",
			Message:   "transaction failed",
			Err:       err,
		}
	}

	log.Debug("successfully postponed review",
		slog.String("profile_id", profileID.String()),
		slog.String("item_id", itemID),
		slog.Time("next_review_at", updatedProgress.NextReviewAt))

	return updatedProgress, nil
}

// ListProgress implements ReviewService.ListProgress.
// It returns the profile's progress records, optionally restricted by kind.
func (s *reviewServiceImpl) ListProgress(
	ctx context.Context,
	userID uuid.UUID,
	profileID uuid.UUID,
	kind domain.ItemKind,
) ([]*domain.ReviewProgress, error) {
	// Get logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing review progress",
		slog.String("user_id", userID.String()),
		slog.String("profile_id", profileID.String()),
		slog.String("item_kind", string(kind)))

	if kind != "" && !domain.IsValidItemKind(kind) {
		return nil, ErrInvalidKind
	}

	// Reads need no transaction; ownership is checked against the live row
	profile, err := s.profileStore.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		log.Error("failed to get profile",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return nil, NewListProgressError("failed to get profile", err)
	}

	if profile.UserID != userID {
		log.Warn("user does not own profile",
			slog.String("user_id", userID.String()),
			slog.String("profile_id", profileID.String()),
			slog.String("owner_id", profile.UserID.String()))
		return nil, ErrProfileNotOwned
	}

	records, err := s.progressStore.ListByProfile(ctx, profileID, kind)
	if err != nil {
		log.Error("failed to list review progress",
			slog.String("error", err.Error()),
			slog.String("profile_id", profileID.String()))
		return nil, NewListProgressError("failed to list review progress", err)
	}

	log.Debug("successfully listed review progress",
		slog.String("profile_id", profileID.String()),
		slog.Int("record_count", len(records)))

	return records, nil
}
