package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/store"
)

// FeedbackService manages the community feedback board. Posts are public:
// any signed-in user can read the board and vote; only creation and voting
// are tied to the calling account.
type FeedbackService interface {
	// CreatePost opens a new feedback post under the calling user.
	CreatePost(ctx context.Context, userID uuid.UUID, title, body string, category domain.FeedbackCategory) (*domain.FeedbackPost, error)

	// GetPost retrieves a post by ID.
	// Returns ErrFeedbackPostNotFound if the post does not exist.
	GetPost(ctx context.Context, postID uuid.UUID) (*domain.FeedbackPost, error)

	// ListPosts retrieves posts matching the filter, most voted first.
	ListPosts(ctx context.Context, filter store.FeedbackFilter) ([]*domain.FeedbackPost, error)

	// CastVote records the user's vote on a post.
	// Returns ErrAlreadyVoted if the user has voted already.
	CastVote(ctx context.Context, userID, postID uuid.UUID) error

	// RetractVote removes the user's vote from a post.
	// Returns ErrVoteNotFound if the user has no vote to retract.
	RetractVote(ctx context.Context, userID, postID uuid.UUID) error
}

// feedbackServiceImpl implements the FeedbackService interface.
type feedbackServiceImpl struct {
	feedbackStore store.FeedbackStore
	db            *sql.DB
	logger        *slog.Logger
}

// NewFeedbackService creates a new FeedbackService.
// It returns an error if any of the required dependencies are nil.
func NewFeedbackService(
	feedbackStore store.FeedbackStore,
	db *sql.DB,
	logger *slog.Logger,
) (FeedbackService, error) {
	if feedbackStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "feedbackStore cannot be nil"}
	}
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &feedbackServiceImpl{
		feedbackStore: feedbackStore,
		db:            db,
		logger:        logger.With("component", "feedback_service"),
	}, nil
}

// CreatePost opens a new feedback post under the calling user.
func (s *feedbackServiceImpl) CreatePost(
	ctx context.Context,
	userID uuid.UUID,
	title, body string,
	category domain.FeedbackCategory,
) (*domain.FeedbackPost, error) {
	post, err := domain.NewFeedbackPost(userID, title, body, category)
	if err != nil {
		s.logger.Debug("invalid feedback post data",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_post", "invalid post data", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.feedbackStore.WithTx(tx).CreatePost(ctx, post)
	})
	if err != nil {
		s.logger.Error("failed to save feedback post",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_post", "failed to save post", err)
	}

	s.logger.Info("feedback post created",
		"post_id", post.ID,
		"user_id", userID,
		"category", post.Category)

	return post, nil
}

// GetPost retrieves a post by ID.
func (s *feedbackServiceImpl) GetPost(ctx context.Context, postID uuid.UUID) (*domain.FeedbackPost, error) {
	post, err := s.feedbackStore.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrFeedbackPostNotFound) {
			return nil, ErrFeedbackPostNotFound
		}
		s.logger.Error("failed to retrieve feedback post",
			"error", err,
			"post_id", postID)
		return nil, NewServiceError("get_post", "failed to retrieve post", err)
	}
	return post, nil
}

// ListPosts retrieves posts matching the filter.
func (s *feedbackServiceImpl) ListPosts(
	ctx context.Context,
	filter store.FeedbackFilter,
) ([]*domain.FeedbackPost, error) {
	posts, err := s.feedbackStore.ListPosts(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list feedback posts", "error", err)
		return nil, NewServiceError("list_posts", "failed to list posts", err)
	}
	return posts, nil
}

// CastVote records the user's vote on a post. The store bumps the post's
// vote count in the same statement, so no transaction is needed here.
func (s *feedbackServiceImpl) CastVote(ctx context.Context, userID, postID uuid.UUID) error {
	err := s.feedbackStore.CastVote(ctx, postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrVoteExists):
			s.logger.Debug("duplicate vote refused",
				"post_id", postID,
				"user_id", userID)
			return ErrAlreadyVoted
		case errors.Is(err, store.ErrFeedbackPostNotFound):
			return ErrFeedbackPostNotFound
		default:
			s.logger.Error("failed to cast vote",
				"error", err,
				"post_id", postID,
				"user_id", userID)
			return NewServiceError("cast_vote", "failed to cast vote", err)
		}
	}

	s.logger.Info("vote cast",
		"post_id", postID,
		"user_id", userID)

	return nil
}

// RetractVote removes the user's vote from a post.
func (s *feedbackServiceImpl) RetractVote(ctx context.Context, userID, postID uuid.UUID) error {
	err := s.feedbackStore.RetractVote(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, store.ErrVoteNotFound) {
			s.logger.Debug("no vote to retract",
				"post_id", postID,
				"user_id", userID)
			return ErrVoteNotFound
		}
		s.logger.Error("failed to retract vote",
			"error", err,
			"post_id", postID,
			"user_id", userID)
		return NewServiceError("retract_vote", "failed to retract vote", err)
	}

	s.logger.Info("vote retracted",
		"post_id", postID,
		"user_id", userID)

	return nil
}
