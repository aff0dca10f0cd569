package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// FeedbackFilter narrows a feedback post listing. Zero-valued fields are
// ignored, so the empty filter lists everything.
type FeedbackFilter struct {
	Status   domain.FeedbackStatus
	Category domain.FeedbackCategory
	Limit    int
	Offset   int
}

// FeedbackStore defines the interface for community feedback persistence.
type FeedbackStore interface {
	// CreatePost saves a new feedback post.
	// It handles domain validation internally.
	// Returns validation errors from the domain FeedbackPost if data is invalid.
	CreatePost(ctx context.Context, post *domain.FeedbackPost) error

	// GetPost retrieves a post by its unique ID.
	// Returns ErrFeedbackPostNotFound if the post does not exist.
	GetPost(ctx context.Context, id uuid.UUID) (*domain.FeedbackPost, error)

	// ListPosts retrieves posts matching the filter, most voted first with
	// newest breaking ties. Returns an empty slice when nothing matches.
	ListPosts(ctx context.Context, filter FeedbackFilter) ([]*domain.FeedbackPost, error)

	// UpdatePost saves changes to an existing post, typically a status move.
	// Returns ErrFeedbackPostNotFound if the post does not exist.
	// Returns validation errors if the post data is invalid.
	UpdatePost(ctx context.Context, post *domain.FeedbackPost) error

	// CastVote records one user's vote on a post and bumps its vote count,
	// atomically. Votes are unique per (post, user).
	// Returns ErrVoteExists if the user already voted on the post.
	// Returns ErrFeedbackPostNotFound if the post does not exist.
	CastVote(ctx context.Context, postID, userID uuid.UUID) error

	// RetractVote removes one user's vote from a post and drops its vote
	// count, atomically.
	// Returns ErrVoteNotFound if the user has no vote on the post.
	RetractVote(ctx context.Context, postID, userID uuid.UUID) error

	// WithTx returns a new FeedbackStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) FeedbackStore
}
