package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/platform/logger"
	"github.com/tkdojang/dojang-api/internal/store"
)

// PostgresFeedbackStore implements the store.FeedbackStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFeedbackStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFeedbackStore creates a new PostgreSQL implementation of the FeedbackStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFeedbackStore(db store.DBTX, logger *slog.Logger) *PostgresFeedbackStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFeedbackStore{
		db:     db,
		logger: logger.With(slog.String("component", "feedback_store")),
	}
}

// Ensure PostgresFeedbackStore implements store.FeedbackStore interface
var _ store.FeedbackStore = (*PostgresFeedbackStore)(nil)

// CreatePost implements store.FeedbackStore.CreatePost
// It saves a new feedback post, handling domain validation.
// Returns store.ErrInvalidEntity if the author doesn't exist (foreign key violation).
func (s *PostgresFeedbackStore) CreatePost(ctx context.Context, post *domain.FeedbackPost) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate post data
	if err := post.Validate(); err != nil {
		log.Warn("feedback post validation failed during create",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	query := `
		INSERT INTO feedback_posts (id, user_id, title, body, category,
			status, vote_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		post.ID,
		post.UserID,
		post.Title,
		post.Body,
		post.Category,
		post.Status,
		post.VoteCount,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during feedback post creation",
				slog.String("error", err.Error()),
				slog.String("post_id", post.ID.String()),
				slog.String("user_id", post.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, post.UserID)
		}

		log.Error("failed to create feedback post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return MapError(err)
	}

	log.Info("feedback post created",
		slog.String("post_id", post.ID.String()),
		slog.String("category", string(post.Category)))
	return nil
}

// GetPost implements store.FeedbackStore.GetPost
// It retrieves a post by its unique ID.
// Returns store.ErrFeedbackPostNotFound if the post does not exist.
func (s *PostgresFeedbackStore) GetPost(ctx context.Context, id uuid.UUID) (*domain.FeedbackPost, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, body, category, status, vote_count,
			created_at, updated_at
		FROM feedback_posts
		WHERE id = $1
	`

	post, err := scanFeedbackPost(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("feedback post not found", slog.String("post_id", id.String()))
			return nil, store.ErrFeedbackPostNotFound
		}
		log.Error("failed to get feedback post",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return nil, err
	}

	return post, nil
}

// ListPosts implements store.FeedbackStore.ListPosts
// It retrieves posts matching the filter, most voted first with newest
// breaking ties. Zero-valued filter fields are ignored.
// Returns an empty slice when nothing matches.
func (s *PostgresFeedbackStore) ListPosts(
	ctx context.Context,
	filter store.FeedbackFilter,
) ([]*domain.FeedbackPost, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, body, category, status, vote_count,
			created_at, updated_at
		FROM feedback_posts
	`
	var args []interface{}
	var conditions []string

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += "WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += `
		ORDER BY vote_count DESC, created_at DESC
	`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query feedback posts",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var posts []*domain.FeedbackPost
	for rows.Next() {
		post, err := scanFeedbackPost(rows)
		if err != nil {
			log.Error("failed to scan feedback post row",
				slog.String("error", err.Error()))
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no posts found
	if posts == nil {
		posts = []*domain.FeedbackPost{}
	}

	log.Debug("listed feedback posts", slog.Int("count", len(posts)))
	return posts, nil
}

// UpdatePost implements store.FeedbackStore.UpdatePost
// It saves changes to an existing post, typically a roadmap status move.
// The vote count is deliberately not written here; votes flow only through
// CastVote and RetractVote.
// Returns store.ErrFeedbackPostNotFound if the post does not exist.
func (s *PostgresFeedbackStore) UpdatePost(ctx context.Context, post *domain.FeedbackPost) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate post data
	if err := post.Validate(); err != nil {
		log.Warn("feedback post validation failed during update",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	post.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE feedback_posts
		SET title = $1, body = $2, category = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		post.Title,
		post.Body,
		post.Category,
		post.Status,
		post.UpdatedAt,
		post.ID,
	)

	if err != nil {
		log.Error("failed to update feedback post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("feedback post not found for update",
			slog.String("post_id", post.ID.String()))
		return store.ErrFeedbackPostNotFound
	}

	log.Info("feedback post updated",
		slog.String("post_id", post.ID.String()),
		slog.String("status", string(post.Status)))
	return nil
}

// CastVote implements store.FeedbackStore.CastVote
// It inserts the vote row and bumps the post's vote count in a single
// statement, so the count can never drift from the vote rows.
// Returns store.ErrVoteExists if the user already voted on the post.
// Returns store.ErrFeedbackPostNotFound if the post does not exist.
func (s *PostgresFeedbackStore) CastVote(ctx context.Context, postID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()

	query := `
		WITH new_vote AS (
			INSERT INTO feedback_votes (post_id, user_id, created_at)
			VALUES ($1, $2, $3)
		)
		UPDATE feedback_posts
		SET vote_count = vote_count + 1, updated_at = $3
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, postID, userID, now)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate vote",
				slog.String("post_id", postID.String()),
				slog.String("user_id", userID.String()))
			return MapUniqueViolation(err, "vote", "", store.ErrVoteExists)
		}

		if IsForeignKeyViolation(err) {
			log.Debug("vote on missing post",
				slog.String("post_id", postID.String()))
			return fmt.Errorf("%w: %v", store.ErrFeedbackPostNotFound, err)
		}

		log.Error("failed to cast vote",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "feedback post"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrFeedbackPostNotFound, err)
	}

	log.Info("vote cast",
		slog.String("post_id", postID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// RetractVote implements store.FeedbackStore.RetractVote
// It removes the vote row and drops the post's vote count in a single
// statement. When the vote row doesn't exist the update matches nothing.
// Returns store.ErrVoteNotFound if the user has no vote on the post.
func (s *PostgresFeedbackStore) RetractVote(ctx context.Context, postID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()

	query := `
		WITH removed AS (
			DELETE FROM feedback_votes
			WHERE post_id = $1 AND user_id = $2
			RETURNING post_id
		)
		UPDATE feedback_posts p
		SET vote_count = vote_count - 1, updated_at = $3
		FROM removed r
		WHERE p.id = r.post_id
	`

	result, err := s.db.ExecContext(ctx, query, postID, userID, now)
	if err != nil {
		log.Error("failed to retract vote",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("vote not found for retraction",
			slog.String("post_id", postID.String()),
			slog.String("user_id", userID.String()))
		return store.ErrVoteNotFound
	}

	log.Info("vote retracted",
		slog.String("post_id", postID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// WithTx implements store.FeedbackStore.WithTx
// It returns a new FeedbackStore that runs its operations on the given transaction.
func (s *PostgresFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore {
	return &PostgresFeedbackStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanFeedbackPost reads one feedback_posts row in column order.
func scanFeedbackPost(row rowScanner) (*domain.FeedbackPost, error) {
	var post domain.FeedbackPost
	var category, status string

	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Body,
		&category,
		&status,
		&post.VoteCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Category = domain.FeedbackCategory(category)
	post.Status = domain.FeedbackStatus(status)
	return &post, nil
}
