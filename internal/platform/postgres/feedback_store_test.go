package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/store"
)

var feedbackTestColumns = []string{
	"id", "user_id", "title", "body", "category", "status", "vote_count",
	"created_at", "updated_at",
}

func TestFeedbackStoreCastVote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	feedbackStore := NewPostgresFeedbackStore(db, nil)
	postID := uuid.New()
	userID := uuid.New()

	t.Run("vote recorded", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feedback_votes").
			WithArgs(postID, userID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, feedbackStore.CastVote(context.Background(), postID, userID))
	})

	t.Run("second vote rejected", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feedback_votes").
			WillReturnError(newTestPgError("23505"))

		err := feedbackStore.CastVote(context.Background(), postID, userID)
		assert.ErrorIs(t, err, store.ErrVoteExists)
	})

	t.Run("vote on missing post", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feedback_votes").
			WillReturnError(newTestPgError("23503"))

		err := feedbackStore.CastVote(context.Background(), postID, userID)
		assert.ErrorIs(t, err, store.ErrFeedbackPostNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackStoreRetractVote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	feedbackStore := NewPostgresFeedbackStore(db, nil)
	postID := uuid.New()
	userID := uuid.New()

	t.Run("vote removed", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM feedback_votes").
			WithArgs(postID, userID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, feedbackStore.RetractVote(context.Background(), postID, userID))
	})

	t.Run("no vote to remove", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM feedback_votes").
			WithArgs(postID, userID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := feedbackStore.RetractVote(context.Background(), postID, userID)
		assert.ErrorIs(t, err, store.ErrVoteNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackStoreListPosts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	feedbackStore := NewPostgresFeedbackStore(db, nil)
	now := time.Now().UTC()

	t.Run("status and category filters", func(t *testing.T) {
		rows := sqlmock.NewRows(feedbackTestColumns).
			AddRow(uuid.New().String(), uuid.New().String(), "More patterns", "body",
				"content", "open", 42, now, now)

		mock.ExpectQuery("SELECT (.+) FROM feedback_posts WHERE status = (.+) AND category = (.+) ORDER BY vote_count DESC").
			WithArgs("open", "content").
			WillReturnRows(rows)

		posts, err := feedbackStore.ListPosts(context.Background(), store.FeedbackFilter{
			Status:   domain.FeedbackStatusOpen,
			Category: domain.FeedbackCategoryContent,
		})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "More patterns", posts[0].Title)
		assert.Equal(t, 42, posts[0].VoteCount)
	})

	t.Run("empty filter lists everything", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM feedback_posts").
			WillReturnRows(sqlmock.NewRows(feedbackTestColumns))

		posts, err := feedbackStore.ListPosts(context.Background(), store.FeedbackFilter{})
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("limit and offset are positional", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM feedback_posts (.+) LIMIT (.+) OFFSET").
			WithArgs("open", 10, 20).
			WillReturnRows(sqlmock.NewRows(feedbackTestColumns))

		_, err := feedbackStore.ListPosts(context.Background(), store.FeedbackFilter{
			Status: domain.FeedbackStatusOpen,
			Limit:  10,
			Offset: 20,
		})
		require.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackStoreGetPostNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	feedbackStore := NewPostgresFeedbackStore(db, nil)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM feedback_posts").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(feedbackTestColumns))

	_, err = feedbackStore.GetPost(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrFeedbackPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
