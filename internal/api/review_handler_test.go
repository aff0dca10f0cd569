package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/api"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service/review"
)

func reviewRouter(svc review.ReviewService) http.Handler {
	h := api.NewReviewHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/profiles/{profileID}/reviews", h.SubmitReview)
	r.Post("/api/profiles/{profileID}/reviews/postpone", h.PostponeReview)
	r.Get("/api/profiles/{profileID}/progress", h.ListProgress)
	return r
}

func testProgress(t *testing.T, profileID uuid.UUID, itemID string) *domain.ReviewProgress {
	t.Helper()
	progress, err := domain.NewReviewProgress(profileID, itemID, domain.ItemKindTerminology)
	require.NoError(t, err)
	return progress
}

func TestSubmitReview(t *testing.T) {
	t.Parallel()

	t.Run("grades a correct answer", func(t *testing.T) {
		t.Parallel()

		profileID := uuid.New()
		var gotRequest review.SubmitReviewRequest
		svc := &stubReviewService{
			submitReviewFunc: func(ctx context.Context, userID, gotProfile uuid.UUID, request review.SubmitReviewRequest) (*domain.ReviewProgress, error) {
				assert.Equal(t, profileID, gotProfile)
				gotRequest = request
				progress := testProgress(t, gotProfile, request.ItemID)
				progress.CurrentBox = 2
				progress.CorrectCount = 1
				progress.ConsecutiveCorrect = 1
				return progress, nil
			},
		}

		body := `{"item_id": "charyot", "item_kind": "terminology", "is_correct": true, "response_time_ms": 840}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+profileID.String()+"/reviews", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
		assert.Equal(t, review.SubmitReviewRequest{
			ItemID:         "charyot",
			ItemKind:       domain.ItemKindTerminology,
			IsCorrect:      true,
			ResponseTimeMs: 840,
		}, gotRequest)

		var progress domain.ReviewProgress
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progress))
		assert.Equal(t, 2, progress.CurrentBox)
		assert.Equal(t, 1, progress.ConsecutiveCorrect)
	})

	t.Run("an explicit false is not an absent field", func(t *testing.T) {
		t.Parallel()

		var gotCorrect bool
		svc := &stubReviewService{
			submitReviewFunc: func(ctx context.Context, userID, profileID uuid.UUID, request review.SubmitReviewRequest) (*domain.ReviewProgress, error) {
				gotCorrect = request.IsCorrect
				return testProgress(t, profileID, request.ItemID), nil
			},
		}

		body := `{"item_id": "charyot", "item_kind": "terminology", "is_correct": false}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+uuid.NewString()+"/reviews", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
		assert.False(t, gotCorrect)
	})

	t.Run("missing is_correct fails validation", func(t *testing.T) {
		t.Parallel()

		body := `{"item_id": "charyot", "item_kind": "terminology"}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+uuid.NewString()+"/reviews", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(&stubReviewService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Invalid IsCorrect")
	})

	t.Run("unknown item kind fails validation", func(t *testing.T) {
		t.Parallel()

		body := `{"item_id": "charyot", "item_kind": "kata", "is_correct": true}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+uuid.NewString()+"/reviews", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(&stubReviewService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Invalid ItemKind")
	})

	t.Run("item missing from the catalogue", func(t *testing.T) {
		t.Parallel()

		svc := &stubReviewService{
			submitReviewFunc: func(ctx context.Context, userID, profileID uuid.UUID, request review.SubmitReviewRequest) (*domain.ReviewProgress, error) {
				return nil, review.ErrItemNotFound
			},
		}

		body := `{"item_id": "no-such-item", "item_kind": "terminology", "is_correct": true}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+uuid.NewString()+"/reviews", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Study item not found", errorMessage(t, rr))
	})
}

func TestPostponeReview(t *testing.T) {
	t.Parallel()

	t.Run("pushes the next review out", func(t *testing.T) {
		t.Parallel()

		profileID := uuid.New()
		var gotItemID string
		var gotKind domain.ItemKind
		var gotDays int
		svc := &stubReviewService{
			postponeReviewFunc: func(ctx context.Context, userID, gotProfile uuid.UUID, itemID string, kind domain.ItemKind, days int) (*domain.ReviewProgress, error) {
				assert.Equal(t, profileID, gotProfile)
				gotItemID, gotKind, gotDays = itemID, kind, days
				return testProgress(t, gotProfile, itemID), nil
			},
		}

		body := `{"item_id": "chon-ji", "item_kind": "pattern", "days": 3}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+profileID.String()+"/reviews/postpone", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
		assert.Equal(t, "chon-ji", gotItemID)
		assert.Equal(t, domain.ItemKindPattern, gotKind)
		assert.Equal(t, 3, gotDays)
	})

	t.Run("zero days fails validation", func(t *testing.T) {
		t.Parallel()

		body := `{"item_id": "chon-ji", "item_kind": "pattern", "days": 0}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+uuid.NewString()+"/reviews/postpone", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(&stubReviewService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Invalid Days")
	})

	t.Run("profile owned by someone else", func(t *testing.T) {
		t.Parallel()

		svc := &stubReviewService{
			postponeReviewFunc: func(ctx context.Context, userID, profileID uuid.UUID, itemID string, kind domain.ItemKind, days int) (*domain.ReviewProgress, error) {
				return nil, review.ErrProfileNotOwned
			},
		}

		body := `{"item_id": "chon-ji", "item_kind": "pattern", "days": 3}`
		req := authedRequest(http.MethodPost, "/api/profiles/"+uuid.NewString()+"/reviews/postpone", strings.NewReader(body), uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "You do not own this resource", errorMessage(t, rr))
	})
}

func TestListProgress(t *testing.T) {
	t.Parallel()

	t.Run("forwards the kind filter", func(t *testing.T) {
		t.Parallel()

		profileID := uuid.New()
		var gotKind domain.ItemKind
		svc := &stubReviewService{
			listProgressFunc: func(ctx context.Context, userID, gotProfile uuid.UUID, kind domain.ItemKind) ([]*domain.ReviewProgress, error) {
				gotKind = kind
				return []*domain.ReviewProgress{testProgress(t, gotProfile, "charyot")}, nil
			},
		}

		req := authedRequest(http.MethodGet, "/api/profiles/"+profileID.String()+"/progress?kind=terminology", nil, uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
		assert.Equal(t, domain.ItemKindTerminology, gotKind)

		var resp api.ProgressListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Progress, 1)
		assert.Equal(t, "charyot", resp.Progress[0].ItemID)
	})

	t.Run("no filter lists everything", func(t *testing.T) {
		t.Parallel()

		var gotKind domain.ItemKind
		svc := &stubReviewService{
			listProgressFunc: func(ctx context.Context, userID, profileID uuid.UUID, kind domain.ItemKind) ([]*domain.ReviewProgress, error) {
				gotKind = kind
				return []*domain.ReviewProgress{}, nil
			},
		}

		req := authedRequest(http.MethodGet, "/api/profiles/"+uuid.NewString()+"/progress", nil, uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, gotKind)
	})

	t.Run("bad kind is rejected by the service", func(t *testing.T) {
		t.Parallel()

		svc := &stubReviewService{
			listProgressFunc: func(ctx context.Context, userID, profileID uuid.UUID, kind domain.ItemKind) ([]*domain.ReviewProgress, error) {
				return nil, review.ErrInvalidKind
			},
		}

		req := authedRequest(http.MethodGet, "/api/profiles/"+uuid.NewString()+"/progress?kind=kata", nil, uuid.New())
		rr := httptest.NewRecorder()
		reviewRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid item kind", errorMessage(t, rr))
	})
}
