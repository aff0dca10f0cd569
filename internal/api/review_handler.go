package api

import (
	"net/http"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service/review"
)

// ReviewHandler handles flashcard review endpoints: grading answers,
// postponing items, and listing spaced-repetition progress.
type ReviewHandler struct {
	reviewService review.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// SubmitReviewRequest represents one graded answer. IsCorrect is a pointer
// so an explicit false is distinguishable from an absent field.
type SubmitReviewRequest struct {
	ItemID         string `json:"item_id" validate:"required"`
	ItemKind       string `json:"item_kind" validate:"required,oneof=terminology pattern step_sparring"`
	IsCorrect      *bool  `json:"is_correct" validate:"required"`
	ResponseTimeMs int    `json:"response_time_ms" validate:"min=0"`
}

// PostponeReviewRequest represents a request to push an item's next review
// into the future without grading an answer.
type PostponeReviewRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	ItemKind string `json:"item_kind" validate:"required,oneof=terminology pattern step_sparring"`
	Days     int    `json:"days" validate:"min=1,max=365"`
}

// ProgressListResponse wraps the review progress collection.
type ProgressListResponse struct {
	Progress []*domain.ReviewProgress `json:"progress"`
}

// SubmitReview handles POST /api/profiles/{profileID}/reviews.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	progress, err := h.reviewService.SubmitReview(ctx, userID, profileID, review.SubmitReviewRequest{
		ItemID:         req.ItemID,
		ItemKind:       domain.ItemKind(req.ItemKind),
		IsCorrect:      *req.IsCorrect,
		ResponseTimeMs: req.ResponseTimeMs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// PostponeReview handles POST /api/profiles/{profileID}/reviews/postpone.
func (h *ReviewHandler) PostponeReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	var req PostponeReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	progress, err := h.reviewService.PostponeReview(
		ctx, userID, profileID, req.ItemID, domain.ItemKind(req.ItemKind), req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// ListProgress handles GET /api/profiles/{profileID}/progress. An optional
// kind query parameter restricts the listing to one item kind.
func (h *ReviewHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	kind := domain.ItemKind(r.URL.Query().Get("kind"))

	progress, err := h.reviewService.ListProgress(ctx, userID, profileID, kind)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProgressListResponse{Progress: progress})
}
