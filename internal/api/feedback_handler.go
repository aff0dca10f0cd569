package api

import (
	"net/http"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service"
	"github.com/tkdojang/dojang-api/internal/store"
)

// FeedbackHandler handles the community feedback board: posts and votes.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// CreateFeedbackPostRequest represents the payload for opening a post.
type CreateFeedbackPostRequest struct {
	Title    string `json:"title" validate:"required,max=120"`
	Body     string `json:"body" validate:"required,max=4000"`
	Category string `json:"category" validate:"required,oneof=feature bug content other"`
}

// FeedbackPostListResponse wraps the post collection.
type FeedbackPostListResponse struct {
	Posts []*domain.FeedbackPost `json:"posts"`
}

// CreatePost handles POST /api/feedback.
func (h *FeedbackHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, handled := getUserIDFromContext(w, r)
	if handled {
		return
	}

	var req CreateFeedbackPostRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	post, err := h.feedbackService.CreatePost(
		ctx, userID, req.Title, req.Body, domain.FeedbackCategory(req.Category))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create feedback post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, post)
}

// ListPosts handles GET /api/feedback. Optional status, category, limit,
// and offset query parameters filter and page the board.
func (h *FeedbackHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := store.FeedbackFilter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.FeedbackStatus(raw)
		if !domain.IsValidFeedbackStatus(status) {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Query parameter status is not a valid feedback status")
			return
		}
		filter.Status = status
	}

	if raw := r.URL.Query().Get("category"); raw != "" {
		category := domain.FeedbackCategory(raw)
		if !domain.IsValidFeedbackCategory(category) {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Query parameter category is not a valid feedback category")
			return
		}
		filter.Category = category
	}

	var ok bool
	filter.Limit, ok = queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	filter.Offset, ok = queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	posts, err := h.feedbackService.ListPosts(ctx, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list feedback posts")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, FeedbackPostListResponse{Posts: posts})
}

// GetPost handles GET /api/feedback/{postID}.
func (h *FeedbackHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, handled := getPathUUID(w, r, "postID")
	if handled {
		return
	}

	post, err := h.feedbackService.GetPost(ctx, postID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get feedback post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, post)
}

// CastVote handles PUT /api/feedback/{postID}/vote. Voting twice is a
// conflict, not an increment.
func (h *FeedbackHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, postID, handled := getUserAndPathUUID(w, r, "postID")
	if handled {
		return
	}

	if err := h.feedbackService.CastVote(ctx, userID, postID); err != nil {
		HandleAPIError(w, r, err, "Failed to cast vote")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RetractVote handles DELETE /api/feedback/{postID}/vote.
func (h *FeedbackHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, postID, handled := getUserAndPathUUID(w, r, "postID")
	if handled {
		return
	}

	if err := h.feedbackService.RetractVote(ctx, userID, postID); err != nil {
		HandleAPIError(w, r, err, "Failed to retract vote")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
