package api

import (
	"fmt"
	"net/http"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service"
)

// ProfileHandler handles learner profile endpoints: CRUD, belt promotion,
// statistics, and archive export.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CreateProfileRequest represents the payload for creating a learner profile.
type CreateProfileRequest struct {
	Name       string `json:"name" validate:"required,max=40"`
	BeltRank   int    `json:"belt_rank" validate:"min=1"`
	Avatar     string `json:"avatar" validate:"max=64"`
	ColorTheme string `json:"color_theme" validate:"max=32"`
}

// UpdateProfileRequest represents a partial profile update. Nil fields are
// left unchanged; a present empty avatar or theme clears it.
type UpdateProfileRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=40"`
	Avatar       *string `json:"avatar" validate:"omitempty,max=64"`
	ColorTheme   *string `json:"color_theme" validate:"omitempty,max=32"`
	BeltRank     *int    `json:"belt_rank" validate:"omitempty,min=1"`
	LearningMode *string `json:"learning_mode" validate:"omitempty,oneof=progression mastery"`
	DailyGoal    *int    `json:"daily_goal" validate:"omitempty,min=1,max=999"`
}

// PromoteProfileRequest represents the payload for recording a grading
// attempt. Passed is a pointer so an explicit false (failed grading) is
// distinguishable from an absent field.
type PromoteProfileRequest struct {
	Passed *bool  `json:"passed" validate:"required"`
	Notes  string `json:"notes" validate:"max=500"`
}

// ProfileListResponse wraps the profile collection.
type ProfileListResponse struct {
	Profiles []*domain.LearnerProfile `json:"profiles"`
}

// CreateProfile handles POST /api/profiles.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, handled := getUserIDFromContext(w, r)
	if handled {
		return
	}

	var req CreateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	profile, err := h.profileService.CreateProfile(ctx, userID, service.CreateProfileParams{
		Name:       req.Name,
		BeltRank:   req.BeltRank,
		Avatar:     req.Avatar,
		ColorTheme: req.ColorTheme,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, profile)
}

// ListProfiles handles GET /api/profiles.
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, handled := getUserIDFromContext(w, r)
	if handled {
		return
	}

	profiles, err := h.profileService.ListProfiles(ctx, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list profiles")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProfileListResponse{Profiles: profiles})
}

// GetProfile handles GET /api/profiles/{profileID}.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	profile, err := h.profileService.GetProfile(ctx, userID, profileID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/profiles/{profileID}.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	var req UpdateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	params := service.UpdateProfileParams{
		Name:       req.Name,
		Avatar:     req.Avatar,
		ColorTheme: req.ColorTheme,
		BeltRank:   req.BeltRank,
		DailyGoal:  req.DailyGoal,
	}
	if req.LearningMode != nil {
		mode := domain.LearningMode(*req.LearningMode)
		params.LearningMode = &mode
	}

	profile, err := h.profileService.UpdateProfile(ctx, userID, profileID, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// PromoteProfile handles POST /api/profiles/{profileID}/promote.
func (h *ProfileHandler) PromoteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	var req PromoteProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	record, err := h.profileService.PromoteProfile(ctx, userID, profileID, *req.Passed, req.Notes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record grading")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// DeleteProfile handles DELETE /api/profiles/{profileID}.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	if err := h.profileService.DeleteProfile(ctx, userID, profileID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProfileStats handles GET /api/profiles/{profileID}/stats.
func (h *ProfileHandler) GetProfileStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	stats, err := h.profileService.GetProfileStats(ctx, userID, profileID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute profile stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// ExportProfile handles GET /api/profiles/{profileID}/export. The archive is
// served as a download; the filename uses the profile ID so it never needs
// header escaping.
func (h *ProfileHandler) ExportProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	archive, err := h.profileService.ExportProfile(ctx, userID, profileID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export profile")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", profileID.String()+".tkdprofile"))
	shared.RespondWithJSON(w, r, http.StatusOK, archive)
}
