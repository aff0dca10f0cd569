package api

import (
	"net/http"
	"strconv"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service"
)

// SessionHandler handles study session endpoints: starting a session with a
// built deck, recording its outcome, and listing history.
type SessionHandler struct {
	studyService service.StudyService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(studyService service.StudyService) *SessionHandler {
	return &SessionHandler{studyService: studyService}
}

// StartSessionRequest represents the payload for starting a study session.
type StartSessionRequest struct {
	SessionType string `json:"session_type" validate:"required,oneof=flashcards testing patterns mixed"`
	CardCount   int    `json:"card_count" validate:"min=1,max=100"`
}

// CompleteSessionRequest represents the recorded outcome of a session.
type CompleteSessionRequest struct {
	CorrectCount    int `json:"correct_count" validate:"min=0"`
	IncorrectCount  int `json:"incorrect_count" validate:"min=0"`
	DurationSeconds int `json:"duration_seconds" validate:"min=0"`
}

// SessionListResponse wraps the session history collection.
type SessionListResponse struct {
	Sessions []*domain.StudySession `json:"sessions"`
}

// StartSession handles POST /api/profiles/{profileID}/sessions.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	started, err := h.studyService.StartSession(ctx, userID, profileID, service.StartSessionParams{
		SessionType: domain.SessionType(req.SessionType),
		CardCount:   req.CardCount,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, started)
}

// CompleteSession handles POST /api/profiles/{profileID}/sessions/{sessionID}/complete.
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}
	sessionID, handled := getPathUUID(w, r, "sessionID")
	if handled {
		return
	}

	var req CompleteSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	session, err := h.studyService.CompleteSession(ctx, userID, profileID, sessionID, service.CompleteSessionParams{
		CorrectCount:    req.CorrectCount,
		IncorrectCount:  req.IncorrectCount,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// ListSessions handles GET /api/profiles/{profileID}/sessions. Optional
// limit and offset query parameters page through the history; omitting the
// limit returns everything.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, profileID, handled := getUserAndPathUUID(w, r, "profileID")
	if handled {
		return
	}

	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	sessions, err := h.studyService.ListSessions(ctx, userID, profileID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sessions")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionListResponse{Sessions: sessions})
}

// queryInt parses an optional non-negative integer query parameter. The
// second return is false when an error response was already written.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Query parameter "+name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
