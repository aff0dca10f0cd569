package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tkdojang/dojang-api/internal/api/middleware"
)

// getUserIDFromContext extracts the authenticated user ID placed on the
// request context by the auth middleware. The second return reports whether
// a response was already written; callers must return immediately when it
// is true.
func getUserIDFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		// Only reachable if a route skipped the auth middleware.
		HandleAPIError(w, r, fmt.Errorf("user ID missing from request context"), "Authentication required")
		return uuid.Nil, true
	}
	return userID, false
}

// getPathUUID parses the named chi URL parameter as a UUID. The second
// return reports whether an error response was already written.
func getPathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		HandleAPIError(w, r, fmt.Errorf("%w: %s", errMissingPathParam, name), "")
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %s", errInvalidPathParam, name), "")
		return uuid.Nil, true
	}
	return id, false
}

// getUserAndPathUUID combines the two common preamble steps of protected
// handlers: authenticated user from context plus one UUID path parameter.
func getUserAndPathUUID(w http.ResponseWriter, r *http.Request, name string) (userID, pathID uuid.UUID, handled bool) {
	userID, handled = getUserIDFromContext(w, r)
	if handled {
		return uuid.Nil, uuid.Nil, true
	}
	pathID, handled = getPathUUID(w, r, name)
	if handled {
		return uuid.Nil, uuid.Nil, true
	}
	return userID, pathID, false
}
