package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service"
	"github.com/tkdojang/dojang-api/internal/service/auth"
	"github.com/tkdojang/dojang-api/internal/service/review"
	"github.com/tkdojang/dojang-api/internal/store"
)

// Path parameter errors, mapped to 400 by MapErrorToStatusCode.
var (
	errMissingPathParam = errors.New("path parameter is required")
	errInvalidPathParam = errors.New("path parameter has invalid format")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, review.ErrProfileNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrImportNotFound),
		errors.Is(err, service.ErrFeedbackPostNotFound),
		errors.Is(err, service.ErrVoteNotFound),
		errors.Is(err, review.ErrProfileNotFound),
		errors.Is(err, review.ErrItemNotFound),
		errors.Is(err, review.ErrProgressNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, service.ErrSessionAlreadyCompleted),
		errors.Is(err, service.ErrAlreadyVoted):
		return http.StatusConflict

	// Semantically invalid but well-formed requests
	case errors.Is(err, service.ErrUnknownBeltRank),
		errors.Is(err, service.ErrAtHighestBelt),
		errors.Is(err, service.ErrNoStudyContent),
		errors.Is(err, service.ErrInvalidArchive):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidCardCount),
		errors.Is(err, domain.ErrAnswersExceedCards),
		errors.Is(err, review.ErrInvalidKind),
		errors.Is(err, review.ErrInvalidPostpone),
		errors.Is(err, errMissingPathParam),
		errors.Is(err, errInvalidPathParam):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. Raw error strings never reach clients.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken):
		return "Invalid refresh token"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, review.ErrProfileNotOwned):
		return "You do not own this resource"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, review.ErrProfileNotFound):
		return "Profile not found"

	case errors.Is(err, service.ErrSessionNotFound):
		return "Study session not found"

	case errors.Is(err, service.ErrImportNotFound):
		return "Import not found"

	case errors.Is(err, service.ErrFeedbackPostNotFound):
		return "Feedback post not found"

	case errors.Is(err, service.ErrVoteNotFound):
		return "You have not voted on this post"

	case errors.Is(err, review.ErrItemNotFound):
		return "Study item not found"

	case errors.Is(err, review.ErrProgressNotFound):
		return "No review progress for this item"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, service.ErrSessionAlreadyCompleted):
		return "Study session is already completed"

	case errors.Is(err, service.ErrAlreadyVoted):
		return "You have already voted on this post"

	// Semantic errors
	case errors.Is(err, service.ErrUnknownBeltRank):
		return "Unknown belt rank"

	case errors.Is(err, service.ErrAtHighestBelt):
		return "Profile already holds the highest belt"

	case errors.Is(err, service.ErrNoStudyContent):
		return "No study content available for this selection"

	case errors.Is(err, service.ErrInvalidArchive):
		return "Archive failed validation"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidCardCount):
		return "Card count is out of range"

	case errors.Is(err, domain.ErrAnswersExceedCards):
		return "Answers cannot exceed the session card count"

	case errors.Is(err, review.ErrInvalidKind):
		return "Invalid item kind"

	case errors.Is(err, review.ErrInvalidPostpone):
		return "Postpone days must be at least 1"

	case errors.Is(err, errMissingPathParam),
		errors.Is(err, errInvalidPathParam):
		return "Invalid URL parameter"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message and writes the
// response, logging the redacted original. fallbackMessage overrides the
// generic message for unexpected (5xx) errors so handlers can say what
// operation failed.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	statusCode := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)
	if statusCode == http.StatusInternalServerError && fallbackMessage != "" {
		safeMessage = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
}

// SanitizeValidationError converts a validator error into a short
// client-facing message naming the first offending field, without echoing
// the submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt", "gte":
		return "too small"
	case "lt", "lte":
		return "too large"
	default:
		return "validation failed"
	}
}
