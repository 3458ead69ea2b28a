package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/tome-api/internal/api/shared"
	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/generation"
	"github.com/phrazzld/tome-api/internal/service/auth"
	"github.com/phrazzld/tome-api/internal/service/content"
	"github.com/phrazzld/tome-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Keeping
// the mapping in one place prevents handlers from leaking internal error
// types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors: rejected with no writes
	case errors.Is(err, content.ErrUnauthorized),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, content.ErrModuleNotFound),
		errors.Is(err, content.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, content.ErrNotForkable),
		errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidContent),
		errors.Is(err, domain.ErrInvalidModuleType),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, generation.ErrEmptySourceText):
		return http.StatusBadRequest

	// Generation errors
	case errors.Is(err, generation.ErrContentBlocked),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrTransientFailure):
		return http.StatusBadGateway
	case errors.Is(err, content.ErrGenerationDisabled):
		return http.StatusServiceUnavailable

	// Default: internal server error (includes store.ErrTransactionFailed)
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// error. Internal details stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, content.ErrUnauthorized),
		errors.Is(err, domain.ErrUnauthorized):
		return "You do not have permission to perform this operation"

	case errors.Is(err, content.ErrModuleNotFound):
		return "Module not found"

	case errors.Is(err, content.ErrItemNotFound):
		return "Item not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, content.ErrNotForkable):
		return "Module is not forkable"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, domain.ErrInvalidContent):
		return "Item content does not match the module type"

	case errors.Is(err, domain.ErrInvalidModuleType):
		return "Invalid module type"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, generation.ErrEmptySourceText):
		return "Source text cannot be empty"

	case errors.Is(err, generation.ErrContentBlocked):
		return "The source text was rejected by the content filter"

	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return "Item generation failed"

	case errors.Is(err, content.ErrGenerationDisabled):
		return "Item generation is not available"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes an error response with the mapped status code and a
// sanitized message, logging the underlying error. When fallbackMessage is
// empty the mapped safe message is used.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
