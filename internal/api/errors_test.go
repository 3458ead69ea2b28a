package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/generation"
	"github.com/phrazzld/tome-api/internal/service/auth"
	"github.com/phrazzld/tome-api/internal/service/content"
	"github.com/phrazzld/tome-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unauthorized mutation", content.ErrUnauthorized, http.StatusForbidden},
		{"module not found", content.ErrModuleNotFound, http.StatusNotFound},
		{"item not found", content.ErrItemNotFound, http.StatusNotFound},
		{"store not found", store.ErrUserNotFound, http.StatusNotFound},
		{"not forkable", content.ErrNotForkable, http.StatusConflict},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"invalid content", domain.ErrInvalidContent, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"validation failure", domain.ErrValidation, http.StatusBadRequest},
		{"empty source text", generation.ErrEmptySourceText, http.StatusBadRequest},
		{"content blocked", generation.ErrContentBlocked, http.StatusUnprocessableEntity},
		{"invalid generation response", generation.ErrInvalidResponse, http.StatusUnprocessableEntity},
		{"transient generation failure", generation.ErrTransientFailure, http.StatusBadGateway},
		{"generation disabled", content.ErrGenerationDisabled, http.StatusServiceUnavailable},
		{"transaction failure", store.ErrTransactionFailed, http.StatusInternalServerError},
		{"unknown error", errors.New("something broke"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestMapErrorToStatusCode_WrappedErrors(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("handler context: %w", content.ErrNotForkable)
	assert.Equal(t, http.StatusConflict, MapErrorToStatusCode(wrapped))

	doubleWrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", content.ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, MapErrorToStatusCode(doubleWrapped))
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "An unexpected error occurred"},
		{"unauthorized", content.ErrUnauthorized, "You do not have permission to perform this operation"},
		{"module not found", content.ErrModuleNotFound, "Module not found"},
		{"not forkable", content.ErrNotForkable, "Module is not forkable"},
		{"invalid content", domain.ErrInvalidContent, "Item content does not match the module type"},
		{"generation disabled", content.ErrGenerationDisabled, "Item generation is not available"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestGetSafeErrorMessage_NeverLeaksInternals(t *testing.T) {
	t.Parallel()

	internal := errors.New(`pq: connection to "postgres://user:secret@db:5432" refused`)
	msg := GetSafeErrorMessage(internal)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "secret")
}
