package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tome-api/internal/service/auth"
)

// stubJWTService validates exactly one token string.
type stubJWTService struct {
	validToken string
	userID     uuid.UUID
	err        error
}

func (s *stubJWTService) GenerateToken(_ context.Context, _ uuid.UUID) (string, error) {
	return s.validToken, nil
}

func (s *stubJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.validToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: s.userID}, nil
}

func TestAuthenticate_ValidToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	mw := NewAuthMiddleware(&stubJWTService{validToken: "good-token", userID: userID})

	var gotUserID uuid.UUID
	var found bool
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, found = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, found)
	assert.Equal(t, userID, gotUserID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		svcErr error
	}{
		{"missing header", "", nil},
		{"not bearer", "Basic dXNlcjpwYXNz", nil},
		{"malformed header", "Bearer", nil},
		{"wrong token", "Bearer bad-token", nil},
		{"expired token", "Bearer good-token", auth.ErrExpiredToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := NewAuthMiddleware(&stubJWTService{
				validToken: "good-token",
				userID:     uuid.New(),
				err:        tt.svcErr,
			})

			called := false
			handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called, "the protected handler must not run")
		})
	}
}
