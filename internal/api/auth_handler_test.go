package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tome-api/internal/config"
	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/service/auth"
	"github.com/phrazzld/tome-api/internal/store"
)

// fakeUserStore is an in-memory UserStore keyed by email.
type fakeUserStore struct {
	byEmail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return store.ErrEmailExists
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return f }

func newAuthHandler(t *testing.T) (*AuthHandler, *fakeUserStore) {
	t.Helper()
	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	users := newFakeUserStore()
	hasher := auth.NewBcryptHasher()
	return NewAuthHandler(users, jwtService, hasher, hasher), users
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	handler, users := newAuthHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a long enough password"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.UserID)
	assert.NotEmpty(t, resp.Token)

	stored := users.byEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.Empty(t, stored.Password, "plaintext password is cleared before storage")
	assert.NotEmpty(t, stored.HashedPassword)
	assert.NotContains(t, stored.HashedPassword, "a long enough password")
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	t.Parallel()

	handler, _ := newAuthHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	handler, _ := newAuthHandler(t)
	body := `{"email":"alice@example.com","password":"a long enough password"}`

	rec := postJSON(t, handler.Register, "/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Register, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	handler, _ := newAuthHandler(t)
	rec := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a long enough password"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Login, "/auth/login",
		`{"email":"alice@example.com","password":"a long enough password"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	handler, _ := newAuthHandler(t)
	rec := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a long enough password"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Wrong password and unknown email are indistinguishable.
	wrongPassword := postJSON(t, handler.Login, "/auth/login",
		`{"email":"alice@example.com","password":"the wrong password here"}`)
	unknownEmail := postJSON(t, handler.Login, "/auth/login",
		`{"email":"nobody@example.com","password":"a long enough password"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)

	var a, b struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(wrongPassword.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(unknownEmail.Body.Bytes(), &b))
	assert.Equal(t, a.Error, b.Error)
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	t.Parallel()

	handler, _ := newAuthHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
