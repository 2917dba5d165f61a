package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/service/auth"
)

func newAuthHandler(t *testing.T, userStore *memoryUserStore) *AuthHandler {
	t.Helper()
	jwtService, err := auth.NewJWTService(testAuthConfig())
	require.NoError(t, err)
	return NewAuthHandler(
		userStore,
		jwtService,
		auth.NewBcryptVerifier(),
		testAuthConfig(),
		testLogger(),
	)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		userStore := newMemoryUserStore()
		handler := newAuthHandler(t, userStore)

		rec := postJSON(t, handler.Register, "/auth/register", map[string]string{
			"email":    "new@example.com",
			"password": "hunter2hunter2",
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)

		// The stored user carries a hash, never the plaintext
		stored, err := userStore.GetByID(context.Background(), resp.UserID)
		require.NoError(t, err)
		assert.Empty(t, stored.Password)
		assert.NotEmpty(t, stored.HashedPassword)
		assert.NotContains(t, stored.HashedPassword, "hunter2")
	})

	t.Run("duplicate email yields 409", func(t *testing.T) {
		t.Parallel()

		userStore := newMemoryUserStore()
		_, err := userStore.seedUser("taken@example.com", "first-password")
		require.NoError(t, err)
		handler := newAuthHandler(t, userStore)

		rec := postJSON(t, handler.Register, "/auth/register", map[string]string{
			"email":    "taken@example.com",
			"password": "second-password",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid email yields 400", func(t *testing.T) {
		t.Parallel()

		handler := newAuthHandler(t, newMemoryUserStore())
		rec := postJSON(t, handler.Register, "/auth/register", map[string]string{
			"email":    "not-an-email",
			"password": "longenough",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password yields 400", func(t *testing.T) {
		t.Parallel()

		handler := newAuthHandler(t, newMemoryUserStore())
		rec := postJSON(t, handler.Register, "/auth/register", map[string]string{
			"email":    "short@example.com",
			"password": "2short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	userStore := newMemoryUserStore()
	seeded, err := userStore.seedUser("login@example.com", "correct-password")
	require.NoError(t, err)
	handler := newAuthHandler(t, userStore)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
			"email":    "login@example.com",
			"password": "correct-password",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, seeded.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password yields 401", func(t *testing.T) {
		t.Parallel()

		rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
			"email":    "login@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email yields the same 401", func(t *testing.T) {
		t.Parallel()

		rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "correct-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid credentials", resp["error"])
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	userStore := newMemoryUserStore()
	seeded, err := userStore.seedUser("refresh@example.com", "some-password")
	require.NoError(t, err)
	handler := newAuthHandler(t, userStore)

	jwtService, err := auth.NewJWTService(testAuthConfig())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		refreshToken, err := jwtService.GenerateRefreshToken(context.Background(), seeded.ID)
		require.NoError(t, err)

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", map[string]string{
			"refresh_token": refreshToken,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)

		// The new access token is valid for the same user
		claims, err := jwtService.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, claims.UserID)
	})

	t.Run("access token in place of refresh yields 401", func(t *testing.T) {
		t.Parallel()

		accessToken, err := jwtService.GenerateToken(context.Background(), seeded.ID)
		require.NoError(t, err)

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", map[string]string{
			"refresh_token": accessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token yields 401", func(t *testing.T) {
		t.Parallel()

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", map[string]string{
			"refresh_token": "not-a-jwt",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetCurrentUser(t *testing.T) {
	t.Parallel()

	userStore := newMemoryUserStore()
	seeded, err := userStore.seedUser("me@example.com", "some-password")
	require.NoError(t, err)
	handler := NewUserHandler(userStore, testLogger())

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req = req.WithContext(withTestUserID(req.Context(), seeded.ID))
		rec := httptest.NewRecorder()
		handler.GetCurrentUser(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, seeded.ID.String(), resp.ID)
		assert.Equal(t, "me@example.com", resp.Email)
	})

	t.Run("missing auth context yields 401", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		rec := httptest.NewRecorder()
		handler.GetCurrentUser(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("vanished user yields 404", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req = req.WithContext(withTestUserID(req.Context(), uuid.New()))
		rec := httptest.NewRecorder()
		handler.GetCurrentUser(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
