package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       config.AuthConfig
	validator        *validator.Validate
	logger           *slog.Logger
	timeFunc         func() time.Time // Injectable for testing
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}

	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		validator:        validator.New(),
		logger:           logger.With(slog.String("component", "auth_handler")),
		timeFunc:         time.Now,
	}
}

// accessTokenExpiry formats the expiry timestamp included in token responses.
func (h *AuthHandler) accessTokenExpiry() string {
	lifetime := time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute
	return h.timeFunc().UTC().Add(lifetime).Format(time.RFC3339)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := domain.NewUser(req.Email, req.Password)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		log.Error("failed to create user", "error", redact.Error(err))
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	accessToken, refreshToken, ok := h.generateTokenPair(w, r, user.ID)
	if !ok {
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    h.accessTokenExpiry(),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// Unknown email and wrong password produce the same response so the
	// endpoint cannot be used to probe for registered addresses.
	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error("failed to get user by email", "error", redact.Error(err))
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to authenticate user", err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, refreshToken, ok := h.generateTokenPair(w, r, user.ID)
	if !ok {
		return
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    h.accessTokenExpiry(),
	})
}

// RefreshToken handles POST /auth/refresh.
// A valid refresh token yields a brand new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	accessToken, refreshToken, ok := h.generateTokenPair(w, r, claims.UserID)
	if !ok {
		return
	}

	log.Debug("token pair refreshed", slog.String("user_id", claims.UserID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    h.accessTokenExpiry(),
	})
}

// generateTokenPair issues an access and refresh token for the user, writing
// an error response and returning ok=false on failure.
func (h *AuthHandler) generateTokenPair(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
) (string, string, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	accessToken, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		log.Error("failed to generate token",
			"error", redact.Error(err),
			"user_id", userID.String())
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to generate authentication token", err)
		return "", "", false
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		log.Error("failed to generate refresh token",
			"error", redact.Error(err),
			"user_id", userID.String())
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to generate authentication token", err)
		return "", "", false
	}

	return accessToken, refreshToken, true
}
