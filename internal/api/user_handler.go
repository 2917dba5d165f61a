package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userStore store.UserStore, logger *slog.Logger) *UserHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}

	return &UserHandler{
		userStore: userStore,
		logger:    logger.With(slog.String("component", "user_handler")),
	}
}

// GetCurrentUser handles GET /user requests.
// It returns the profile of the authenticated user.
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Token for a user that no longer exists
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to get user", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}
