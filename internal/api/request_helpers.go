package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// lastEditedHeader carries the edit clock the client captured when it last
// read the task. Its presence on an update enables conflict detection.
const lastEditedHeader = "X-Last-Edited"

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context. The user ID is placed there by the auth middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}

	return id, nil
}

// getLastEditedHeader parses the client edit clock header.
// Returns nil when the header is absent (conflict checking disabled) and an
// error when it is present but not a valid RFC 3339 timestamp.
func getLastEditedHeader(r *http.Request) (*time.Time, error) {
	value := r.Header.Get(lastEditedHeader)
	if value == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %s must be an RFC 3339 timestamp", domain.ErrInvalidFormat, lastEditedHeader)
	}
	return &parsed, nil
}
