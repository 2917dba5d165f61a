package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	if _, ok := service.IsConflictError(err); ok {
		return http.StatusConflict
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Deployment problem: balanced assignment with no users registered
	case errors.Is(err, service.ErrNoAssignableUsers):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return SanitizeValidationError(err)

	case errors.Is(err, service.ErrNoAssignableUsers):
		return "No users available for task assignment"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// go-playground/validator errors carry field and tag details in a fixed
	// format, e.g. "Key: 'LoginRequest.Email' Error:Field validation for
	// 'Email' failed on the 'required' tag".
	if strings.Contains(errMsg, "Field validation") {
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
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
		return "Validation error"
	}

	// Domain validation sentinels produce short, safe messages already.
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidID) {
		return errMsg
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
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
	default:
		return "validation failed"
	}
}
