package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UserResponse represents the response data for a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// CreateTaskRequest defines the payload for creating a task.
//
// Owner selection: smart_assign true hands the task to the least-loaded user;
// otherwise owner_id is used when present and the caller's own ID when not.
type CreateTaskRequest struct {
	Title       string            `json:"title"        validate:"required,max=255"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"       validate:"omitempty,oneof=todo inprogress done"`
	OwnerID     *uuid.UUID        `json:"owner_id"`
	SmartAssign bool              `json:"smart_assign"`
}

// UpdateTaskRequest defines the payload for a partial task update.
// Absent fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string            `json:"title"       validate:"omitempty,min=1,max=255"`
	Description *string            `json:"description"`
	Status      *domain.TaskStatus `json:"status"      validate:"omitempty,oneof=todo inprogress done"`
}

// patch converts the request into a domain patch.
func (req UpdateTaskRequest) patch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastEdited  time.Time  `json:"last_edited"`
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID.String(),
		UserID:      task.UserID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
		LastEdited:  task.LastEdited,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}
	return responses
}

// ConflictResponse is the 409 body returned when an update loses to a
// concurrent edit. It carries both the current server record and the
// client's rejected patch so the caller can resolve the conflict.
type ConflictResponse struct {
	Message       string           `json:"message"`
	Type          string           `json:"type"`
	ServerVersion TaskResponse     `json:"serverVersion"`
	ClientVersion domain.TaskPatch `json:"clientVersion"`
}

// ConflictType is the machine-readable tag on conflict responses.
const ConflictType = "CONFLICT"
