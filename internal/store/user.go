package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// It handles domain validation and password hashing internally.
	// Returns ErrEmailExists if the email is already taken.
	// Returns validation errors from the domain User if data is invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	// The returned user contains all fields except the plaintext password.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	// The returned user contains all fields except the plaintext password.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves all users in stable enumeration order (creation time
	// ascending, ID as tie-break). The assignment balancer relies on this
	// order being deterministic across calls.
	List(ctx context.Context) ([]*domain.User, error)
}
