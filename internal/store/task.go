package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
//
// Every read and write of an individual task is scoped to (taskID, ownerID),
// so cross-user access is structurally impossible at the query level rather
// than merely policy-checked.
type TaskStore interface {
	// Create saves a new task to the store.
	// All tasks must be valid according to domain validation rules.
	// Returns ErrInvalidEntity if the owner's user ID doesn't exist
	// (foreign key violation).
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by its unique ID, scoped to the given owner.
	// Returns ErrTaskNotFound if the task does not exist or belongs to
	// another owner.
	Get(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// Update persists the full task record, scoped to (task.ID, task.UserID).
	// The write is conditional on expectedLastEdited matching the stored
	// edit clock: if another writer advanced it since the caller's read,
	// Update returns ErrEditedConcurrently without touching the row.
	// Returns ErrTaskNotFound if the task does not exist or belongs to
	// another owner.
	Update(ctx context.Context, task *domain.Task, expectedLastEdited time.Time) error

	// Delete removes a task from the store, scoped to the given owner.
	// Returns ErrTaskNotFound if the task does not exist or belongs to
	// another owner.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// ListByOwner retrieves all tasks owned by the given user, ordered by
	// creation time descending (newest first). The ordering is a committed
	// contract for the listing endpoint, not incidental.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// CountActiveByOwner counts the owner's tasks whose status is todo or
	// inprogress. Used by the assignment balancer.
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}
