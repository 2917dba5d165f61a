package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ErrNoAssignableUsers is returned when automatic assignment is requested but
// no users exist to assign the task to. This is an operational/setup problem,
// not a client error, and is surfaced as a hard failure.
var ErrNoAssignableUsers = errors.New("no users available for task assignment")

// ConflictError is returned when an update carries a last-read edit clock
// that is older than the task's stored one: another writer got there first.
//
// It carries both the full current server record and the client's proposed
// patch verbatim. No merge is attempted server-side; the caller must present
// both versions and resubmit exactly one of them (or a caller-merged
// composite) as a fresh update with the server's current edit clock as the
// new baseline.
type ConflictError struct {
	// ServerVersion is the task as currently stored, including the
	// LastEdited value the client must use as its next baseline.
	ServerVersion *domain.Task

	// ClientVersion is the rejected patch, unmodified.
	ClientVersion domain.TaskPatch
}

// Error implements the error interface for ConflictError.
func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"task %s was edited concurrently (server last edited %s)",
		e.ServerVersion.ID,
		e.ServerVersion.LastEdited.Format(time.RFC3339Nano),
	)
}

// IsConflictError checks whether the error is a concurrent-edit conflict and
// returns the typed error if so.
func IsConflictError(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
