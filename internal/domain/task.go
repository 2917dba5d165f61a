package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task's title exceeds 255 characters.
	ErrTaskTitleTooLong = errors.New("task title must be at most 255 characters")

	// ErrTaskCompletedAtMismatch is returned when completed_at disagrees with
	// the task's status. A task has a completion time exactly when it is done.
	ErrTaskCompletedAtMismatch = errors.New("completed_at must be set if and only if status is done")
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Valid task statuses. Tasks move todo -> inprogress -> done, though any
// transition between states is allowed through updates.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusDone       TaskStatus = "done"
)

// IsValid reports whether the status is one of the recognized lifecycle states.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// MaxTaskTitleLength is the maximum allowed length of a task title.
const MaxTaskTitleLength = 255

// Task represents a unit of work owned by a single user.
//
// LastEdited is the authoritative edit clock used for conflict detection.
// It is advanced only by accepted business updates, never by storage-layer
// bookkeeping (which uses UpdatedAt). CompletedAt is non-nil exactly when
// Status is done.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastEdited  time.Time  `json:"last_edited"`
}

// TaskPatch is a partial update to a task. Nil fields are left untouched
// when the patch is applied.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// Validate checks if the patch carries acceptable values.
// Returns an error if any supplied field fails validation.
func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if *p.Title == "" {
			return ErrTaskTitleEmpty
		}
		if len(*p.Title) > MaxTaskTitleLength {
			return ErrTaskTitleTooLong
		}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	return nil
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// NewTask creates a new Task owned by the given user.
// It generates a new UUID for the task ID and initializes the creation and
// edit timestamps. An empty status defaults to todo. Returns an error if
// validation fails.
func NewTask(userID uuid.UUID, title, description string, status TaskStatus) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastEdited:  now,
	}
	if status == TaskStatusDone {
		completedAt := now
		task.CompletedAt = &completedAt
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if len(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	if (t.CompletedAt != nil) != (t.Status == TaskStatusDone) {
		return ErrTaskCompletedAtMismatch
	}

	return nil
}

// IsActive reports whether the task counts toward its owner's workload.
// Active tasks are those not yet done.
func (t *Task) IsActive() bool {
	return t.Status == TaskStatusTodo || t.Status == TaskStatusInProgress
}

// ApplyPatch merges the supplied patch fields onto the task and maintains
// the completion invariant: CompletedAt is set when the status transitions
// into done and cleared whenever the resulting status is anything else.
// LastEdited is advanced to now on every application; if the clock has not
// moved past the previous edit, it is bumped to keep the edit clock strictly
// increasing.
//
// The caller is expected to have validated the patch first.
func (t *Task) ApplyPatch(patch TaskPatch, now time.Time) {
	wasDone := t.Status == TaskStatusDone

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}

	if t.Status == TaskStatusDone {
		if !wasDone {
			completedAt := now
			t.CompletedAt = &completedAt
		}
	} else {
		t.CompletedAt = nil
	}

	if !now.After(t.LastEdited) {
		now = t.LastEdited.Add(time.Microsecond)
	}
	t.LastEdited = now
	t.UpdatedAt = now
}
