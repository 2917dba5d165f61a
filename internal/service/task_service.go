package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// forceWriteRetries bounds the retry loop for updates submitted without a
// client edit clock. Such updates have last-write-wins semantics, so a missed
// conditional write is re-applied on top of the fresh record rather than
// surfaced as a conflict.
const forceWriteRetries = 3

// CreateTaskInput is the draft for a new task.
// A nil OwnerID (uuid.Nil) requests load-balanced assignment.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	OwnerID     uuid.UUID
}

// TaskService provides task lifecycle operations: creation with load-balanced
// owner assignment, optimistically-concurrent updates, ownership-scoped reads
// and deletes.
type TaskService interface {
	// Create creates a new task. When input.OwnerID is uuid.Nil the owner is
	// chosen by scanning all users and picking the one with the fewest active
	// (todo or inprogress) tasks; the first user in enumeration order wins
	// ties. Returns ErrNoAssignableUsers when balancing is requested and no
	// users exist. An explicit OwnerID is used as-is without an existence
	// check; the database's foreign key constraint is the only guard.
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)

	// Get retrieves a task scoped to its owner.
	// Returns store.ErrTaskNotFound if the task is absent or owned by
	// someone else.
	Get(ctx context.Context, taskID, ownerID uuid.UUID) (*domain.Task, error)

	// List retrieves the owner's tasks, newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// Update applies a partial update to a task scoped to its owner.
	//
	// clientLastEdited is the edit clock the client captured when it last
	// read the task. When supplied and the stored clock is strictly newer,
	// Update returns a *ConflictError carrying the full current server
	// record and the client's patch; nothing is written. When absent,
	// conflict checking is disabled and the update is a force write.
	//
	// On success the task's completion invariant is maintained
	// (CompletedAt set exactly while status is done) and LastEdited is
	// advanced, strictly monotonically.
	Update(
		ctx context.Context,
		taskID, ownerID uuid.UUID,
		patch domain.TaskPatch,
		clientLastEdited *time.Time,
	) (*domain.Task, error)

	// Delete removes a task scoped to its owner.
	// Returns store.ErrTaskNotFound if the task is absent or owned by
	// someone else.
	Delete(ctx context.Context, taskID, ownerID uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	timeFunc  func() time.Time // Injectable for testing
	logger    *slog.Logger
}

// Ensure taskServiceImpl implements TaskService interface
var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("%w: taskStore cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, fmt.Errorf("%w: userStore cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		timeFunc:  time.Now,
		logger:    logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create
func (s *taskServiceImpl) Create(
	ctx context.Context,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ownerID := input.OwnerID
	balanced := ownerID == uuid.Nil
	if balanced {
		selected, err := s.selectLeastLoadedUser(ctx)
		if err != nil {
			return nil, err
		}
		ownerID = selected
	}

	task, err := domain.NewTask(ownerID, input.Title, input.Description, input.Status)
	if err != nil {
		log.Warn("task draft failed validation",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			// Explicit owner pointing at a nonexistent user.
			return nil, err
		}
		log.Error("failed to persist task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, NewTaskServiceError("create", "failed to persist task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", ownerID.String()),
		slog.Bool("balanced", balanced))
	return task, nil
}

// selectLeastLoadedUser scans all users and returns the one with the fewest
// active tasks. The user enumeration order is stable, and the first user with
// the strictly smallest count wins, so repeated calls against unchanged data
// are deterministic.
//
// This is a read-then-decide scan: two concurrent balanced creations can both
// observe the same minimal count and assign to the same user. Balancing is
// best-effort, not a hard invariant.
func (s *taskServiceImpl) selectLeastLoadedUser(ctx context.Context) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	users, err := s.userStore.List(ctx)
	if err != nil {
		return uuid.Nil, NewTaskServiceError("create", "failed to enumerate users", err)
	}
	if len(users) == 0 {
		log.Error("balanced assignment requested with no users registered")
		return uuid.Nil, ErrNoAssignableUsers
	}

	var selected uuid.UUID
	minCount := -1
	for _, user := range users {
		count, err := s.taskStore.CountActiveByOwner(ctx, user.ID)
		if err != nil {
			return uuid.Nil, NewTaskServiceError("create", "failed to count active tasks", err)
		}
		if minCount < 0 || count < minCount {
			minCount = count
			selected = user.ID
		}
	}

	log.Debug("selected least-loaded user",
		slog.String("user_id", selected.String()),
		slog.Int("active_tasks", minCount))
	return selected, nil
}

// Get implements TaskService.Get
func (s *taskServiceImpl) Get(
	ctx context.Context,
	taskID, ownerID uuid.UUID,
) (*domain.Task, error) {
	return s.taskStore.Get(ctx, taskID, ownerID)
}

// List implements TaskService.List
func (s *taskServiceImpl) List(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.Task, error) {
	return s.taskStore.ListByOwner(ctx, ownerID)
}

// Update implements TaskService.Update
func (s *taskServiceImpl) Update(
	ctx context.Context,
	taskID, ownerID uuid.UUID,
	patch domain.TaskPatch,
	clientLastEdited *time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Malformed patches are rejected before touching the store.
	if err := patch.Validate(); err != nil {
		log.Warn("task patch failed validation",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	for attempt := 0; ; attempt++ {
		current, err := s.taskStore.Get(ctx, taskID, ownerID)
		if err != nil {
			return nil, err
		}

		// Conflict check: the client last read the task at clientLastEdited.
		// If the stored clock is strictly newer, someone else edited the task
		// since then. Both versions are surfaced; resolution is the caller's
		// concern. An absent clientLastEdited disables the check entirely.
		if clientLastEdited != nil && current.LastEdited.After(*clientLastEdited) {
			log.Info("concurrent edit detected",
				slog.String("task_id", taskID.String()),
				slog.Time("client_last_edited", *clientLastEdited),
				slog.Time("server_last_edited", current.LastEdited))
			return nil, &ConflictError{ServerVersion: current, ClientVersion: patch}
		}

		updated := *current
		updated.ApplyPatch(patch, s.timeFunc().UTC())

		err = s.taskStore.Update(ctx, &updated, current.LastEdited)
		if err == nil {
			log.Info("task updated",
				slog.String("task_id", taskID.String()),
				slog.String("status", string(updated.Status)))
			return &updated, nil
		}

		if errors.Is(err, store.ErrEditedConcurrently) {
			if clientLastEdited != nil {
				// The write lost the race after the check passed. Re-read so
				// the conflict payload carries the record that beat us.
				server, getErr := s.taskStore.Get(ctx, taskID, ownerID)
				if getErr != nil {
					return nil, getErr
				}
				return nil, &ConflictError{ServerVersion: server, ClientVersion: patch}
			}
			// Force write: last write wins, so re-apply on the fresh record.
			if attempt < forceWriteRetries {
				continue
			}
			return nil, NewTaskServiceError("update", "force write kept losing races", err)
		}

		if errors.Is(err, store.ErrTaskNotFound) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}

		log.Error("failed to persist task update",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("update", "failed to persist task", err)
	}
}

// Delete implements TaskService.Delete
func (s *taskServiceImpl) Delete(ctx context.Context, taskID, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.taskStore.Delete(ctx, taskID, ownerID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return err
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return NewTaskServiceError("delete", "failed to delete task", err)
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", ownerID.String()))
	return nil
}
