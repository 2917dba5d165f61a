package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrInvalidEntity if the owner's user ID doesn't exist (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, status, created_at, updated_at, completed_at, last_edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
		task.CompletedAt,
		task.LastEdited,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return MapError(err)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Get implements store.TaskStore.Get
// It retrieves a task by its unique ID, scoped to the given owner.
// Returns store.ErrTaskNotFound if the task does not exist or is owned by
// another user; the two cases are deliberately indistinguishable.
func (s *PostgresTaskStore) Get(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))

	query := `
		SELECT id, user_id, title, description, status, created_at, updated_at, completed_at, last_edited
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// Update implements store.TaskStore.Update
// It persists the full task record, scoped to (task.ID, task.UserID), as a
// single conditional write keyed on the edit clock the caller read. If the
// stored last_edited no longer matches expectedLastEdited the row is left
// untouched and store.ErrEditedConcurrently is returned; if the row is gone
// (or owned by someone else) the result is store.ErrTaskNotFound.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	task *domain.Task,
	expectedLastEdited time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, updated_at = $4, completed_at = $5, last_edited = $6
		WHERE id = $7 AND user_id = $8 AND last_edited = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.UpdatedAt,
		task.CompletedAt,
		task.LastEdited,
		task.ID,
		task.UserID,
		expectedLastEdited,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		// The conditional write missed. Distinguish a vanished row from a
		// concurrently advanced edit clock so callers can surface the right error.
		exists, err := s.exists(ctx, task.ID, task.UserID)
		if err != nil {
			return err
		}
		if !exists {
			log.Debug("task not found for update",
				slog.String("task_id", task.ID.String()))
			return store.ErrTaskNotFound
		}

		log.Debug("task edited concurrently",
			slog.String("task_id", task.ID.String()),
			slog.Time("expected_last_edited", expectedLastEdited))
		return store.ErrEditedConcurrently
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
// It removes a task from the store, scoped to the given owner.
// Returns store.ErrTaskNotFound if the task does not exist or is owned by another user.
func (s *PostgresTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete", slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return nil
}

// ListByOwner implements store.TaskStore.ListByOwner
// It retrieves all tasks owned by the given user, newest first.
// Returns an empty slice if the user owns no tasks.
func (s *PostgresTaskStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, description, status, created_at, updated_at, completed_at, last_edited
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to query tasks by owner",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no tasks found
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks by owner",
		slog.String("user_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// CountActiveByOwner implements store.TaskStore.CountActiveByOwner
// It counts the owner's tasks whose status is todo or inprogress.
func (s *PostgresTaskStore) CountActiveByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND status IN ($2, $3)
	`

	var count int
	err := s.db.QueryRowContext(
		ctx,
		query,
		ownerID,
		domain.TaskStatusTodo,
		domain.TaskStatusInProgress,
	).Scan(&count)
	if err != nil {
		log.Error("failed to count active tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return 0, err
	}

	return count, nil
}

// exists reports whether a task row is present for (id, ownerID).
func (s *PostgresTaskStore) exists(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id, ownerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask maps a task row onto a domain.Task, converting the nullable
// completed_at column and the status string.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string
	var completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
		&task.LastEdited,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	return &task, nil
}
