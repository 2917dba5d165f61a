package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore implementation that mirrors
// the PostgreSQL store's observable behavior: ownership-scoped lookups and a
// conditional write keyed on the edit clock.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// Injectable failures
	createErr error
	countErr  error

	// beforeUpdate runs between the service's read and its write, letting
	// tests interleave a concurrent writer.
	beforeUpdate func()
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) Get(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) Update(
	ctx context.Context,
	task *domain.Task,
	expectedLastEdited time.Time,
) error {
	if f.beforeUpdate != nil {
		hook := f.beforeUpdate
		f.beforeUpdate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	if !stored.LastEdited.Equal(expectedLastEdited) {
		return store.ErrEditedConcurrently
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.UserID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tasks []*domain.Task
	for _, task := range f.tasks {
		if task.UserID == ownerID {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}
	// Newest first, matching the SQL store's ORDER BY created_at DESC
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			if tasks[j].CreatedAt.After(tasks[i].CreatedAt) {
				tasks[i], tasks[j] = tasks[j], tasks[i]
			}
		}
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (f *fakeTaskStore) CountActiveByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, task := range f.tasks {
		if task.UserID == ownerID && task.IsActive() {
			count++
		}
	}
	return count, nil
}

// fakeUserStore is an in-memory store.UserStore with a fixed, stable
// enumeration order.
type fakeUserStore struct {
	users   []*domain.User
	listErr error
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) List(ctx context.Context) ([]*domain.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

// testUser builds a stored user with only a hash, as loaded from the database.
func testUser(email string) *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: "$2a$10$test",
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}
