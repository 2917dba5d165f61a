package api

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// testLogger returns a logger that swallows output so handler tests stay quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withTestUserID attaches an authenticated user to the context the way the
// auth middleware does.
func withTestUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, shared.UserIDContextKey, userID)
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   strings.Repeat("k", 32),
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60 * 24,
	}
}

// memoryUserStore mimics the persistence layer closely enough for handler
// tests: it hashes the plaintext password on create, like the real store.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*memoryUserStore)(nil)

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *memoryUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	// MinCost keeps tests fast
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hashed)
	user.Password = ""
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memoryUserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	// Stable order: oldest first, matching the SQL store
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			if users[j].CreatedAt.Before(users[i].CreatedAt) {
				users[i], users[j] = users[j], users[i]
			}
		}
	}
	return users, nil
}

// seedUser registers a user directly in the store and returns it.
func (s *memoryUserStore) seedUser(email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = time.Now().UTC()
	if err := s.Create(context.Background(), user); err != nil {
		return nil, err
	}
	return user, nil
}
