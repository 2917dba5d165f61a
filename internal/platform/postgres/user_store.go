package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db         store.DBTX
	bcryptCost int
	logger     *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection that should be initialized and managed by the caller,
// and the bcrypt cost used when hashing passwords during Create.
func NewPostgresUserStore(db store.DBTX, bcryptCost int, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:         db,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create
// It validates the user, hashes the plaintext password with bcrypt, and saves
// the record. Returns store.ErrEmailExists if the email is already taken.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
		if err != nil {
			log.Error("failed to hash password",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = string(hashed)
		user.Password = "" // Plaintext is never persisted or kept around
	}

	query := `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate email during user creation",
				slog.String("user_id", user.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
		}

		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, err
	}

	return &user, nil
}

// GetByEmail implements store.UserStore.GetByEmail
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user domain.User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found by email")
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by email",
			slog.String("error", err.Error()))
		return nil, err
	}

	return &user, nil
}

// List implements store.UserStore.List
// It retrieves all users ordered by creation time ascending with the ID as a
// tie-break, giving the assignment balancer a deterministic enumeration order.
// Returns an empty slice if no users exist.
func (s *PostgresUserStore) List(ctx context.Context) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query users", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.HashedPassword,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, err
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if users == nil {
		users = []*domain.User{}
	}

	log.Debug("listed users", slog.Int("count", len(users)))
	return users, nil
}
