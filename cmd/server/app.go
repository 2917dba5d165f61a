package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService
}

// newApplication wires the dependency graph: stores over the shared DB
// handle, auth services from config, and the task service on top.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	taskService, err := service.NewTaskService(taskStore, userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		userStore:        userStore,
		taskStore:        taskStore,
		jwtService:       jwtService,
		passwordVerifier: auth.NewBcryptVerifier(),
		taskService:      taskService,
	}, nil
}
