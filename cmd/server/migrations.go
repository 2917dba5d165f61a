package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/phrazzld/taskboard-api/migrations"
)

// setupGoose points goose at the embedded migration files.
func setupGoose() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// migrateUp applies all pending migrations. Called at server startup so the
// schema is always current before requests are served.
func migrateUp(db *sql.DB, logger *slog.Logger) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("database migrations applied")
	return nil
}

// runMigrationCommand executes a single migration command (-migrate flag)
// and exits without starting the server.
func runMigrationCommand(db *sql.DB, command string, logger *slog.Logger) error {
	if err := setupGoose(); err != nil {
		return err
	}

	logger.Info("running migration command", slog.String("command", command))

	switch command {
	case "up":
		if err := goose.Up(db, "."); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case "down":
		if err := goose.Down(db, "."); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case "status":
		if err := goose.Status(db, "."); err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown migration command %q (want up, down, or status)", command)
	}

	return nil
}
