// Package main implements the entry point for the taskboard API server,
// a multi-user task tracker with optimistic concurrency control and
// load-balanced task assignment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command instead of the server (up, down, status)")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run loads configuration, wires dependencies, and either executes a
// migration command or starts the HTTP server.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("failed to close database", "error", err)
		}
	}()

	if migrateCmd != "" {
		return runMigrationCommand(db, migrateCmd, appLogger)
	}

	// The server always runs against a fully migrated schema.
	if err := migrateUp(db, appLogger); err != nil {
		return err
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return app.startHTTPServer(ctx)
}
