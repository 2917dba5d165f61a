package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

// startHTTPServer starts the HTTP server with graceful shutdown support.
// It blocks until the context is canceled or a termination signal arrives.
func (app *application) startHTTPServer(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("shutdown signal received")
	case <-serverCtx.Done():
		app.logger.Info("server context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}
