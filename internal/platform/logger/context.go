package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// loggerKey is the context key under which a request-scoped logger is stored.
var loggerKey = contextKey{}

// WithLogger returns a new context carrying the given logger.
// Middleware uses this to attach a request-scoped logger (e.g., one enriched
// with a trace ID) so that downstream code logs with the same correlation fields.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context.
// If no logger is stored, the process-wide default logger is returned.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger from the context, falling back to
// the provided default when the context carries none. Components pass their
// own component-scoped logger as the fallback.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
