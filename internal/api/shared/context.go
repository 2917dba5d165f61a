package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// UserIDContextKey is the context key for the authenticated user ID
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// generateTraceID creates a random trace ID for request tracking.
// If crypto/rand fails it falls back to a time-based ID, never a static value.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)
	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "time-based generation")
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

// generateFallbackTraceID builds a trace ID from timestamps when the
// crypto/rand source fails. Chronologically unique, not unguessable.
func generateFallbackTraceID() string {
	fallbackID := make([]byte, TraceIDLength)
	binary.BigEndian.PutUint64(fallbackID[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(fallbackID[8:12], uint32(time.Now().Nanosecond()))
	binary.BigEndian.PutUint32(fallbackID[12:16], uint32(time.Now().Unix()))
	return hex.EncodeToString(fallbackID)
}
