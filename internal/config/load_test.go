package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the env vars without which Load fails validation.
// t.Setenv also prevents parallel execution, which these tests need since
// they share the process environment.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost:5432/taskboard")
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, 7*24*60, cfg.Auth.RefreshTokenLifetimeMinutes)
	assert.Equal(t, 0, cfg.Auth.BcryptCost)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKBOARD_SERVER_PORT", "9090")
	t.Setenv("TASKBOARD_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKBOARD_AUTH_TOKEN_LIFETIME_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 15, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, "postgres://localhost:5432/taskboard", cfg.Database.URL)
}

func TestLoadRejectsMissingRequiredValues(t *testing.T) {
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost:5432/taskboard")
	// Missing JWT secret
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKBOARD_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}
