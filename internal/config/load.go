package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables, e.g.
// TASKBOARD_DATABASE_URL maps to the database.url key.
const envPrefix = "TASKBOARD"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over file values. Returns a populated Config struct or an
// error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults register every key with viper so AutomaticEnv can bind them.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 7*24*60)
	v.SetDefault("auth.bcrypt_cost", 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults carry the load.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
