// Package config loads SCD settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by SCD_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds environment-driven settings. CLI flags override them.
type Config struct {
	StateFile     string `env:"SCD_STATE_FILE" envDefault:"scd_state.json"`
	Backend       string `env:"SCD_BACKEND" envDefault:"file"`
	Database      string `env:"SCD_DB" envDefault:"scd.db"`
	Session       string `env:"SCD_SESSION"`
	SchemaVersion string `env:"SCD_SCHEMA_VERSION" envDefault:"1.0.0"`
	LogLevel      string `env:"SCD_LOG_LEVEL" envDefault:"warn"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the SCD configuration. On error the returned
// Config still holds every value that parsed, so callers can fall back to it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks values that env tags cannot express.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid backend %q: must be %s, %s, or %s",
			c.Backend, BackendFile, BackendSQLite, BackendMemory)
	}
	if strings.TrimSpace(c.SchemaVersion) == "" {
		return fmt.Errorf("schema version must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
