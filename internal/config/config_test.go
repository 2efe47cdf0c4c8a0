package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"SCD_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("SCD_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"SCD_STATE_FILE", "SCD_BACKEND", "SCD_DB", "SCD_SESSION", "SCD_SCHEMA_VERSION", "SCD_LOG_LEVEL"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := Config{
		StateFile:     "scd_state.json",
		Backend:       BackendFile,
		Database:      "scd.db",
		SchemaVersion: "1.0.0",
		LogLevel:      "warn",
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCD_BACKEND", "sqlite")
	t.Setenv("SCD_DB", "/tmp/other.db")
	t.Setenv("SCD_SESSION", "vendor-a")
	t.Setenv("SCD_SCHEMA_VERSION", "2.0.0")
	t.Setenv("SCD_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backend != BackendSQLite || cfg.Database != "/tmp/other.db" || cfg.Session != "vendor-a" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.SchemaVersion != "2.0.0" {
		t.Errorf("SchemaVersion = %q", cfg.SchemaVersion)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Backend: BackendMemory, SchemaVersion: "1.0.0", LogLevel: "info"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, "invalid backend"},
		{"blank schema version", func(c *Config) { c.SchemaVersion = "  " }, "schema version"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
