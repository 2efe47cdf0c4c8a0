package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scd/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	StateFile     string
	Backend       string // "file" | "sqlite" | "memory"
	Database      string
	Session       string
	SchemaVersion string
	LogLevel      string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultSession is the SQLite session used when none is configured.
const DefaultSession = "default"

// NewRootCommand creates the root command for the SCD CLI.
// Flag defaults come from the SCD_* environment variables.
func NewRootCommand() *cobra.Command {
	cfg, cfgErr := config.Load()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scd",
		Short: "SCD - Structured Contextual Distillation",
		Long: `Versioned key-value session state with a deterministic fingerprint.

Every supersede produces a new record with the next turn number and an
ASHA-256 fingerprint over the canonical form of its fields. Records move
between holders with export and import; import verifies before trusting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment configuration", cfgErr)
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.config().Validate()
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.StateFile, "state", cfg.StateFile, "state file for the file backend (SCD_STATE_FILE)")
	flags.StringVar(&opts.Backend, "backend", cfg.Backend, "persistence backend: file|sqlite|memory (SCD_BACKEND)")
	flags.StringVar(&opts.Database, "db", cfg.Database, "SQLite database for the sqlite backend (SCD_DB)")
	flags.StringVar(&opts.Session, "session", cfg.Session, "session ID for the sqlite backend (SCD_SESSION)")
	flags.StringVar(&opts.SchemaVersion, "schema-version", cfg.SchemaVersion, "schema version for new records (SCD_SCHEMA_VERSION)")
	flags.StringVar(&opts.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error (SCD_LOG_LEVEL)")

	// Add subcommands
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSupersedeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewContextCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// config returns the flag values as a config.Config for validation.
func (o *RootOptions) config() config.Config {
	return config.Config{
		StateFile:     o.StateFile,
		Backend:       o.Backend,
		Database:      o.Database,
		Session:       o.Session,
		SchemaVersion: o.SchemaVersion,
		LogLevel:      o.LogLevel,
	}
}

// sessionID returns the configured SQLite session or DefaultSession.
func (o *RootOptions) sessionID() string {
	if o.Session == "" {
		return DefaultSession
	}
	return o.Session
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
