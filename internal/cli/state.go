package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scd/internal/state"
)

// Error codes for state commands.
const (
	ErrCodeInvalidInput   = "E101"
	ErrCodeRejectedDelta  = "E102"
	ErrCodeImportRejected = "E103"
	ErrCodeMalformed      = "E104"
	ErrCodeMismatch       = "E105"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current record",
		Long: `Print the current record as an exported document.

Examples:
  scd show
  scd show --backend sqlite --session vendor-a --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, cmd)
		},
	}
}

func runShow(opts *RootOptions, cmd *cobra.Command) error {
	store, err := openStore(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := store.Export()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to export record", err)
	}
	return opts.formatter(cmd).Result(store.Record(), string(data))
}

// SupersedeOptions holds flags for the supersede command.
type SupersedeOptions struct {
	*RootOptions
	Set    []string
	Delete []string
	Deltas string
}

// SupersedeResult is the JSON payload of a successful supersede.
type SupersedeResult struct {
	Turn        int64  `json:"turn"`
	Fingerprint string `json:"fingerprint"`
	Changed     int    `json:"changed"`
}

// NewSupersedeCommand creates the supersede command.
func NewSupersedeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SupersedeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "supersede",
		Short: "Apply field deltas and advance the turn",
		Long: `Apply field deltas to the current record and install the result as
the next turn.

Values given to --set are read as JSON when they parse and as plain
strings otherwise. --set key=null and --delete key both remove a key.
--deltas takes a JSON object (or "-" to read one from stdin); --set and
--delete are applied on top of it.

Examples:
  scd supersede --set project=MyApp --set 'tags=["a","b"]'
  scd supersede --delete draft
  scd supersede --deltas '{"mode":"production","debug":null}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSupersede(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "set key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Delete, "delete", nil, "delete key (repeatable)")
	cmd.Flags().StringVar(&opts.Deltas, "deltas", "", `JSON object of deltas, or "-" for stdin`)

	return cmd
}

func runSupersede(opts *SupersedeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	deltas, err := buildDeltas(opts, cmd)
	if err != nil {
		formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid deltas", err)
	}

	store, err := openStore(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Supersede(deltas)
	if err != nil {
		formatter.Error(ErrCodeRejectedDelta, err.Error(), nil)
		return WrapExitError(ExitFailure, "supersede rejected", err)
	}

	formatter.VerboseLog("Applied %d delta(s) via %s", len(deltas), store.backend.Describe())
	return formatter.Result(
		SupersedeResult{Turn: r.Turn, Fingerprint: r.Fingerprint, Changed: len(deltas)},
		fmt.Sprintf("Turn: %d\nFingerprint: %s\n", r.Turn, r.Fingerprint),
	)
}

func buildDeltas(opts *SupersedeOptions, cmd *cobra.Command) (state.Deltas, error) {
	deltas := state.Deltas{}

	if opts.Deltas != "" {
		raw := []byte(opts.Deltas)
		if opts.Deltas == "-" {
			var err error
			if raw, err = readInput("-", cmd.InOrStdin()); err != nil {
				return nil, fmt.Errorf("read deltas: %w", err)
			}
		}
		parsed, err := state.DeltasFromJSON(raw)
		if err != nil {
			return nil, err
		}
		origin := make(map[string]string, len(parsed))
		for _, k := range slices.Sorted(maps.Keys(parsed)) {
			key := normalizeKey(k)
			if prev, dup := origin[key]; dup {
				return nil, fmt.Errorf("keys %q and %q both normalize to %q", prev, k, key)
			}
			origin[key] = k
			deltas[key] = parsed[k]
		}
	}

	for _, arg := range opts.Set {
		key, d, err := parseAssignment(arg)
		if err != nil {
			return nil, err
		}
		deltas[key] = d
	}

	for _, key := range opts.Delete {
		key = normalizeKey(key)
		if key == "" {
			return nil, fmt.Errorf("--delete requires a key")
		}
		deltas[key] = state.Delete()
	}

	return deltas, nil
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current record for handoff",
		Long: `Export the current record as a self-describing JSON document that
"scd import" on any other holder accepts unchanged.

Examples:
  scd export > handoff.json
  scd export -o handoff.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	store, err := openStore(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := store.Export()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to export record", err)
	}

	formatter := opts.formatter(cmd)
	if opts.Output == "" {
		return formatter.Result(store.Record(), string(data))
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}
	r := store.Record()
	return formatter.Result(
		map[string]any{"path": opts.Output, "turn": r.Turn, "fingerprint": r.Fingerprint},
		fmt.Sprintf("Exported turn %d to %s\n", r.Turn, opts.Output),
	)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import an exported record after verifying it",
		Long: `Import a record exported by "scd export". The document must parse and
its fingerprint must match its fields; otherwise nothing changes.

Exit codes:
  0 - Record imported
  1 - Record rejected (malformed or fingerprint mismatch)
  2 - Command error (unreadable file, etc.)

Examples:
  scd import handoff.json
  cat handoff.json | scd import -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	store, err := openStore(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportErr(data); err != nil {
		formatter.Error(ErrCodeImportRejected, err.Error(), nil)
		return WrapExitError(ExitFailure, "import rejected", err)
	}

	r := store.Record()
	return formatter.Result(
		SupersedeResult{Turn: r.Turn, Fingerprint: r.Fingerprint, Changed: len(r.Fields)},
		fmt.Sprintf("Imported turn %d\nFingerprint: %s\n", r.Turn, r.Fingerprint),
	)
}

// VerifyResult is the JSON payload of the verify command.
type VerifyResult struct {
	Valid       bool   `json:"valid"`
	Turn        int64  `json:"turn"`
	Fingerprint string `json:"fingerprint"`
	Expected    string `json:"expected,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file|->",
		Short: "Check a record document's fingerprint without importing it",
		Long: `Check that a record document parses and that its fingerprint matches
its fields. The local store is not touched.

Exit codes:
  0 - Fingerprint matches
  1 - Malformed document or fingerprint mismatch
  2 - Command error (unreadable file, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
}

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	r, err := state.ParseRecord(data)
	if err != nil {
		formatter.Error(ErrCodeMalformed, err.Error(), nil)
		return WrapExitError(ExitFailure, "malformed record", err)
	}

	if !state.Verify(r) {
		result := VerifyResult{Turn: r.Turn, Fingerprint: r.Fingerprint}
		if digest, err := r.Dialect.Digest(r.Fields); err == nil && !r.IsGenesis() {
			result.Expected = digest
		}
		formatter.Error(ErrCodeMismatch, "fingerprint does not match fields", result)
		return NewExitError(ExitFailure, "fingerprint mismatch")
	}

	return formatter.Result(
		VerifyResult{Valid: true, Turn: r.Turn, Fingerprint: r.Fingerprint},
		fmt.Sprintf("OK turn %d %s\n", r.Turn, r.Fingerprint),
	)
}

// NewContextCommand creates the context command.
func NewContextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Render the current record as a prompt context block",
		Long: `Render the current record as the [SCD STATE] block that is prepended
to a model prompt.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer store.Close()

			rendered := store.RenderContext()
			return rootOpts.formatter(cmd).Result(map[string]string{"context": rendered}, rendered)
		},
	}
}
