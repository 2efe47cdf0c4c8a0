package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scd/internal/persist"
	"github.com/roach88/scd/internal/state"
)

// sessionIDs generates IDs for "scd session new". Tests replace it.
var sessionIDs persist.SessionIDGenerator = persist.UUIDv7Generator{}

// NewSessionCommand creates the session command group.
// Sessions live in the SQLite database named by --db.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions in the SQLite database",
		Long: `Manage sessions in the SQLite database named by --db.

Each session holds one current record and a journal of every distinct
record saved to it.`,
	}

	cmd.AddCommand(newSessionNewCommand(rootOpts))
	cmd.AddCommand(newSessionListCommand(rootOpts))
	cmd.AddCommand(newSessionFindCommand(rootOpts))

	return cmd
}

func openDB(opts *RootOptions) (*persist.DB, error) {
	db, err := persist.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

func newSessionNewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a session at genesis and print its ID",
		Long: `Create a session at genesis and print its ID. Use the ID with
--session (or SCD_SESSION) and --backend sqlite.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			id := sessionIDs.Generate()
			genesis, err := state.EncodeRecord(state.Genesis(rootOpts.SchemaVersion))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode genesis", err)
			}
			if err := db.Session(id).Save(context.Background(), genesis); err != nil {
				return WrapExitError(ExitCommandError, "failed to create session", err)
			}

			return rootOpts.formatter(cmd).Result(
				map[string]string{"session": id},
				id+"\n",
			)
		},
	}
}

func newSessionListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List sessions with their current turn and fingerprint",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := db.Sessions(context.Background())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list sessions", err)
			}

			var sb strings.Builder
			if len(sessions) == 0 {
				sb.WriteString("No sessions found.\n")
			}
			for _, s := range sessions {
				fmt.Fprintf(&sb, "%s\tturn=%d\t%s\n", s.ID, s.Turn, s.Fingerprint)
			}
			return rootOpts.formatter(cmd).Result(sessions, sb.String())
		},
	}
}

func newSessionFindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <fingerprint>",
		Short: "List sessions whose journal contains a fingerprint",
		Long: `List sessions whose journal contains a fingerprint. After a handoff,
both the exporting and the importing session appear.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			ids, err := db.FindByFingerprint(context.Background(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to search sessions", err)
			}

			text := "No sessions found.\n"
			if len(ids) > 0 {
				text = strings.Join(ids, "\n") + "\n"
			}
			return rootOpts.formatter(cmd).Result(map[string]any{"sessions": ids}, text)
		},
	}
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the journal of a SQLite session",
		Long: `Show every distinct record saved to a session, oldest first.

Examples:
  scd log --session vendor-a
  scd log --db ./scd.db --session 0192f0c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			id := rootOpts.sessionID()
			history, err := db.History(context.Background(), id)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read journal", err)
			}

			var sb strings.Builder
			if len(history) == 0 {
				fmt.Fprintf(&sb, "No journal entries for session: %s\n", id)
			}
			for _, s := range history {
				fmt.Fprintf(&sb, "#%d\tturn=%d\t%s\n", s.Seq, s.Turn, s.Fingerprint)
			}
			return rootOpts.formatter(cmd).Result(
				map[string]any{"session": id, "history": history},
				sb.String(),
			)
		},
	}
}
