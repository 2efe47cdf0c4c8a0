package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scd/internal/state"
)

// ReplMode is stored in the mode field of every REPL turn.
const ReplMode = "cli_repl"

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive loop: every line becomes a new turn",
		Long: `Start an interactive loop. Each input line is superseded into the
store as {"last_input": <line>, "mode": "cli_repl"}, and the fingerprint
and context block are printed after every turn.

An empty line or end of input exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(rootOpts, cmd)
		},
	}
}

func runRepl(opts *RootOptions, cmd *cobra.Command) error {
	store, err := openStore(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "SCD REPL")
	fmt.Fprintf(w, "Resuming at turn %d. Type messages; empty line to exit.\n\n", store.Turn())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(w, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(w, "\nExiting.")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprintln(w, "Bye.")
			return nil
		}

		r, err := store.Supersede(state.Deltas{
			"last_input": state.Set(state.String(line)),
			"mode":       state.Set(state.String(ReplMode)),
		})
		if err != nil {
			return WrapExitError(ExitFailure, "supersede rejected", err)
		}

		fmt.Fprintf(w, "\n[scd] turn: %d\n", r.Turn)
		fmt.Fprintf(w, "[scd] checksum: %s\n", r.Fingerprint)
		fmt.Fprintf(w, "[scd] context:\n%s\n", store.RenderContext())
	}
}
