// Command scd manages versioned, fingerprinted session state.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/scd/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
