package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// cliRun holds the captured output of one command execution.
type cliRun struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with args and optional stdin.
func execute(t *testing.T, stdin string, args ...string) cliRun {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

// fileStore returns the flags selecting a file backend in a temp dir.
func fileStore(t *testing.T) []string {
	t.Helper()
	return []string{"--backend", "file", "--state", filepath.Join(t.TempDir(), "scd_state.json")}
}

func with(base []string, args ...string) []string {
	out := make([]string, 0, len(base)+len(args))
	out = append(out, args...)
	return append(out, base...)
}

// decodeResponse parses a JSON CLIResponse and re-decodes its data into v.
func decodeResponse(t *testing.T, raw string, v any) CLIResponse {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	if v != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, v))
	}
	return resp
}
