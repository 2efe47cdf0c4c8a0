package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplTurns(t *testing.T) {
	store := fileStore(t)

	run := execute(t, "hello\nworld\n\n", with(store, "repl")...)
	require.NoError(t, run.err)

	out := run.stdout
	assert.True(t, strings.HasPrefix(out, "SCD REPL\nResuming at turn 0. Type messages; empty line to exit.\n\n"))
	assert.Contains(t, out, "[scd] turn: 1\n")
	assert.Contains(t, out, "[scd] turn: 2\n")
	assert.Contains(t, out, "[scd] checksum: ASHA-256:ac6c02e865c8430d038b620e8de4ee779c42499861ebbd1cab09c66ca16bb7bc\n")
	assert.Contains(t, out, "\"last_input\": \"world\"")
	assert.True(t, strings.HasSuffix(out, "you> Bye.\n"))

	// A second session resumes where the first stopped.
	run = execute(t, "\n", with(store, "repl")...)
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "Resuming at turn 2.")
}

func TestReplEndOfInput(t *testing.T) {
	run := execute(t, "only line\n", "--backend", "memory", "repl")
	require.NoError(t, run.err)

	assert.Contains(t, run.stdout, "[scd] turn: 1\n")
	assert.True(t, strings.HasSuffix(run.stdout, "you> \nExiting.\n"))
}

func TestReplTrimsInput(t *testing.T) {
	run := execute(t, "  spaced  \n   \n", "--backend", "memory", "repl")
	require.NoError(t, run.err)

	assert.Contains(t, run.stdout, "\"last_input\": \"spaced\"")
	assert.NotContains(t, run.stdout, "[scd] turn: 2")
}
