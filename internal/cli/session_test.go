package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scd/internal/testutil"
)

// useSequenceIDs makes "session new" deterministic for the test.
func useSequenceIDs(t *testing.T) {
	t.Helper()
	prev := sessionIDs
	sessionIDs = testutil.NewSequenceSessionGenerator("s")
	t.Cleanup(func() { sessionIDs = prev })
}

func sqliteStore(t *testing.T) []string {
	t.Helper()
	return []string{"--backend", "sqlite", "--db", filepath.Join(t.TempDir(), "scd.db")}
}

func TestSessionLifecycle(t *testing.T) {
	useSequenceIDs(t)
	db := sqliteStore(t)

	run := execute(t, "", with(db, "session", "list")...)
	require.NoError(t, run.err)
	assert.Equal(t, "No sessions found.\n", run.stdout)

	run = execute(t, "", with(db, "session", "new")...)
	require.NoError(t, run.err)
	assert.Equal(t, "s-0001\n", run.stdout)

	run = execute(t, "", with(db, "--session", "s-0001", "supersede", "--set", "a=1", "--set", "b=two")...)
	require.NoError(t, run.err)

	run = execute(t, "", with(db, "session", "list")...)
	require.NoError(t, run.err)
	assert.Equal(t, "s-0001\tturn=1\t"+fpATwo+"\n", run.stdout)

	run = execute(t, "", with(db, "--session", "s-0001", "log")...)
	require.NoError(t, run.err)
	lines := strings.Split(strings.TrimSpace(run.stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "\tturn=0\tGENESIS"))
	assert.True(t, strings.HasSuffix(lines[1], "\tturn=1\t"+fpATwo))
}

func TestSessionsAreIsolated(t *testing.T) {
	db := sqliteStore(t)

	require.NoError(t, execute(t, "", with(db, "--session", "vendor-a", "supersede", "--set", "a=1", "--set", "b=two")...).err)

	run := execute(t, "", with(db, "--session", "vendor-b", "context")...)
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "Turn: 0\n")

	run = execute(t, "", with(db, "--session", "vendor-a", "context")...)
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "Turn: 1\n")
}

func TestSessionFindAfterHandoff(t *testing.T) {
	db := sqliteStore(t)
	handoff := filepath.Join(t.TempDir(), "handoff.json")

	require.NoError(t, execute(t, "", with(db, "--session", "vendor-a", "supersede", "--set", "a=1", "--set", "b=two")...).err)
	require.NoError(t, execute(t, "", with(db, "--session", "vendor-a", "export", "-o", handoff)...).err)
	require.NoError(t, execute(t, "", with(db, "--session", "vendor-b", "import", handoff)...).err)

	run := execute(t, "", with(db, "session", "find", fpATwo)...)
	require.NoError(t, run.err)
	assert.Equal(t, "vendor-a\nvendor-b\n", run.stdout)

	run = execute(t, "", with(db, "session", "find", "ASHA-256:unknown")...)
	require.NoError(t, run.err)
	assert.Equal(t, "No sessions found.\n", run.stdout)
}

func TestLogDefaultSession(t *testing.T) {
	db := sqliteStore(t)

	run := execute(t, "", with(db, "log")...)
	require.NoError(t, run.err)
	assert.Equal(t, "No journal entries for session: "+DefaultSession+"\n", run.stdout)

	require.NoError(t, execute(t, "", with(db, "supersede", "--set", "a=1")...).err)

	run = execute(t, "", with(db, "--format", "json", "log")...)
	require.NoError(t, run.err)

	var data struct {
		Session string `json:"session"`
		History []struct {
			Turn int64 `json:"turn"`
		} `json:"history"`
	}
	decodeResponse(t, run.stdout, &data)
	assert.Equal(t, DefaultSession, data.Session)
	require.Len(t, data.History, 1)
	assert.Equal(t, int64(1), data.History[0].Turn)
}
