package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackendLoadMissing(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))

	_, err := b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackendSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	b := NewFileBackend(path)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, []byte(`{"turn":0}`)))
	require.NoError(t, b.Save(ctx, []byte(`{"turn":1}`)))

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"turn":1}`, string(data))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileBackendSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// Parent "directory" is a regular file
	b := NewFileBackend(filepath.Join(blocker, "state.json"))
	err := b.Save(context.Background(), []byte("{}"))
	require.Error(t, err)
}

func TestFileBackendCancelledContext(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Save(ctx, []byte("{}")), context.Canceled)
	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileBackendDescribe(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.json", NewFileBackend("/tmp/x.json").Describe())
}
