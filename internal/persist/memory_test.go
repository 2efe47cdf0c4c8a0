package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(nil)

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	input := []byte("doc")
	require.NoError(t, b.Save(ctx, input))
	input[0] = 'X'

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(data), "saved bytes must be copied")

	data[0] = 'Y'
	again, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(again), "loaded bytes must be copied")
	assert.Equal(t, 1, b.Saves())
}

func TestMemoryBackendSeedAndFailure(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend([]byte("seed"))

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed", string(data))

	boom := errors.New("disk full")
	b.FailWith(boom)
	assert.ErrorIs(t, b.Save(ctx, []byte("new")), boom)

	data, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed", string(data))
	assert.Equal(t, 0, b.Saves())

	b.FailWith(nil)
	require.NoError(t, b.Save(ctx, []byte("new")))
	assert.Equal(t, 1, b.Saves())
}
