package persist

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps the document in memory. It is safe for concurrent use.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  []byte
	saves int
	err   error
}

// NewMemoryBackend returns an empty backend, optionally pre-seeded.
func NewMemoryBackend(seed []byte) *MemoryBackend {
	b := &MemoryBackend{}
	if seed != nil {
		b.data = bytes.Clone(seed)
	}
	return b
}

// Describe implements Backend.
func (b *MemoryBackend) Describe() string {
	return "memory"
}

// Load implements Backend. The returned slice is a copy.
func (b *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, ErrNotFound
	}
	return bytes.Clone(b.data), nil
}

// Save implements Backend. It fails with the error set by FailWith, if any.
func (b *MemoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.data = bytes.Clone(data)
	b.saves++
	return nil
}

// FailWith makes every subsequent Save return err. Pass nil to recover.
func (b *MemoryBackend) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Saves returns the number of successful saves.
func (b *MemoryBackend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}
