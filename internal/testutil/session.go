package testutil

import (
	"fmt"
	"sync"
)

// SequenceSessionGenerator generates predictable session IDs in sequence:
// "<prefix>-0001", "<prefix>-0002", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with a fresh generator produces byte-identical traces.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceSessionGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceSessionGenerator creates a generator starting at 1.
// If prefix is empty, "test-session" is used.
func NewSequenceSessionGenerator(prefix string) *SequenceSessionGenerator {
	if prefix == "" {
		prefix = "test-session"
	}
	return &SequenceSessionGenerator{prefix: prefix, next: 1}
}

// Generate returns the next ID in the sequence.
//
// Implements persist.SessionIDGenerator.
func (g *SequenceSessionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s-%04d", g.prefix, g.next)
	g.next++
	return id
}

// Reset restarts the sequence at 1.
func (g *SequenceSessionGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 1
}
