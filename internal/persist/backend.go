package persist

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been persisted yet.
// Callers treat it as "start from genesis", not as a failure.
var ErrNotFound = errors.New("no persisted record")

// Backend stores the exported bytes of the current record.
type Backend interface {
	// Load returns the last saved document, or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the saved document.
	Save(ctx context.Context, data []byte) error

	// Describe names the backend target for logs, e.g. "file:scd_state.json".
	Describe() string
}
