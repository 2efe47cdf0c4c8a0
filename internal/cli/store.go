package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scd/internal/config"
	"github.com/roach88/scd/internal/persist"
	"github.com/roach88/scd/internal/scd"
)

// openedStore is a store plus whatever must be released after use.
type openedStore struct {
	*scd.Store
	backend persist.Backend
	closer  io.Closer
}

func (s *openedStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// newLogger builds the stderr logger for store diagnostics.
// --verbose lowers the level to debug.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(opts.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openBackend opens the configured persistence backend.
// The returned closer is nil for backends that hold no resources.
func openBackend(opts *RootOptions) (persist.Backend, io.Closer, error) {
	switch opts.Backend {
	case config.BackendFile:
		return persist.NewFileBackend(opts.StateFile), nil, nil
	case config.BackendSQLite:
		db, err := persist.Open(opts.Database)
		if err != nil {
			return nil, nil, err
		}
		return db.Session(opts.sessionID()), db, nil
	case config.BackendMemory:
		return persist.NewMemoryBackend(nil), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// openStore opens the backend and initializes a store from it.
func openStore(opts *RootOptions, logOut io.Writer) (*openedStore, error) {
	backend, closer, err := openBackend(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open backend", err)
	}

	logger := newLogger(opts, logOut)
	store := scd.New(
		scd.WithBackend(backend),
		scd.WithLogger(logger),
		scd.WithSchemaVersion(opts.SchemaVersion),
	)
	return &openedStore{Store: store, backend: backend, closer: closer}, nil
}
