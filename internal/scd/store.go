package scd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/roach88/scd/internal/persist"
	"github.com/roach88/scd/internal/state"
)

// Store is the versioned key-value state for one session lineage.
type Store struct {
	mu      sync.Mutex
	current state.Record

	// persistMu serializes write-through so saves never interleave.
	persistMu sync.Mutex

	backend       persist.Backend
	persisted     []byte
	logger        *slog.Logger
	schemaVersion string
}

// Option configures a Store.
type Option func(*Store)

// WithBackend sets where records are loaded from and written through to.
func WithBackend(b persist.Backend) Option {
	return func(s *Store) {
		s.backend = b
	}
}

// WithPersisted seeds the store from previously exported bytes instead of
// loading them from the backend.
func WithPersisted(data []byte) Option {
	return func(s *Store) {
		s.persisted = data
	}
}

// WithLogger sets the logger. By default the store logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchemaVersion sets the schema version stamped on a genesis record.
// Loaded and imported records keep their own version.
func WithSchemaVersion(v string) Option {
	return func(s *Store) {
		if v != "" {
			s.schemaVersion = v
		}
	}
}

// New creates a Store and initializes it from persisted bytes when they
// hold a valid record, or from genesis otherwise. It never fails: anything
// unreadable is logged and replaced by genesis.
func New(opts ...Option) *Store {
	s := &Store{
		logger:        slog.New(slog.DiscardHandler),
		schemaVersion: state.DefaultSchemaVersion,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.current = s.initialRecord()
	s.persisted = nil
	return s
}

func (s *Store) initialRecord() state.Record {
	data := s.persisted
	if data == nil && s.backend != nil {
		loaded, err := s.backend.Load(context.Background())
		switch {
		case errors.Is(err, persist.ErrNotFound):
			return state.Genesis(s.schemaVersion)
		case err != nil:
			s.logger.Warn("cannot load persisted record, starting from genesis",
				"backend", s.backend.Describe(), "error", err)
			return state.Genesis(s.schemaVersion)
		}
		data = loaded
	}
	if data == nil {
		return state.Genesis(s.schemaVersion)
	}

	r, err := s.decode(data)
	if err != nil {
		s.logger.Warn("persisted record rejected, starting from genesis", "error", err)
		return state.Genesis(s.schemaVersion)
	}
	s.logger.Debug("loaded persisted record", "turn", r.Turn, "fingerprint", r.Fingerprint)
	return r
}

// Supersede applies deltas to the current fields and installs the result as
// a new record with the next turn. Keys absent from deltas are carried over;
// a Delete of an absent key is a no-op. If any delta is invalid the call
// fails and the current record is untouched. The fingerprint is computed
// in the current record's dialect.
func (s *Store) Supersede(deltas state.Deltas) (state.Record, error) {
	s.mu.Lock()
	if s.current.Turn == math.MaxInt64 {
		turn := s.current.Turn
		s.mu.Unlock()
		return state.Record{}, fmt.Errorf("%w: turn %d", ErrTurnExhausted, turn)
	}
	fields, err := deltas.Apply(s.current.Fields)
	if err != nil {
		s.mu.Unlock()
		return state.Record{}, fmt.Errorf("%w: %w", ErrInvalidDelta, err)
	}
	fingerprint, err := s.current.Dialect.Digest(fields)
	if err != nil {
		s.mu.Unlock()
		return state.Record{}, fmt.Errorf("%w: %w", ErrInvalidDelta, err)
	}
	next := state.Record{
		SchemaVersion: s.current.SchemaVersion,
		Turn:          s.current.Turn + 1,
		Fields:        fields,
		Fingerprint:   fingerprint,
		Dialect:       s.current.Dialect,
	}
	s.current = next
	out := next.Clone()
	s.mu.Unlock()

	s.logger.Debug("superseded", "turn", out.Turn, "fingerprint", out.Fingerprint, "deltas", len(deltas))
	s.writeThrough()
	return out, nil
}

// Record returns a deep copy of the current record.
func (s *Store) Record() state.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Fingerprint returns the current record's fingerprint.
func (s *Store) Fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Fingerprint
}

// Turn returns the current record's turn.
func (s *Store) Turn() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Turn
}

// Export renders the current record as a self-describing document that
// Import on any store accepts unchanged.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return state.EncodeRecord(s.current)
}

// Import replaces the current record with the one in data if it parses
// and verifies. It reports false and leaves the store untouched otherwise.
func (s *Store) Import(data []byte) bool {
	return s.ImportErr(data) == nil
}

// ImportErr is Import returning the rejection reason.
// The error wraps state.ErrMalformedRecord or ErrVerification.
func (s *Store) ImportErr(data []byte) error {
	r, err := s.decode(data)
	if err != nil {
		s.logger.Warn("import rejected", "error", err)
		return err
	}

	s.mu.Lock()
	s.current = r
	s.mu.Unlock()

	s.logger.Info("imported record", "turn", r.Turn, "fingerprint", r.Fingerprint,
		"schema_version", r.SchemaVersion)
	s.writeThrough()
	return nil
}

// decode parses and verifies a record document.
func (s *Store) decode(data []byte) (state.Record, error) {
	r, err := state.ParseRecord(data)
	if err != nil {
		return state.Record{}, err
	}
	if !state.Verify(r) {
		return state.Record{}, fmt.Errorf("%w: turn %d fingerprint %s", ErrVerification, r.Turn, r.Fingerprint)
	}
	return r, nil
}

// writeThrough saves the newest record. It snapshots the record only after
// taking persistMu, so a save that waited behind another still writes the
// latest state rather than the one that triggered it.
func (s *Store) writeThrough() {
	if s.backend == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := s.Export()
	if err != nil {
		s.logger.Error("cannot encode record for persistence", "error", err)
		return
	}
	if err := s.backend.Save(context.Background(), data); err != nil {
		s.logger.Error("write-through failed", "backend", s.backend.Describe(), "error", err)
	}
}
