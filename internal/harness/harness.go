package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/scd/internal/persist"
	"github.com/roach88/scd/internal/scd"
	"github.com/roach88/scd/internal/state"
	"github.com/roach88/scd/internal/testutil"
)

var errUnknownSlot = errors.New("unknown export slot")

// Harness is the scenario execution engine.
// It runs scenarios with deterministic session IDs against a private
// in-memory database.
type Harness struct {
	db            *persist.DB
	sessions      *testutil.SequenceSessionGenerator
	logger        *slog.Logger
	schemaVersion string

	stores map[string]*storeHandle
	slots  map[string][]byte
}

type storeHandle struct {
	name    string
	backend *persist.SQLiteBackend
	store   *scd.Store
}

// Run executes a test scenario and returns the result.
// Each scenario runs in a fresh in-memory database for isolation.
// Logs are discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with a caller-supplied logger handed to every store.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Execute steps in order, creating stores on first use
// 3. Check step expectations after each step
// 4. Evaluate scenario assertions
// 5. Return result with pass/fail, trace, and errors
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	db, err := persist.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer db.Close()

	h := &Harness{
		db:            db,
		sessions:      testutil.NewSequenceSessionGenerator(scenario.Name),
		logger:        logger,
		schemaVersion: scenario.SchemaVersion,
		stores:        make(map[string]*storeHandle),
		slots:         make(map[string][]byte),
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	env, err := h.environment(ctx)
	if err != nil {
		return nil, err
	}
	for _, msg := range checkAll("assertions", scenario.Assertions, env) {
		result.AddError(msg)
	}

	for name, handle := range h.stores {
		result.Stores[name] = handle.store.Record()
	}
	return result, nil
}

// executeStep runs one step, appends its trace event and checks its
// expectations. Expectation failures are recorded on result; only
// infrastructure failures are returned.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	handle := h.store(step.storeName())
	event := TraceEvent{
		Step:    index,
		Store:   handle.name,
		Session: handle.backend.SessionID(),
		Op:      step.Op(),
	}

	var stepErr error
	switch event.Op {
	case OpSupersede:
		stepErr = h.supersede(handle, step)
		event.Error = ErrorCode(stepErr)
		if step.ExpectError != event.Error {
			result.AddError(fmt.Sprintf("steps[%d]: supersede error = %q, expected %q (%v)",
				index, event.Error, step.ExpectError, stepErr))
		}

	case OpExport:
		data, err := handle.store.Export()
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		h.slots[step.Export] = data

	case OpImport:
		stepErr = h.importStep(handle, step)
		accepted := stepErr == nil
		event.Accepted = &accepted
		event.Error = ErrorCode(stepErr)
		if step.ExpectImport != nil && *step.ExpectImport != accepted {
			result.AddError(fmt.Sprintf("steps[%d]: import accepted = %t, expected %t (%v)",
				index, accepted, *step.ExpectImport, stepErr))
		}

	case OpReload:
		handle.store = h.newStore(handle.backend)
	}

	r := handle.store.Record()
	event.Turn = r.Turn
	event.Fingerprint = r.Fingerprint
	event.Fields = r.Fields
	result.Trace = append(result.Trace, event)

	if len(step.Expect) == 0 {
		return nil
	}
	env, err := h.environment(ctx)
	if err != nil {
		return err
	}
	current, err := h.storeEnv(ctx, handle)
	if err != nil {
		return err
	}
	for k, v := range current {
		env[k] = v
	}
	env["accepted"] = event.Accepted != nil && *event.Accepted
	env["error"] = event.Error

	for _, msg := range checkAll(fmt.Sprintf("steps[%d].expect", index), step.Expect, env) {
		result.AddError(msg)
	}
	return nil
}

func (h *Harness) supersede(handle *storeHandle, step Step) error {
	deltas, err := state.DeltasFromGo(step.Supersede)
	if err != nil {
		return fmt.Errorf("%w: %w", scd.ErrInvalidDelta, err)
	}
	_, err = handle.store.Supersede(deltas)
	return err
}

func (h *Harness) importStep(handle *storeHandle, step Step) error {
	data := []byte(step.ImportDocument)
	if step.Import != "" {
		slot, ok := h.slots[step.Import]
		if !ok {
			return fmt.Errorf("%w: %q", errUnknownSlot, step.Import)
		}
		data = slot
	}
	return handle.store.ImportErr(data)
}

// store returns the named store, creating it on first use with a new session.
func (h *Harness) store(name string) *storeHandle {
	if handle, ok := h.stores[name]; ok {
		return handle
	}
	backend := h.db.Session(h.sessions.Generate())
	handle := &storeHandle{
		name:    name,
		backend: backend,
		store:   h.newStore(backend),
	}
	h.stores[name] = handle
	return handle
}

func (h *Harness) newStore(backend persist.Backend) *scd.Store {
	return scd.New(
		scd.WithBackend(backend),
		scd.WithLogger(h.logger),
		scd.WithSchemaVersion(h.schemaVersion),
	)
}

// environment builds the expression environment shared by every check.
func (h *Harness) environment(ctx context.Context) (map[string]any, error) {
	names := make([]string, 0, len(h.stores))
	for name := range h.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	stores := make(map[string]any, len(names))
	for _, name := range names {
		env, err := h.storeEnv(ctx, h.stores[name])
		if err != nil {
			return nil, err
		}
		stores[name] = env
	}
	return map[string]any{"stores": stores}, nil
}

func (h *Harness) storeEnv(ctx context.Context, handle *storeHandle) (map[string]any, error) {
	history, err := h.db.History(ctx, handle.backend.SessionID())
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", handle.name, err)
	}
	r := handle.store.Record()
	return map[string]any{
		"turn":           r.Turn,
		"fingerprint":    r.Fingerprint,
		"fields":         state.ToGo(r.Fields),
		"schema_version": r.SchemaVersion,
		"context":        scd.RenderRecord(r),
		"history":        len(history),
		"verified":       state.Verify(r),
	}, nil
}
