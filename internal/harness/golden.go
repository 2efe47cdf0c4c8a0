package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scd/internal/state"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// It is serialized with the canonical codec for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// canonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) canonical() ([]byte, error) {
	trace := make(state.Array, len(s.Trace))
	for i, event := range s.Trace {
		fields := event.Fields
		if fields == nil {
			fields = state.Object{}
		}
		entry := state.Object{
			"step":        state.Int(event.Step),
			"store":       state.String(event.Store),
			"session":     state.String(event.Session),
			"op":          state.String(event.Op),
			"turn":        state.Int(event.Turn),
			"fingerprint": state.String(event.Fingerprint),
			"fields":      fields,
		}
		if event.Accepted != nil {
			entry["accepted"] = state.Bool(*event.Accepted)
		}
		if event.Error != "" {
			entry["error"] = state.String(event.Error)
		}
		trace[i] = entry
	}

	data, err := state.Canonicalize(state.Object{
		"scenario_name": state.String(s.ScenarioName),
		"trace":         trace,
	})
	if err != nil {
		return nil, fmt.Errorf("canonicalize trace: %w", err)
	}
	return data, nil
}

// GoldenBytes renders the golden file content for a result.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return snapshot.canonical()
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
