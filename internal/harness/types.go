package harness

import (
	"errors"

	"github.com/roach88/scd/internal/scd"
	"github.com/roach88/scd/internal/state"
)

// Error codes recorded in the trace for failed steps.
const (
	CodeInvalidDelta = "invalid_delta"
	CodeMalformed    = "malformed"
	CodeVerification = "verification"
	CodeExhausted    = "turn_exhausted"
	CodeUnknownSlot  = "unknown_slot"
	CodeOther        = "error"
)

func validErrorCode(code string) bool {
	switch code {
	case CodeInvalidDelta, CodeMalformed, CodeVerification, CodeExhausted:
		return true
	}
	return false
}

// ErrorCode maps a store error to a stable trace code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, scd.ErrInvalidDelta):
		return CodeInvalidDelta
	case errors.Is(err, state.ErrMalformedRecord):
		return CodeMalformed
	case errors.Is(err, scd.ErrVerification):
		return CodeVerification
	case errors.Is(err, scd.ErrTurnExhausted):
		return CodeExhausted
	case errors.Is(err, errUnknownSlot):
		return CodeUnknownSlot
	default:
		return CodeOther
	}
}

// TraceEvent records one executed step and the store state after it.
type TraceEvent struct {
	Step        int          `json:"step"`
	Store       string       `json:"store"`
	Session     string       `json:"session"`
	Op          string       `json:"op"`
	Turn        int64        `json:"turn"`
	Fingerprint string       `json:"fingerprint"`
	Fields      state.Object `json:"fields"`
	Accepted    *bool        `json:"accepted,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stores holds the final record of every store by name.
	Stores map[string]state.Record `json:"stores,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Stores: make(map[string]state.Record),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
