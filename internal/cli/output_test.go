package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int64{"turn": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"turn": float64(3)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := VerifyResult{Turn: 2, Fingerprint: "ASHA-256:00"}
	require.NoError(t, formatter.Error(ErrCodeMismatch, "fingerprint does not match fields", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	assert.Equal(t, "fingerprint does not match fields", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error(ErrCodeImportRejected, "import rejected", map[string]string{"path": "x.json"}))
			assert.Contains(t, buf.String(), "Error [E103]: import rejected")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_Result(t *testing.T) {
	text := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: text}
	require.NoError(t, f.Result(map[string]int{"turn": 1}, "Turn: 1\n"))
	assert.Equal(t, "Turn: 1\n", text.String())

	js := &bytes.Buffer{}
	f = &OutputFormatter{Format: "json", Writer: js}
	require.NoError(t, f.Result(map[string]int{"turn": 1}, "Turn: 1\n"))
	assert.JSONEq(t, `{"status":"ok","data":{"turn":1}}`, js.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("Applied %d delta(s)", 2)
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("Applied %d delta(s)", 2)
	assert.Equal(t, "Applied 2 delta(s)\n", errOut.String())
	assert.Empty(t, out.String(), "verbose output must not corrupt JSON on stdout")
	assert.Same(t, errOut, loud.GetErrWriter())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to write export", cause)

	assert.Equal(t, "failed to write export: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Equal(t, "fingerprint mismatch", NewExitError(ExitFailure, "fingerprint mismatch").Error())
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("outer: %w", NewExitError(ExitFailure, "rejected"))))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
}
