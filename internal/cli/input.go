package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/scd/internal/state"
)

// normalizeKey puts a key typed at the terminal into NFC, so the same key
// entered with composed or decomposed accents lands on one field.
// Keys arriving in documents are never rewritten.
func normalizeKey(key string) string {
	return norm.NFC.String(key)
}

// parseAssignment parses a --set argument of the form key=value.
// The value is read as JSON when it parses, otherwise as a plain string.
// A JSON null deletes the key.
func parseAssignment(arg string) (string, state.Delta, error) {
	key, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return "", state.Delta{}, fmt.Errorf("invalid assignment %q: expected key=value", arg)
	}
	key = normalizeKey(strings.TrimSpace(key))
	if key == "" {
		return "", state.Delta{}, fmt.Errorf("invalid assignment %q: empty key", arg)
	}
	if strings.TrimSpace(raw) == "null" {
		return key, state.Delete(), nil
	}
	if v, err := state.UnmarshalValue([]byte(raw)); err == nil {
		return key, state.Set(v), nil
	}
	return key, state.Set(state.String(raw)), nil
}

// readInput reads a whole file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
