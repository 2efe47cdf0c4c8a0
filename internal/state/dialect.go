package state

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Dialect selects the byte form a record's fingerprint is computed over.
// Both dialects use the same tag and hash; only the canonical bytes differ.
type Dialect int

const (
	// DialectCanonical is compact canonical JSON (see Canonicalize).
	DialectCanonical Dialect = iota

	// DialectLegacy is the form written by the original SCD tool: the
	// output of Python's json.dumps(fields, sort_keys=True), with ", " and
	// ": " separators, non-ASCII escaped as \uXXXX and Python float repr.
	// Documents using the version/state/checksum key names carry it.
	DialectLegacy
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectCanonical:
		return "canonical"
	case DialectLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Canonicalize renders fields in the dialect's byte form.
func (d Dialect) Canonicalize(fields Object) ([]byte, error) {
	switch d {
	case DialectCanonical:
		return Canonicalize(fields)
	case DialectLegacy:
		return CanonicalizeLegacy(fields)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, d)
	}
}

// Digest computes the tagged fingerprint of fields in the dialect's form.
func (d Dialect) Digest(fields Object) (string, error) {
	canonical, err := d.Canonicalize(fields)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return tagged(canonical), nil
}

// CanonicalizeLegacy renders fields exactly as Python's
// json.dumps(fields, sort_keys=True) does, so fingerprints agree with
// records produced by the original tool.
//
// Keys sort by code point, which equals UTF-8 byte order. Integers beyond
// int64 decode as Float and therefore do not match Python's int form.
func CanonicalizeLegacy(fields Object) ([]byte, error) {
	if fields == nil {
		fields = Object{}
	}
	var buf bytes.Buffer
	if err := writeLegacy(&buf, fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeLegacy(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return ErrNullValue
	case String:
		return writeLegacyString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case Float:
		s, err := formatPythonFloat(float64(val))
		if err != nil {
			return err
		}
		buf.WriteString(s)
		return nil
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
		return nil
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := writeLegacy(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := writeLegacyString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteString(": ")
			if err := writeLegacy(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// writeLegacyString escapes like Python's ensure_ascii encoder: printable
// ASCII is literal, everything else is \uXXXX with lowercase hex and
// surrogate pairs above the BMP.
func writeLegacyString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 in %q", ErrUnsupported, s)
	}
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r >= 0x20 && r <= 0x7e:
			buf.WriteByte(byte(r))
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			writeUnicodeEscape(buf, hi)
			writeUnicodeEscape(buf, lo)
		default:
			writeUnicodeEscape(buf, r)
		}
	}
	buf.WriteByte('"')
	return nil
}

func writeUnicodeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[r>>12&0xF])
	buf.WriteByte(hexDigits[r>>8&0xF])
	buf.WriteByte(hexDigits[r>>4&0xF])
	buf.WriteByte(hexDigits[r&0xF])
}

// formatPythonFloat renders f like Python's repr(float): shortest
// round-trip digits, plain notation with a trailing ".0" when the decimal
// exponent is in [-4, 16), exponent notation with at least two exponent
// digits otherwise.
func formatPythonFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrNonFinite, f)
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0", nil
		}
		return "0.0", nil
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if err != nil {
		return "", fmt.Errorf("format float %v: %w", f, err)
	}
	if exp < -4 || exp >= 16 {
		return sci, nil
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}
