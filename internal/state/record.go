package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// DefaultSchemaVersion is the schema version stamped on genesis records
// unless the caller configures another one.
const DefaultSchemaVersion = "1.0.0"

// Record is one immutable snapshot of session state.
// Records are replaced wholesale on every transition, never mutated.
type Record struct {
	SchemaVersion string `json:"schemaVersion"`
	Turn          int64  `json:"turn"`
	Fields        Object `json:"fields"`
	Fingerprint   string `json:"fingerprint"`

	// Dialect is the byte form Fingerprint is computed over. Records read
	// from legacy documents keep DialectLegacy and supersede within it.
	Dialect Dialect `json:"-"`
}

// Genesis returns the initial record for the given schema version.
func Genesis(schemaVersion string) Record {
	if schemaVersion == "" {
		schemaVersion = DefaultSchemaVersion
	}
	return Record{
		SchemaVersion: schemaVersion,
		Turn:          0,
		Fields:        Object{},
		Fingerprint:   GenesisFingerprint,
	}
}

// IsGenesis reports whether r carries the genesis sentinel.
func (r Record) IsGenesis() bool {
	return r.Fingerprint == GenesisFingerprint
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.Fields = r.Fields.Clone()
	return r
}

// Delta is a single field instruction: set a value or delete the key.
type Delta struct {
	value  Value
	delete bool
}

// Set returns a delta that sets a key to v.
func Set(v Value) Delta {
	return Delta{value: v}
}

// Delete returns a delta that removes a key. Deleting an absent key is a no-op.
func Delete() Delta {
	return Delta{delete: true}
}

// IsDelete reports whether the delta removes its key.
func (d Delta) IsDelete() bool {
	return d.delete
}

// Value returns the value set by the delta, or nil for Delete.
func (d Delta) Value() Value {
	return d.value
}

// Deltas maps keys to independent instructions. Application order does
// not affect the result.
type Deltas map[string]Delta

// Apply returns a copy of fields with the deltas applied.
// The input is never modified. Values are deep-copied and canonicalized
// so a delta the codec cannot represent fails the whole application.
func (d Deltas) Apply(fields Object) (Object, error) {
	out := fields.Clone()
	for _, k := range slices.Sorted(maps.Keys(d)) {
		delta := d[k]
		if delta.delete {
			delete(out, k)
			continue
		}
		if delta.value == nil {
			return nil, fmt.Errorf("key %q: %w", k, ErrNullValue)
		}
		if _, err := marshalCanonical(delta.value); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = CloneValue(delta.value)
	}
	return out, nil
}

// DeltasFromGo builds deltas from a decoded map. A nil value means Delete.
func DeltasFromGo(m map[string]any) (Deltas, error) {
	out := make(Deltas, len(m))
	for k, raw := range m {
		if raw == nil {
			out[k] = Delete()
			continue
		}
		v, err := FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("delta %q: %w", k, err)
		}
		out[k] = Set(v)
	}
	return out, nil
}

// DeltasFromJSON decodes a JSON object of deltas. A JSON null inside the
// object means Delete; anything other than an object at the top level,
// including null, is an error.
func DeltasFromJSON(data []byte) (Deltas, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode deltas: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode deltas: unexpected data after JSON object")
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: deltas must be a JSON object, got %s", ErrUnsupported, jsonKind(raw))
	}
	return DeltasFromGo(m)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
