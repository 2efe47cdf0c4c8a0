package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// recordDocument is the wire shape of a record. Current key names and the
// legacy names (version, state, checksum) are both accepted on input.
type recordDocument struct {
	SchemaVersion *string         `json:"schemaVersion"`
	Version       *string         `json:"version"`
	Turn          *json.Number    `json:"turn"`
	Fields        json.RawMessage `json:"fields"`
	State         json.RawMessage `json:"state"`
	Fingerprint   *string         `json:"fingerprint"`
	Checksum      *string         `json:"checksum"`
}

// ParseRecord decodes a record document. It validates the document shape
// but does NOT verify the fingerprint; call Verify for that.
//
// A document whose fingerprint is stored under "checksum" alone was written
// in the legacy dialect and parses with DialectLegacy.
func ParseRecord(data []byte) (Record, error) {
	if err := ValidateDocument(data); err != nil {
		return Record{}, err
	}

	var doc recordDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	schemaVersion, err := pickString("schemaVersion", doc.SchemaVersion, "version", doc.Version)
	if err != nil {
		return Record{}, err
	}
	if schemaVersion == "" {
		schemaVersion = DefaultSchemaVersion
	}

	if doc.Turn == nil {
		return Record{}, fmt.Errorf("%w: turn is required", ErrMalformedRecord)
	}
	turn, err := doc.Turn.Int64()
	if err != nil || turn < 0 {
		return Record{}, fmt.Errorf("%w: turn must be a non-negative integer, got %s", ErrMalformedRecord, doc.Turn.String())
	}

	fields, err := pickFields(doc.Fields, doc.State)
	if err != nil {
		return Record{}, err
	}

	fingerprint, err := pickString("fingerprint", doc.Fingerprint, "checksum", doc.Checksum)
	if err != nil {
		return Record{}, err
	}
	if fingerprint == "" {
		return Record{}, fmt.Errorf("%w: fingerprint is required", ErrMalformedRecord)
	}

	dialect := DialectCanonical
	if doc.Fingerprint == nil {
		dialect = DialectLegacy
	}

	return Record{
		SchemaVersion: schemaVersion,
		Turn:          turn,
		Fields:        fields,
		Fingerprint:   fingerprint,
		Dialect:       dialect,
	}, nil
}

// legacyDocument is the wire shape written for DialectLegacy records, in
// the key order the original tool uses.
type legacyDocument struct {
	Version  string `json:"version"`
	Turn     int64  `json:"turn"`
	State    Object `json:"state"`
	Checksum string `json:"checksum"`
}

// EncodeRecord renders a record as indented JSON with sorted field keys.
// Legacy records are written under the legacy key names so the dialect
// survives the round trip through ParseRecord.
func EncodeRecord(r Record) ([]byte, error) {
	if r.Fields == nil {
		r.Fields = Object{}
	}
	var doc any = r
	if r.Dialect == DialectLegacy {
		doc = legacyDocument{
			Version:  r.SchemaVersion,
			Turn:     r.Turn,
			State:    r.Fields,
			Checksum: r.Fingerprint,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// pickString resolves a value that may appear under either of two names.
// Both present with different values is malformed.
func pickString(name string, primary *string, alias string, legacy *string) (string, error) {
	switch {
	case primary != nil && legacy != nil && *primary != *legacy:
		return "", fmt.Errorf("%w: %s and %s disagree", ErrMalformedRecord, name, alias)
	case primary != nil:
		return *primary, nil
	case legacy != nil:
		return *legacy, nil
	default:
		return "", nil
	}
}

func pickFields(fields, legacy json.RawMessage) (Object, error) {
	raw := fields
	if len(raw) == 0 {
		raw = legacy
	} else if len(legacy) > 0 && !bytes.Equal(bytes.TrimSpace(fields), bytes.TrimSpace(legacy)) {
		return nil, fmt.Errorf("%w: fields and state disagree", ErrMalformedRecord)
	}
	if len(raw) == 0 {
		return Object{}, nil
	}

	v, err := UnmarshalValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: fields: %v", ErrMalformedRecord, err)
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: fields must be an object", ErrMalformedRecord)
	}
	return obj, nil
}
