package scd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/scd/internal/state"
)

// RenderContext renders the current record as a plain-text block suitable
// for prepending to a model prompt:
//
//	[SCD STATE]
//	Turn: 2
//	Checksum: ASHA-256:...
//	State: {
//	  "key": "value"
//	}
func (s *Store) RenderContext() string {
	return RenderRecord(s.Record())
}

// RenderRecord renders r in the RenderContext format.
func RenderRecord(r state.Record) string {
	fields := r.Fields
	if fields == nil {
		fields = state.Object{}
	}

	var body string
	compact, err := fields.MarshalJSON()
	if err == nil {
		var buf bytes.Buffer
		if err = json.Indent(&buf, compact, "", "  "); err == nil {
			body = buf.String()
		}
	}
	if err != nil {
		body = fmt.Sprintf("<unrenderable: %v>", err)
	}

	var sb strings.Builder
	sb.WriteString("[SCD STATE]\n")
	fmt.Fprintf(&sb, "Turn: %d\n", r.Turn)
	fmt.Fprintf(&sb, "Checksum: %s\n", r.Fingerprint)
	fmt.Fprintf(&sb, "State: %s\n", body)
	return sb.String()
}
