package testutil

import (
	"testing"

	"github.com/roach88/scd/internal/state"
)

// RecordDocument returns the exported document of a valid record with the
// given turn and fields. A turn of 0 with no fields yields genesis.
func RecordDocument(t testing.TB, turn int64, fields state.Object) []byte {
	t.Helper()

	r := state.Genesis("")
	if turn != 0 || len(fields) != 0 {
		digest, err := state.Digest(fields)
		if err != nil {
			t.Fatalf("digest fields: %v", err)
		}
		r = state.Record{
			SchemaVersion: state.DefaultSchemaVersion,
			Turn:          turn,
			Fields:        fields,
			Fingerprint:   digest,
		}
	}

	data, err := state.EncodeRecord(r)
	if err != nil {
		t.Fatalf("encode record: %v", err)
	}
	return data
}
