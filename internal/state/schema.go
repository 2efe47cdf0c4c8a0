package state

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed record.cue
var recordSchemaSrc string

// recordSchema holds the compiled #Record definition.
// cue values are not safe for concurrent evaluation, so validation is
// serialized through mu.
var recordSchema struct {
	once sync.Once
	mu   sync.Mutex
	def  cue.Value
	err  error
}

func loadRecordSchema() (cue.Value, error) {
	recordSchema.once.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(recordSchemaSrc, cue.Filename("record.cue"))
		if err := v.Err(); err != nil {
			recordSchema.err = fmt.Errorf("compile record schema: %w", err)
			return
		}
		def := v.LookupPath(cue.ParsePath("#Record"))
		if !def.Exists() {
			recordSchema.err = fmt.Errorf("record schema: #Record not defined")
			return
		}
		recordSchema.def = def
	})
	return recordSchema.def, recordSchema.err
}

// ValidateDocument checks the structural shape of a record document
// against the embedded CUE schema. It does not verify the fingerprint.
func ValidateDocument(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty document", ErrMalformedRecord)
	}
	def, err := loadRecordSchema()
	if err != nil {
		return err
	}

	recordSchema.mu.Lock()
	defer recordSchema.mu.Unlock()

	if err := cuejson.Validate(data, def); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}
