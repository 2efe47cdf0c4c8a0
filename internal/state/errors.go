package state

import "errors"

var (
	// ErrNullValue is returned when null appears where a storable value is
	// required. Null is only meaningful as a deletion instruction in a delta.
	ErrNullValue = errors.New("null is not a storable value")

	// ErrNonFinite is returned for NaN or infinite floats, which have no
	// canonical JSON form.
	ErrNonFinite = errors.New("non-finite number")

	// ErrUnsupported is returned for Go types outside the value model.
	ErrUnsupported = errors.New("unsupported value type")

	// ErrMalformedRecord is returned when a record document cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record document")
)
