package scd

import "errors"

var (
	// ErrInvalidDelta is returned by Supersede when a delta carries a value
	// the fingerprint codec cannot represent. The store is left unchanged.
	ErrInvalidDelta = errors.New("invalid delta")

	// ErrVerification is returned by ImportErr when a well-formed document's
	// fingerprint does not match its fields.
	ErrVerification = errors.New("fingerprint verification failed")

	// ErrTurnExhausted is returned by Supersede when the current turn is
	// already the largest representable one. The store is left unchanged.
	ErrTurnExhausted = errors.New("turn counter exhausted")
)
