package state

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Fingerprint format constants.
// The tag names the algorithm so the digest can migrate without ambiguity.
const (
	AlgoTag            = "ASHA-256"
	GenesisFingerprint = "GENESIS"
)

// Digest computes the tagged fingerprint of a field map:
// "ASHA-256:" + lowercase hex SHA-256 of Canonicalize(fields).
// Returns error if fields cannot be canonically marshaled.
func Digest(fields Object) (string, error) {
	return DialectCanonical.Digest(fields)
}

func tagged(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return AlgoTag + ":" + hex.EncodeToString(sum[:])
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDigest(fields Object) string {
	d, err := Digest(fields)
	if err != nil {
		panic(err)
	}
	return d
}

// Verify reports whether the record's fingerprint matches its fields,
// recomputed in the record's dialect.
//
// The genesis sentinel is only accepted on an empty turn-0 record, so a
// populated record cannot be stamped GENESIS to skip verification.
func Verify(r Record) bool {
	if r.Fingerprint == GenesisFingerprint {
		return r.Turn == 0 && len(r.Fields) == 0
	}
	if !WellFormedFingerprint(r.Fingerprint) {
		return false
	}
	expected, err := r.Dialect.Digest(r.Fields)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(r.Fingerprint)) == 1
}

// WellFormedFingerprint reports whether s has the shape
// "ASHA-256:<64 lowercase hex>" or is the genesis sentinel.
func WellFormedFingerprint(s string) bool {
	if s == GenesisFingerprint {
		return true
	}
	hexPart, ok := strings.CutPrefix(s, AlgoTag+":")
	if !ok || len(hexPart) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(hexPart); i++ {
		c := hexPart[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
