// Package state provides the session state data model and its fingerprint
// codec.
//
// This package contains the value model, deltas, the immutable Record, and
// the canonicalization and digest functions that make two holders of the same
// logical state agree on its fingerprint. It imports nothing internal.
//
// Key design constraints:
//   - Values are a closed set: String, Int, Float, Bool, Array, Object
//   - No storable null; null in a delta means Delete
//   - Object key order never affects the fingerprint
//   - Canonical form sorts keys by UTF-8 bytes at every nesting level
package state
