// Package scd holds the session state store.
//
// A Store owns exactly one current record. The only mutation is Supersede,
// which merges field deltas into a fresh record with the next turn number
// and a recomputed fingerprint. Records move between holders through
// Export and Import; Import verifies the fingerprint before trusting
// anything.
//
// Thread-safety model:
//   - Supersede, Record, Export and Import are mutually exclusive on the
//     current record.
//   - Write-through to the backend happens after the record is installed,
//     outside that critical section, and always writes the newest record.
//   - A failed write is logged and never rolls the store back.
package scd
