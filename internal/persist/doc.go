// Package persist provides backing stores for exported session records.
//
// Persistence is advisory: the in-memory store is authoritative and a
// failed write never rolls a transition back. Backends only move the
// exported document bytes; they never interpret or repair them, except
// that the SQLite backend indexes turn and fingerprint for its journal.
//
// # Backends
//
//   - FileBackend: one JSON document per file, replaced atomically via
//     write-to-temp and rename
//   - SQLiteBackend: one row per session plus an append-only snapshots
//     journal, opened through DB.Session
//   - MemoryBackend: process-local, for tests and the REPL
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package persist
