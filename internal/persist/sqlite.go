package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/scd/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added snapshots lookup index by session and fingerprint
const currentSchemaVersion = 1

// DB is a SQLite database holding many sessions.
// Uses WAL mode for concurrent read access.
type DB struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Session returns a Backend bound to one session ID.
func (d *DB) Session(id string) *SQLiteBackend {
	return &SQLiteBackend{db: d.db, sessionID: id}
}

// Snapshot is one journal entry of a session.
type Snapshot struct {
	Seq         int64  `json:"seq"`
	Turn        int64  `json:"turn"`
	Fingerprint string `json:"fingerprint"`
	Document    string `json:"-"`
}

// SessionInfo summarizes the current state of a session.
type SessionInfo struct {
	ID            string `json:"id"`
	SchemaVersion string `json:"schema_version"`
	Turn          int64  `json:"turn"`
	Fingerprint   string `json:"fingerprint"`
}

// History returns the snapshots of a session in save order.
// Returns an empty slice (not nil) if the session has no snapshots.
func (d *DB) History(ctx context.Context, sessionID string) ([]Snapshot, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, turn, fingerprint, document
		FROM snapshots
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.Seq, &s.Turn, &s.Fingerprint, &s.Document); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// Sessions lists all sessions ordered by ID.
func (d *DB) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, schema_version, turn, fingerprint
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var s SessionInfo
		if err := rows.Scan(&s.ID, &s.SchemaVersion, &s.Turn, &s.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// SQLiteBackend persists one session's document in a DB.
type SQLiteBackend struct {
	db        *sql.DB
	sessionID string
}

// SessionID returns the bound session ID.
func (b *SQLiteBackend) SessionID() string {
	return b.sessionID
}

// Describe implements Backend.
func (b *SQLiteBackend) Describe() string {
	return "sqlite:" + b.sessionID
}

// Load implements Backend.
func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var document string
	err := b.db.QueryRowContext(ctx, `
		SELECT document FROM sessions WHERE id = ?
	`, b.sessionID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", b.sessionID, err)
	}
	return []byte(document), nil
}

// Save implements Backend. The session row and the journal entry are
// written in one transaction. Saving an already journaled
// (turn, fingerprint) pair leaves the journal unchanged.
func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	rec, err := state.ParseRecord(data)
	if err != nil {
		return fmt.Errorf("save session %s: %w", b.sessionID, err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save session %s: begin tx: %w", b.sessionID, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, schema_version, turn, fingerprint, document)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			turn = excluded.turn,
			fingerprint = excluded.fingerprint,
			document = excluded.document
	`, b.sessionID, rec.SchemaVersion, rec.Turn, rec.Fingerprint, string(data))
	if err != nil {
		return fmt.Errorf("save session %s: upsert: %w", b.sessionID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (session_id, turn, fingerprint, document)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, turn, fingerprint) DO NOTHING
	`, b.sessionID, rec.Turn, rec.Fingerprint, string(data))
	if err != nil {
		return fmt.Errorf("save session %s: journal: %w", b.sessionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save session %s: commit: %w", b.sessionID, err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the fingerprint lookup index used by FindByFingerprint.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint
		ON snapshots(fingerprint, session_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// FindByFingerprint returns the session IDs whose journal contains the
// given fingerprint, ordered by ID. Two parties can use it to locate a
// shared state after a handoff.
func (d *DB) FindByFingerprint(ctx context.Context, fingerprint string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM snapshots
		WHERE fingerprint = ?
		ORDER BY session_id COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session ids: %w", err)
	}
	return ids, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (d *DB) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := d.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
