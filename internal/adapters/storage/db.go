package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order; never edit a released step, add a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "roster_and_sessions",
		sql: `
	CREATE TABLE IF NOT EXISTS roster_group (
		group_id TEXT PRIMARY KEY,
		athletes TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS live_session (
		group_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_record (
		slot_key TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		slot_date TEXT NOT NULL,
		group_id TEXT NOT NULL,
		time_of_day TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_record_group_date ON session_record(group_id, slot_date);

	CREATE TABLE IF NOT EXISTS audit_entry (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		actor TEXT NOT NULL,
		athlete_id TEXT NOT NULL DEFAULT '',
		athlete_name TEXT NOT NULL DEFAULT '',
		group_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		action TEXT NOT NULL,
		xp_delta INTEGER NOT NULL DEFAULT 0
	);`,
	},
	{
		version: 2,
		name:    "rollups",
		sql: `
	CREATE TABLE IF NOT EXISTS daily_snapshot (
		snapshot_date TEXT NOT NULL,
		group_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		sampled_at TEXT NOT NULL,
		PRIMARY KEY (snapshot_date, group_id)
	);

	CREATE TABLE IF NOT EXISTS team_challenge (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		target_xp INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);`,
	},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion reads the applied schema version (0 for a fresh database).
// PRE: db is a valid connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL, name TEXT NOT NULL, applied_at TEXT NOT NULL DEFAULT (datetime('now')))`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid SQLite connection
// POST: Schema is at LatestSchemaVersion
func MigrateDB(db *sql.DB, dbPath string) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "db", dbPath, "version", m.version, "name", m.name)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range strings.Split(m.sql, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DSN builds the modernc.org/sqlite connection string with WAL and a busy
// timeout. In-memory databases take no pragmas.
func DSN(path string) string {
	if path == MemoryPath {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// Open opens and migrates the database at path.
// PRE: path is a file path or MemoryPath
// POST: Returns a connection whose schema is at LatestSchemaVersion
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Each connection to :memory: is a separate database, and SQLite allows
	// one writer anyway.
	db.SetMaxOpenConns(1)
	if err := MigrateDB(db, path); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
