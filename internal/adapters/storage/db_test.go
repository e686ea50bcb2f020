package storage

import (
	"database/sql"
	"sort"
	"testing"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", MemoryPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestMigrateDB_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, MemoryPath); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}

	want := []string{"audit_entry", "daily_snapshot", "live_session", "roster_group", "schema_version", "session_record", "team_challenge"}
	got := getTableNames(t, db)
	if len(got) != len(want) {
		t.Fatalf("tables = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tables[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != LatestSchemaVersion() {
		t.Errorf("SchemaVersion = %d, want %d", v, LatestSchemaVersion())
	}
}

func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 3; i++ {
		if err := MigrateDB(db, MemoryPath); err != nil {
			t.Fatalf("MigrateDB run %d: %v", i, err)
		}
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if n != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", n, len(migrations))
	}
}

func TestMigrateDB_ResumesPartialSchema(t *testing.T) {
	db := openTestDB(t)

	if _, err := SchemaVersion(db); err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if err := apply(db, migrations[0]); err != nil {
		t.Fatalf("apply first migration: %v", err)
	}
	if err := MigrateDB(db, MemoryPath); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != LatestSchemaVersion() {
		t.Errorf("SchemaVersion = %d, want %d", v, LatestSchemaVersion())
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("INSERT INTO roster_group (group_id, updated_at) VALUES ('seniors', 'now')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var payload string
	if err := db.QueryRow("SELECT athletes FROM roster_group WHERE group_id = 'seniors'").Scan(&payload); err != nil {
		t.Fatalf("select: %v", err)
	}
	if payload != "[]" {
		t.Errorf("default athletes = %q, want []", payload)
	}
}

func TestDSN(t *testing.T) {
	if got := DSN(MemoryPath); got != MemoryPath {
		t.Errorf("DSN(memory) = %q", got)
	}
	if got := DSN("squad.db"); got == "squad.db" {
		t.Errorf("DSN(file) should carry pragmas, got %q", got)
	}
}
