package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"squadxp/internal/adapters/storage"
	domain "squadxp/internal/domain/audit"
)

const timeLayout = time.RFC3339Nano

const entryColumns = `id, timestamp, actor, athlete_id, athlete_name, group_id, category, kind, action, xp_delta`

// SQLiteStore implements the audit Store interface using SQLite.
// Insertion order (seq) defines newest-first, not the timestamp.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit entry store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append persists an entry and evicts the oldest beyond max.
// PRE: max > 0
// POST: Insert and trim commit together
func (s *SQLiteStore) Append(ctx context.Context, entry domain.Entry, max int) error {
	if max <= 0 {
		max = domain.DefaultMaxEntries
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_entry (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(timeLayout), entry.Actor, entry.AthleteID, entry.AthleteName,
		entry.Group, string(entry.Category), string(entry.Kind), entry.Action, entry.XPDelta); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM audit_entry WHERE seq NOT IN (SELECT seq FROM audit_entry ORDER BY seq DESC LIMIT ?)`, max); err != nil {
		return fmt.Errorf("trim audit log: %w", err)
	}
	return tx.Commit()
}

// Latest returns the newest entry.
// PRE: none
// POST: Returns a wrapped sql.ErrNoRows when the log is empty
func (s *SQLiteStore) Latest(ctx context.Context) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM audit_entry ORDER BY seq DESC LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("audit log empty: %w", err)
	}
	return e, err
}

// Delete removes one entry.
// PRE: id is non-empty
// POST: No entry with id remains
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audit_entry WHERE id = ?`, id)
	return err
}

// List returns entries newest first with optional filtering.
// PRE: limit > 0
// POST: At most limit entries
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entry WHERE 1=1`
	args := []any{}

	if filter.Group != "" {
		query += " AND group_id = ?"
		args = append(args, filter.Group)
	}
	if filter.AthleteID != "" {
		query += " AND athlete_id = ?"
		args = append(args, filter.AthleteID)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}

	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry
	var timestamp string
	err := row.Scan(&e.ID, &timestamp, &e.Actor, &e.AthleteID, &e.AthleteName, &e.Group, &e.Category, &e.Kind, &e.Action, &e.XPDelta)
	if err != nil {
		return domain.Entry{}, err
	}
	e.Timestamp, _ = time.Parse(timeLayout, timestamp)
	return e, nil
}
