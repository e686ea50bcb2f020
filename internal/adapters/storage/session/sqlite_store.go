package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"squadxp/internal/adapters/storage"
	domain "squadxp/internal/domain/session"
)

// DefaultListLimit bounds ListRecords when the filter sets no limit.
const DefaultListLimit = 100

// SQLiteStore implements LiveStore and RecordStore using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetLive returns the group's live state.
// PRE: group is non-empty
// POST: Returns an idle state with an empty SessionID when none is stored
func (s *SQLiteStore) GetLive(ctx context.Context, group string) (domain.LiveState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM live_session WHERE group_id = ?`, group).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewLiveState(group, ""), nil
	}
	if err != nil {
		return domain.LiveState{}, err
	}
	var state domain.LiveState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return domain.LiveState{}, fmt.Errorf("decode live state %s: %w", group, err)
	}
	return state, nil
}

// SaveLive writes the group's live state.
// PRE: state has been validated
// POST: Row is inserted or replaced
func (s *SQLiteStore) SaveLive(ctx context.Context, state domain.LiveState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode live state %s: %w", state.Group, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO live_session (group_id, session_id, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(group_id) DO UPDATE SET session_id = excluded.session_id, payload = excluded.payload, updated_at = excluded.updated_at`,
		state.Group, state.SessionID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// ListLive returns every stored live state ordered by group.
func (s *SQLiteStore) ListLive(ctx context.Context) ([]domain.LiveState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM live_session ORDER BY group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.LiveState
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var state domain.LiveState
		if err := json.Unmarshal([]byte(payload), &state); err != nil {
			return nil, fmt.Errorf("decode live state: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// SaveRecord writes a record keyed by its slot.
// PRE: record was produced by domain.Build
// POST: An existing record for the same slot is replaced
func (s *SQLiteStore) SaveRecord(ctx context.Context, record domain.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.Slot, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_record (slot_key, id, slot_date, group_id, time_of_day, mode, started_at, ended_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot_key) DO UPDATE SET id = excluded.id, mode = excluded.mode,
		   started_at = excluded.started_at, ended_at = excluded.ended_at, payload = excluded.payload`,
		record.Slot.String(), record.ID, record.Slot.Date, record.Slot.Group, string(record.Slot.TimeOfDay),
		string(record.Mode), record.StartedAt.UTC().Format(time.RFC3339Nano), record.EndedAt.UTC().Format(time.RFC3339Nano),
		string(payload))
	return err
}

// GetRecord returns the record archived for a slot key.
// PRE: slotKey is in date|group|AM form
// POST: Returns a wrapped sql.ErrNoRows when nothing was archived
func (s *SQLiteStore) GetRecord(ctx context.Context, slotKey string) (domain.Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM session_record WHERE slot_key = ?`, slotKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("session record not found: %w", err)
	}
	if err != nil {
		return domain.Record{}, err
	}
	return decodeRecord(payload)
}

// ListRecords returns records newest first.
// PRE: none
// POST: At most filter.Limit records (DefaultListLimit when unset)
func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]domain.Record, error) {
	query := `SELECT payload FROM session_record WHERE 1=1`
	args := []any{}
	if filter.Group != "" {
		query += " AND group_id = ?"
		args = append(args, filter.Group)
	}
	if filter.FromDate != "" {
		query += " AND slot_date >= ?"
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		query += " AND slot_date <= ?"
		args = append(args, filter.ToDate)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY slot_date DESC, started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		r, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func decodeRecord(payload string) (domain.Record, error) {
	var r domain.Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return domain.Record{}, fmt.Errorf("decode session record: %w", err)
	}
	return r, nil
}
