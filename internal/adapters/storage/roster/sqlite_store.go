package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"squadxp/internal/adapters/storage"
	domain "squadxp/internal/domain/athlete"
)

// SQLiteStore implements Store using SQLite. Each group is one row whose
// athletes column is a JSON array.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new roster store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListGroups returns every group id in ascending order.
// PRE: none
// POST: Returns group ids, possibly empty
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_id FROM roster_group ORDER BY group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup returns the athletes of a group in roster order.
// PRE: group is non-empty
// POST: Returns an empty slice for an unknown group
func (s *SQLiteStore) GetGroup(ctx context.Context, group string) ([]domain.Athlete, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT athletes FROM roster_group WHERE group_id = ?`, group).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Athlete{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeAthletes(group, payload)
}

// SaveGroup replaces a group's record.
// PRE: every athlete has been validated and belongs to group
// POST: Row is inserted or replaced
func (s *SQLiteStore) SaveGroup(ctx context.Context, group string, athletes []domain.Athlete) error {
	if athletes == nil {
		athletes = []domain.Athlete{}
	}
	payload, err := json.Marshal(athletes)
	if err != nil {
		return fmt.Errorf("encode group %s: %w", group, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO roster_group (group_id, athletes, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(group_id) DO UPDATE SET athletes = excluded.athletes, updated_at = excluded.updated_at`,
		group, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// FindAthlete locates an athlete in any group using the JSON1 table function.
// PRE: id is non-empty
// POST: Returns domain.ErrNotFound when no group holds id
func (s *SQLiteStore) FindAthlete(ctx context.Context, id string) (domain.Athlete, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT a.value FROM roster_group g, json_each(g.athletes) a
		 WHERE json_extract(a.value, '$.id') = ? LIMIT 1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Athlete{}, fmt.Errorf("athlete %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Athlete{}, err
	}
	var a domain.Athlete
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return domain.Athlete{}, fmt.Errorf("decode athlete %s: %w", id, err)
	}
	return a, nil
}

// All returns the full roster keyed by group.
// PRE: none
// POST: Every stored group is present, including empty ones
func (s *SQLiteStore) All(ctx context.Context) (map[string][]domain.Athlete, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_id, athletes FROM roster_group ORDER BY group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Athlete{}
	for rows.Next() {
		var group, payload string
		if err := rows.Scan(&group, &payload); err != nil {
			return nil, err
		}
		athletes, err := decodeAthletes(group, payload)
		if err != nil {
			return nil, err
		}
		out[group] = athletes
	}
	return out, rows.Err()
}

func decodeAthletes(group, payload string) ([]domain.Athlete, error) {
	athletes := []domain.Athlete{}
	if err := json.Unmarshal([]byte(payload), &athletes); err != nil {
		return nil, fmt.Errorf("decode group %s: %w", group, err)
	}
	return athletes, nil
}
