package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"squadxp/internal/adapters/storage"
	domain "squadxp/internal/domain/snapshot"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new snapshot store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveDaily upserts the rollup for (date, group).
// PRE: d.Group and d.Date are non-empty
// POST: A later sample of the same day replaces the earlier one
func (s *SQLiteStore) SaveDaily(ctx context.Context, d domain.Daily) error {
	if d.Group == "" {
		return domain.ErrEmptyGroup
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode snapshot %s/%s: %w", d.Date, d.Group, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_snapshot (snapshot_date, group_id, payload, sampled_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(snapshot_date, group_id) DO UPDATE SET payload = excluded.payload, sampled_at = excluded.sampled_at`,
		d.Date, d.Group, string(payload), d.SampledAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ListDaily returns a group's rollups between two dates inclusive, oldest first.
// PRE: dates are YYYY-MM-DD; an empty bound is open
// POST: Returns rollups ordered by date
func (s *SQLiteStore) ListDaily(ctx context.Context, group, fromDate, toDate string) ([]domain.Daily, error) {
	query := `SELECT payload FROM daily_snapshot WHERE group_id = ?`
	args := []any{group}
	if fromDate != "" {
		query += " AND snapshot_date >= ?"
		args = append(args, fromDate)
	}
	if toDate != "" {
		query += " AND snapshot_date <= ?"
		args = append(args, toDate)
	}
	query += " ORDER BY snapshot_date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Daily
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d domain.Daily
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveChallenge inserts or updates a challenge.
// PRE: c has been validated
// POST: Challenge is persisted (insert or update)
func (s *SQLiteStore) SaveChallenge(ctx context.Context, c domain.TeamChallenge) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO team_challenge (id, group_id, name, target_xp, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET group_id = excluded.group_id, name = excluded.name,
		   target_xp = excluded.target_xp, start_date = excluded.start_date, end_date = excluded.end_date`,
		c.ID, c.Group, c.Name, c.TargetXP, c.StartDate, c.EndDate)
	return err
}

// GetChallenge retrieves a challenge by id.
// PRE: id is non-empty
// POST: Returns a wrapped sql.ErrNoRows if not found
func (s *SQLiteStore) GetChallenge(ctx context.Context, id string) (domain.TeamChallenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, target_xp, start_date, end_date FROM team_challenge WHERE id = ?`, id)
	var c domain.TeamChallenge
	err := row.Scan(&c.ID, &c.Group, &c.Name, &c.TargetXP, &c.StartDate, &c.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TeamChallenge{}, fmt.Errorf("challenge not found: %w", err)
	}
	return c, err
}

// ListChallenges returns a group's challenges, latest start first.
func (s *SQLiteStore) ListChallenges(ctx context.Context, group string) ([]domain.TeamChallenge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, name, target_xp, start_date, end_date FROM team_challenge WHERE group_id = ? ORDER BY start_date DESC, name`, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TeamChallenge
	for rows.Next() {
		var c domain.TeamChallenge
		if err := rows.Scan(&c.ID, &c.Group, &c.Name, &c.TargetXP, &c.StartDate, &c.EndDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
