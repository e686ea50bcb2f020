package session

import (
	"context"

	domain "squadxp/internal/domain/session"
)

// LiveStore persists the in-progress bookkeeping of each group.
type LiveStore interface {
	// GetLive returns the group's live state.
	// POST: Returns an idle state with an empty SessionID when none is stored
	GetLive(ctx context.Context, group string) (domain.LiveState, error)

	// SaveLive writes the group's live state.
	// PRE: state has been validated
	SaveLive(ctx context.Context, state domain.LiveState) error

	// ListLive returns every stored live state, idle ones included.
	ListLive(ctx context.Context) ([]domain.LiveState, error)
}

// RecordStore persists archived practice snapshots.
type RecordStore interface {
	// SaveRecord writes a record keyed by its slot.
	// POST: An existing record for the same slot is replaced
	SaveRecord(ctx context.Context, record domain.Record) error

	// GetRecord returns the record archived for a slot key.
	GetRecord(ctx context.Context, slotKey string) (domain.Record, error)

	// ListRecords returns records newest first.
	ListRecords(ctx context.Context, filter RecordFilter) ([]domain.Record, error)
}

// RecordFilter carries filtering parameters for ListRecords.
type RecordFilter struct {
	Group    string
	FromDate string // inclusive, YYYY-MM-DD
	ToDate   string // inclusive, YYYY-MM-DD
	Limit    int
}

// Ensure SQLiteStore implements both interfaces.
var (
	_ LiveStore   = (*SQLiteStore)(nil)
	_ RecordStore = (*SQLiteStore)(nil)
)
