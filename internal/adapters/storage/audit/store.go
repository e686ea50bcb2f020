package audit

import (
	"context"

	domain "squadxp/internal/domain/audit"
)

// Store defines the interface for audit entry persistence.
type Store interface {
	// Append persists an entry and evicts the oldest beyond max.
	// PRE: max > 0
	// POST: At most max entries remain
	Append(ctx context.Context, entry domain.Entry, max int) error

	// Latest returns the newest entry.
	// POST: Returns a wrapped sql.ErrNoRows when the log is empty
	Latest(ctx context.Context) (domain.Entry, error)

	// Delete removes one entry.
	// PRE: id is non-empty
	Delete(ctx context.Context, id string) error

	// List returns entries newest first.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Entry, error)
}

// Filter defines query parameters for listing audit entries.
type Filter struct {
	Group     string
	AthleteID string
	Kind      domain.Kind
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
