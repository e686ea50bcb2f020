package roster

import (
	"context"

	domain "squadxp/internal/domain/athlete"
)

// Store persists the roster, one record per group.
type Store interface {
	// ListGroups returns every group id in ascending order.
	ListGroups(ctx context.Context) ([]string, error)

	// GetGroup returns the athletes of a group in roster order.
	// POST: Returns an empty slice for an unknown group
	GetGroup(ctx context.Context, group string) ([]domain.Athlete, error)

	// SaveGroup replaces a group's record.
	// PRE: every athlete has been validated and belongs to group
	// POST: The whole group is written in one statement
	SaveGroup(ctx context.Context, group string, athletes []domain.Athlete) error

	// FindAthlete locates an athlete in any group.
	// POST: Returns domain.ErrNotFound when no group holds id
	FindAthlete(ctx context.Context, id string) (domain.Athlete, error)

	// All returns the full roster keyed by group.
	All(ctx context.Context) (map[string][]domain.Athlete, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
