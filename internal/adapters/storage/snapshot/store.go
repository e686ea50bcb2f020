package snapshot

import (
	"context"

	domain "squadxp/internal/domain/snapshot"
)

// Store persists daily rollups and team challenges.
type Store interface {
	// SaveDaily upserts the rollup for (date, group).
	SaveDaily(ctx context.Context, d domain.Daily) error

	// ListDaily returns a group's rollups between two dates inclusive, oldest first.
	ListDaily(ctx context.Context, group, fromDate, toDate string) ([]domain.Daily, error)

	// SaveChallenge inserts or updates a challenge.
	// PRE: c has been validated
	SaveChallenge(ctx context.Context, c domain.TeamChallenge) error

	// GetChallenge retrieves a challenge by id.
	GetChallenge(ctx context.Context, id string) (domain.TeamChallenge, error)

	// ListChallenges returns a group's challenges, latest start first.
	ListChallenges(ctx context.Context, group string) ([]domain.TeamChallenge, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
