package projections

import (
	"context"
	"fmt"

	"squadxp/internal/domain/snapshot"
)

// TeamChallengeDeps holds dependencies for the challenge projections.
type TeamChallengeDeps struct {
	Snapshots SnapshotReader
}

// QueryTeamChallenge returns one challenge with its progress.
// PRE: id is non-empty
// POST: Progress counts only snapshots of the challenge group inside its window
func QueryTeamChallenge(ctx context.Context, id string, deps TeamChallengeDeps) (snapshot.Progress, error) {
	c, err := deps.Snapshots.GetChallenge(ctx, id)
	if err != nil {
		return snapshot.Progress{}, err
	}
	return challengeProgress(ctx, c, deps)
}

// QueryGroupChallenges returns every challenge of a group with progress, latest start first.
func QueryGroupChallenges(ctx context.Context, group string, deps TeamChallengeDeps) ([]snapshot.Progress, error) {
	challenges, err := deps.Snapshots.ListChallenges(ctx, group)
	if err != nil {
		return nil, err
	}
	out := make([]snapshot.Progress, 0, len(challenges))
	for _, c := range challenges {
		p, err := challengeProgress(ctx, c, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func challengeProgress(ctx context.Context, c snapshot.TeamChallenge, deps TeamChallengeDeps) (snapshot.Progress, error) {
	snaps, err := deps.Snapshots.ListDaily(ctx, c.Group, c.StartDate, c.EndDate)
	if err != nil {
		return snapshot.Progress{}, fmt.Errorf("load snapshots for challenge %s: %w", c.ID, err)
	}
	return c.Progress(snaps), nil
}
