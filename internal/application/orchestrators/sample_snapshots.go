package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/snapshot"
)

// SnapshotStore defines the rollup persistence needed by the sampler.
type SnapshotStore interface {
	SaveDaily(ctx context.Context, d snapshot.Daily) error
	SaveChallenge(ctx context.Context, c snapshot.TeamChallenge) error
}

// SampleSnapshotsDeps holds dependencies for ExecuteSampleSnapshots.
type SampleSnapshotsDeps struct {
	Roster    RosterStore
	Snapshots SnapshotStore
	Clock     clock.Clock
}

// ExecuteSampleSnapshots writes today's rollup for every group. It only
// reads the roster; healing is applied to the copies it summarises.
// PRE: none
// POST: One daily snapshot per group for today, replacing earlier samples
func ExecuteSampleSnapshots(ctx context.Context, deps SampleSnapshotsDeps) (int, error) {
	groups, err := deps.Roster.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("list groups: %w", err)
	}
	now := deps.Clock.Now()
	today := deps.Clock.Today()
	sampled := 0
	for _, g := range groups {
		athletes, err := deps.Roster.GetGroup(ctx, g)
		if err != nil {
			slog.Error("snapshot_sample_failed", "group", g, "error", err)
			continue
		}
		for i := range athletes {
			athletes[i].Heal(today)
		}
		d := snapshot.Summarize(g, today, athletes, now)
		if err := deps.Snapshots.SaveDaily(ctx, d); err != nil {
			slog.Error("snapshot_sample_failed", "group", g, "error", err)
			continue
		}
		sampled++
	}
	slog.Info("snapshot_event", "event", "daily_sampled", "date", today, "groups", sampled)
	return sampled, nil
}

// CreateChallengeInput carries input for a new team challenge.
type CreateChallengeInput struct {
	Group     string `json:"group"`
	Name      string `json:"name"`
	TargetXP  int    `json:"targetXp"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ExecuteCreateChallenge validates and stores a team challenge.
// PRE: dates are YYYY-MM-DD
// POST: Challenge persisted under a fresh id
func ExecuteCreateChallenge(ctx context.Context, input CreateChallengeInput, deps SampleSnapshotsDeps) (snapshot.TeamChallenge, error) {
	c := snapshot.TeamChallenge{
		ID:        uuid.NewString(),
		Group:     strings.TrimSpace(input.Group),
		Name:      strings.TrimSpace(input.Name),
		TargetXP:  input.TargetXP,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if _, err := clock.DaysBetween(c.StartDate, c.EndDate); err != nil {
		return snapshot.TeamChallenge{}, err
	}
	if err := c.Validate(); err != nil {
		return snapshot.TeamChallenge{}, err
	}
	if err := deps.Snapshots.SaveChallenge(ctx, c); err != nil {
		return snapshot.TeamChallenge{}, fmt.Errorf("save challenge: %w", err)
	}
	slog.Info("snapshot_event", "event", "challenge_created", "challenge_id", c.ID, "group", c.Group, "target_xp", c.TargetXP)
	return c, nil
}
