package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/ledger"
	"squadxp/internal/domain/level"
)

// UndoResult reports what an undo removed.
type UndoResult struct {
	Entry    audit.Entry      `json:"entry"`
	Removed  bool             `json:"removed"`  // an entry was popped
	Reversed int              `json:"reversed"` // XP subtracted
	Athlete  *athlete.Athlete `json:"athlete,omitempty"`
}

// ExecuteUndoLastAction pops the newest audit entry and, if its delta is
// positive, subtracts that exact delta from the athlete.
// PRE: none
// POST: The newest entry is gone, deleted only after its XP was reversed.
// Zero or negative deltas were reversals
// already applied at toggle time and leave XP untouched. Checkpoint and
// presence flags are not changed.
func ExecuteUndoLastAction(ctx context.Context, deps EngineDeps) (UndoResult, error) {
	defer deps.lock()()

	entry, err := deps.Audit.Latest(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return UndoResult{}, nil
	}
	if err != nil {
		return UndoResult{}, fmt.Errorf("load latest audit entry: %w", err)
	}
	res := UndoResult{Entry: entry}
	now := deps.Clock.Now()

	if entry.Reversible() {
		reversed, a, err := reverseEntry(ctx, deps, entry)
		if err != nil {
			return UndoResult{}, err
		}
		res.Reversed = reversed
		res.Athlete = a
	}
	// Last, so a failed reversal leaves the entry in place for a retry.
	if err := deps.Audit.Delete(ctx, entry.ID); err != nil {
		return res, fmt.Errorf("delete audit entry: %w", err)
	}
	res.Removed = true

	slog.Info("xp_event", "event", "undo", "entry_id", entry.ID, "athlete_id", entry.AthleteID,
		"entry_delta", entry.XPDelta, "reversed", res.Reversed)
	publishAudit(ctx, deps, now)
	return res, nil
}

// reverseEntry subtracts a positive entry's delta from its athlete.
// POST: Returns nil athlete when the athlete no longer exists
func reverseEntry(ctx context.Context, deps EngineDeps, entry audit.Entry) (int, *athlete.Athlete, error) {
	found, err := deps.Roster.FindAthlete(ctx, entry.AthleteID)
	if errors.Is(err, athlete.ErrNotFound) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("find athlete: %w", err)
	}
	athletes, err := deps.Roster.GetGroup(ctx, found.Group)
	if err != nil {
		return 0, nil, fmt.Errorf("load group %s: %w", found.Group, err)
	}
	idx := indexOf(athletes, entry.AthleteID)
	if idx < 0 {
		return 0, nil, nil
	}
	today := deps.Clock.Today()
	a := &athletes[idx]
	a.Heal(today)
	before := level.ForXP(a.XP)
	reversed := ledger.Subtract(a, entry.XPDelta, entry.Category, today)

	if err := deps.Roster.SaveGroup(ctx, found.Group, athletes); err != nil {
		return 0, nil, fmt.Errorf("save group %s: %w", found.Group, err)
	}
	live, err := deps.Live.GetLive(ctx, found.Group)
	if err != nil {
		return 0, nil, fmt.Errorf("load live session %s: %w", found.Group, err)
	}
	if live.IsLive() {
		live.Credit(a.ID, -reversed)
		if err := deps.Live.SaveLive(ctx, live); err != nil {
			return 0, nil, fmt.Errorf("save live session %s: %w", found.Group, err)
		}
	}
	if after := level.ForXP(a.XP); after.Number < before.Number {
		slog.Info("xp_event", "event", "level_down", "athlete_id", a.ID, "level", after.Number)
	}
	publishGroup(ctx, deps, found.Group, athletes, deps.Clock.Now())
	out := a.Clone()
	return reversed, &out, nil
}
