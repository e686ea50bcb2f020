package orchestrators

import (
	"context"
	"log/slog"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/ledger"
)

// ToggleCheckpointInput carries input for the toggle orchestrator.
type ToggleCheckpointInput struct {
	AthleteID    string
	CheckpointID string
	Category     category.Category
	Actor        string
}

// ExecuteToggleCheckpoint flips one checkpoint for one athlete.
// PRE: CheckpointID names a catalog definition in Category
// POST: On -> XP awarded (capped) and, for the completion checkpoint, the
// day's streak credited once. Off -> a credit made in this practice withdrawn
// and XP reverted at the multiplier in effect now, never more than a capped
// award paid.
// INVARIANT: Unknown athlete or checkpoint is a no-op with Applied=false and
// the stored athlete returned
func ExecuteToggleCheckpoint(ctx context.Context, input ToggleCheckpointInput, deps EngineDeps) (AthleteResult, error) {
	defer deps.lock()()

	def, ok := deps.Catalog.Lookup(input.Category, input.CheckpointID)
	if !ok {
		slog.Info("xp_event", "event", "unknown_checkpoint", "athlete_id", input.AthleteID,
			"checkpoint_id", input.CheckpointID, "category", string(input.Category))
		return currentAthlete(ctx, deps, input.AthleteID)
	}
	dailyCap := deps.rules().DailyCap

	return mutateAthlete(ctx, deps, input.AthleteID, input.Actor, func(a *athlete.Athlete, today string) change {
		c := input.Category
		key := athlete.CheckpointKey(c, def.ID)
		ch := change{applied: true, kind: audit.KindCheckpoint, category: c, audit: true, touch: true}

		if a.Checked(c, def.ID) {
			a.SetCheckpoint(c, def.ID, false)
			// The present flag keeps its own credit for the day.
			if def.Completes && !a.Present(c) {
				withdrawDay(a, c, today)
			}
			ch.delta = -ledger.RevertFor(a, key, def.XP, c, today)
			ch.action = "unchecked " + def.Label
			return ch
		}

		a.SetCheckpoint(c, def.ID, true)
		ch.delta = ledger.AwardFor(a, key, def.XP, c, today, dailyCap)
		if def.Completes {
			creditDay(a, c, today)
		}
		ch.action = "checked " + def.Label
		return ch
	})
}
