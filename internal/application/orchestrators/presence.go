package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/ledger"
)

// PresenceInput carries input for the present/absent orchestrators.
type PresenceInput struct {
	AthleteID string
	Category  category.Category
	Actor     string
}

// ExecuteSetPresent marks an athlete present in a category.
// PRE: Category is valid
// POST: Presence bonus awarded, every automatic non-standout checkpoint set
// and awarded, and the day's streak credited once
// INVARIANT: Already present is a no-op with Applied=false
func ExecuteSetPresent(ctx context.Context, input PresenceInput, deps EngineDeps) (AthleteResult, error) {
	defer deps.lock()()
	return setPresent(ctx, input, deps)
}

func setPresent(ctx context.Context, input PresenceInput, deps EngineDeps) (AthleteResult, error) {
	c := input.Category
	if !c.Valid() {
		return AthleteResult{}, category.ErrUnknown
	}
	rules := deps.rules()
	auto := deps.Catalog.Auto(c)

	return mutateAthlete(ctx, deps, input.AthleteID, input.Actor, func(a *athlete.Athlete, today string) change {
		if a.Present(c) {
			return change{}
		}
		a.SetPresent(c, true)
		// Awards use the multiplier from before today's credit, which is
		// what setAbsent reverts with after withdrawing that credit.
		total := ledger.AwardFor(a, athlete.PresenceKey(c), rules.PresenceBonus, c, today, rules.DailyCap)
		for _, def := range auto {
			if a.Checked(c, def.ID) {
				continue
			}
			a.SetCheckpoint(c, def.ID, true)
			total += ledger.AwardFor(a, athlete.CheckpointKey(c, def.ID), def.XP, c, today, rules.DailyCap)
		}
		creditDay(a, c, today)
		return change{
			applied: true, delta: total, kind: audit.KindPresence, category: c,
			action: fmt.Sprintf("marked present (%s)", c), audit: true, touch: true,
		}
	})
}

// ExecuteSetAbsent is the inverse of ExecuteSetPresent.
// PRE: Category is valid
// POST: Presence cleared, every checkpoint in the category cleared and its XP
// reverted at the multiplier in effect after withdrawing this practice's credit
// INVARIANT: Nothing to clear is a no-op with Applied=false
func ExecuteSetAbsent(ctx context.Context, input PresenceInput, deps EngineDeps) (AthleteResult, error) {
	defer deps.lock()()

	c := input.Category
	if !c.Valid() {
		return AthleteResult{}, category.ErrUnknown
	}
	rules := deps.rules()

	return mutateAthlete(ctx, deps, input.AthleteID, input.Actor, func(a *athlete.Athlete, today string) change {
		checked := a.CheckedIDs(c)
		present := a.Present(c)
		if !present && len(checked) == 0 {
			return change{}
		}
		withdrawDay(a, c, today)

		reverted := 0
		if present {
			a.SetPresent(c, false)
			reverted += ledger.RevertFor(a, athlete.PresenceKey(c), rules.PresenceBonus, c, today)
		}
		for _, id := range checked {
			a.SetCheckpoint(c, id, false)
			if def, ok := deps.Catalog.Lookup(c, id); ok {
				reverted += ledger.RevertFor(a, athlete.CheckpointKey(c, id), def.XP, c, today)
			}
		}
		return change{
			applied: true, delta: -reverted, kind: audit.KindPresence, category: c,
			action: fmt.Sprintf("marked absent (%s)", c), audit: true, touch: true,
		}
	})
}

// BulkCheckInInput carries input for checking in a whole group.
type BulkCheckInInput struct {
	Group    string
	Category category.Category
	Actor    string
}

// BulkCheckInResult summarises a bulk check-in.
type BulkCheckInResult struct {
	Group     string `json:"group"`
	CheckedIn int    `json:"checkedIn"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Awarded   int    `json:"awarded"`
}

// ExecuteBulkCheckIn marks every athlete of a group present, one at a time.
// PRE: Group is non-empty
// POST: Each athlete is persisted independently; a failure on one athlete is
// logged and the loop keeps going
func ExecuteBulkCheckIn(ctx context.Context, input BulkCheckInInput, deps EngineDeps) (BulkCheckInResult, error) {
	defer deps.lock()()

	res := BulkCheckInResult{Group: input.Group}
	athletes, err := deps.Roster.GetGroup(ctx, input.Group)
	if err != nil {
		return res, fmt.Errorf("load group %s: %w", input.Group, err)
	}
	for _, a := range athletes {
		r, err := setPresent(ctx, PresenceInput{AthleteID: a.ID, Category: input.Category, Actor: input.Actor}, deps)
		switch {
		case err != nil:
			res.Failed++
			slog.Error("bulk_checkin_failed", "group", input.Group, "athlete_id", a.ID, "error", err)
		case !r.Applied:
			res.Skipped++
		default:
			res.CheckedIn++
			res.Awarded += r.Awarded
		}
	}
	slog.Info("xp_event", "event", "bulk_checkin", "group", input.Group, "category", string(input.Category),
		"checked_in", res.CheckedIn, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
