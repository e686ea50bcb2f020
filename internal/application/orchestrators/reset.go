package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/session"
)

// ResetScope selects how much periodic state a reset clears.
type ResetScope string

const (
	ResetDay   ResetScope = "day"
	ResetWeek  ResetScope = "week"
	ResetMonth ResetScope = "month"
)

// ResetInput carries input for the reset orchestrators.
type ResetInput struct {
	Group string
	Actor string
}

// ResetResult reports how many athletes a reset touched.
type ResetResult struct {
	Group    string     `json:"group"`
	Scope    ResetScope `json:"scope"`
	Athletes int        `json:"athletes"`
}

// ExecuteResetDay clears presence and every checkpoint map for a group and
// discards its live practice without archiving. XP is kept.
// PRE: Group is non-empty
// POST: Group is Idle under a fresh session id
func ExecuteResetDay(ctx context.Context, input ResetInput, deps EngineDeps) (ResetResult, error) {
	defer deps.lock()()
	res, err := resetGroup(ctx, input, ResetDay, deps, func(a *athlete.Athlete) {
		a.ClearLive()
	})
	if err != nil {
		return res, err
	}
	live := session.NewLiveState(input.Group, deps.newID())
	if err := deps.Live.SaveLive(ctx, live); err != nil {
		return res, fmt.Errorf("save live session %s: %w", input.Group, err)
	}
	return res, nil
}

// ExecuteResetWeek zeroes the weekly session counters of a group.
// PRE: Group is non-empty
// POST: WeekSessions and WeekWeightSessions are 0; streaks and XP are kept
func ExecuteResetWeek(ctx context.Context, input ResetInput, deps EngineDeps) (ResetResult, error) {
	defer deps.lock()()
	return resetGroup(ctx, input, ResetWeek, deps, func(a *athlete.Athlete) {
		a.WeekSessions = 0
		a.WeekWeightSessions = 0
	})
}

// ExecuteResetMonth returns every quest of a group to pending and zeroes the
// weekly counters. XP earned from completed quests is kept.
// PRE: Group is non-empty
func ExecuteResetMonth(ctx context.Context, input ResetInput, deps EngineDeps) (ResetResult, error) {
	defer deps.lock()()
	return resetGroup(ctx, input, ResetMonth, deps, func(a *athlete.Athlete) {
		for id := range a.Quests {
			a.Quests[id] = athlete.QuestPending
		}
		a.WeekSessions = 0
		a.WeekWeightSessions = 0
	})
}

func resetGroup(ctx context.Context, input ResetInput, scope ResetScope, deps EngineDeps, apply func(a *athlete.Athlete)) (ResetResult, error) {
	res := ResetResult{Group: input.Group, Scope: scope}
	if input.Group == "" {
		return res, session.ErrEmptyGroup
	}
	athletes, err := deps.Roster.GetGroup(ctx, input.Group)
	if err != nil {
		return res, fmt.Errorf("load group %s: %w", input.Group, err)
	}
	today := deps.Clock.Today()
	for i := range athletes {
		athletes[i].Heal(today)
		apply(&athletes[i])
	}
	if err := deps.Roster.SaveGroup(ctx, input.Group, athletes); err != nil {
		return res, fmt.Errorf("save group %s: %w", input.Group, err)
	}
	res.Athletes = len(athletes)

	now := deps.Clock.Now()
	entry := audit.NewEntry(input.Actor, audit.KindReset, now).
		WithAthlete("", "", input.Group).
		WithAction(fmt.Sprintf("reset %s", scope), 0)
	if err := deps.Audit.Append(ctx, entry, deps.rules().AuditMaxEntries); err != nil {
		return res, fmt.Errorf("append audit: %w", err)
	}

	slog.Info("xp_event", "event", "reset", "scope", string(scope), "group", input.Group, "athletes", res.Athletes, "actor", entry.Actor)
	publishGroup(ctx, deps, input.Group, athletes, now)
	publishAudit(ctx, deps, now)
	return res, nil
}
