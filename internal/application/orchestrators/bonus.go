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

// ShoutoutInput carries input for a coach shoutout.
type ShoutoutInput struct {
	AthleteID string
	Category  category.Category // optional: defaults to attendance
	Actor     string
}

// ExecuteAwardShoutout grants the fixed shoutout bonus.
// PRE: AthleteID is non-empty
// POST: Bonus awarded subject to the daily cap; a capped award still writes
// a zero-delta audit entry
func ExecuteAwardShoutout(ctx context.Context, input ShoutoutInput, deps EngineDeps) (AthleteResult, error) {
	defer deps.lock()()

	c := input.Category
	if c == "" {
		c = category.Attendance
	}
	if !c.Valid() {
		return AthleteResult{}, category.ErrUnknown
	}
	rules := deps.rules()

	return mutateAthlete(ctx, deps, input.AthleteID, input.Actor, func(a *athlete.Athlete, today string) change {
		awarded := ledger.Award(a, rules.ShoutoutBonus, c, today, rules.DailyCap)
		return change{
			applied: true, delta: awarded, kind: audit.KindShoutout, category: c,
			action: "shoutout", audit: true, touch: true,
		}
	})
}

// CycleQuestInput carries input for advancing a quest.
type CycleQuestInput struct {
	AthleteID string
	QuestID   string
	Actor     string
}

// ExecuteCycleQuest moves a quest pending -> active -> done -> pending.
// PRE: QuestID names a catalog quest
// POST: Entering done awards the quest XP; leaving done reverts it
// INVARIANT: Unknown athlete or quest is a no-op with Applied=false and the
// stored athlete returned
func ExecuteCycleQuest(ctx context.Context, input CycleQuestInput, deps EngineDeps) (AthleteResult, error) {
	defer deps.lock()()

	q, ok := deps.Catalog.Quest(input.QuestID)
	if !ok {
		slog.Info("xp_event", "event", "unknown_quest", "athlete_id", input.AthleteID, "quest_id", input.QuestID)
		return currentAthlete(ctx, deps, input.AthleteID)
	}
	rules := deps.rules()
	c := category.Attendance

	return mutateAthlete(ctx, deps, input.AthleteID, input.Actor, func(a *athlete.Athlete, today string) change {
		if a.Quests == nil {
			a.Quests = map[string]athlete.QuestState{}
		}
		from := a.Quests[q.ID]
		to := from.Next()
		a.Quests[q.ID] = to

		ch := change{applied: true, kind: audit.KindQuest, category: c, audit: true}
		switch {
		case to == athlete.QuestDone:
			ch.delta = ledger.AwardFor(a, athlete.QuestKey(q.ID), q.XP, c, today, rules.DailyCap)
		case from == athlete.QuestDone:
			ch.delta = -ledger.RevertFor(a, athlete.QuestKey(q.ID), q.XP, c, today)
		}
		ch.action = fmt.Sprintf("quest %s %s", q.Label, to)
		return ch
	})
}
