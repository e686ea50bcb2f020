package projections

import (
	"context"
	"fmt"
	"sort"
	"time"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/ledger"
	"squadxp/internal/domain/level"
	"squadxp/internal/domain/session"
	"squadxp/internal/domain/streak"
)

// GroupDashboardQuery carries query parameters.
type GroupDashboardQuery struct {
	Group string
}

// GroupDashboardDeps holds dependencies for QueryGroupDashboard.
type GroupDashboardDeps struct {
	Roster   RosterReader
	Live     LiveReader
	Clock    clock.Clock
	DailyCap int // optional: defaults to ledger.DefaultDailyCap
}

// AthleteCard is one athlete as the coach screen shows it.
type AthleteCard struct {
	Athlete         athlete.Athlete `json:"athlete"`
	Level           level.Level     `json:"level"`
	NextLevel       *level.Level    `json:"nextLevel,omitempty"`
	ProgressPercent int             `json:"progressPercent"`
	AttendanceTier  string          `json:"attendanceTier"`
	AttendanceMult  float64         `json:"attendanceMultiplier"`
	StrengthTier    string          `json:"strengthTier"`
	StrengthMult    float64         `json:"strengthMultiplier"`
	XPToday         int             `json:"xpToday"`
	RoomLeft        int             `json:"roomLeft"`
}

// GroupDashboardResult carries the query result.
type GroupDashboardResult struct {
	Group        string        `json:"group"`
	Date         string        `json:"date"`
	State        session.State `json:"state"`
	SessionID    string        `json:"sessionId"`
	Mode         session.Mode  `json:"mode,omitempty"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	LastActivity *time.Time    `json:"lastActivity,omitempty"`
	PresentCount int           `json:"presentCount"`
	TotalXP      int           `json:"totalXp"`
	Athletes     []AthleteCard `json:"athletes"`
}

// QueryGroupDashboard builds the leaderboard view of one group.
// PRE: Group is non-empty
// POST: Athletes ordered by XP descending, then name
// INVARIANT: Stale streaks and dailyXP are healed on copies only; nothing is written
func QueryGroupDashboard(ctx context.Context, query GroupDashboardQuery, deps GroupDashboardDeps) (GroupDashboardResult, error) {
	if query.Group == "" {
		return GroupDashboardResult{}, session.ErrEmptyGroup
	}
	dailyCap := deps.DailyCap
	if dailyCap <= 0 {
		dailyCap = ledger.DefaultDailyCap
	}
	today := deps.Clock.Today()

	athletes, err := deps.Roster.GetGroup(ctx, query.Group)
	if err != nil {
		return GroupDashboardResult{}, fmt.Errorf("load group %s: %w", query.Group, err)
	}
	live, err := deps.Live.GetLive(ctx, query.Group)
	if err != nil {
		return GroupDashboardResult{}, fmt.Errorf("load live session %s: %w", query.Group, err)
	}

	result := GroupDashboardResult{
		Group:     query.Group,
		Date:      today,
		State:     live.State(),
		SessionID: live.SessionID,
		Athletes:  make([]AthleteCard, 0, len(athletes)),
	}
	if live.IsLive() {
		started, last := live.FirstActivity, live.LastActivity
		result.Mode = live.Mode
		result.StartedAt = &started
		result.LastActivity = &last
	}

	for _, a := range athletes {
		a = a.Clone()
		a.Heal(today)
		result.Athletes = append(result.Athletes, buildCard(a, today, dailyCap))
		result.TotalXP += a.XP
		if a.Presence.Pool || a.Presence.Weight || a.Presence.Meet {
			result.PresentCount++
		}
	}
	sort.SliceStable(result.Athletes, func(i, j int) bool {
		ai, aj := result.Athletes[i].Athlete, result.Athletes[j].Athlete
		if ai.XP != aj.XP {
			return ai.XP > aj.XP
		}
		return ai.Name < aj.Name
	})
	return result, nil
}

func buildCard(a athlete.Athlete, today string, dailyCap int) AthleteCard {
	att := streak.TierFor(category.Attendance, a.Streak.Days)
	str := streak.TierFor(category.Strength, a.WeightStreak.Days)
	card := AthleteCard{
		Athlete:         a,
		Level:           level.ForXP(a.XP),
		ProgressPercent: level.ProgressPercent(a.XP),
		AttendanceTier:  att.Name,
		AttendanceMult:  att.Multiplier,
		StrengthTier:    str.Name,
		StrengthMult:    str.Multiplier,
		XPToday:         a.DailyXP.Total(),
		RoomLeft:        ledger.Room(&a, today, dailyCap),
	}
	if next, ok := level.Next(a.XP); ok {
		card.NextLevel = &next
	}
	return card
}
