// Package ledger is the only place raw XP numbers are computed.
package ledger

import (
	"math"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/category"
)

// DefaultDailyCap is the most XP one athlete may earn across all categories in a day.
const DefaultDailyCap = 150

// Scale applies the multiplier in effect for c to baseXP.
func Scale(a *athlete.Athlete, baseXP int, c category.Category) int {
	return int(math.Round(float64(baseXP) * a.Multiplier(c)))
}

// Room returns how much XP a may still earn today.
// POST: Returns >= 0
func Room(a *athlete.Athlete, today string, cap int) int {
	a.DailyXP.RollTo(today)
	room := cap - a.DailyXP.Total()
	if room < 0 {
		return 0
	}
	return room
}

// Award grants baseXP scaled by the current streak multiplier, limited by
// the daily cap. A zero result is a normal outcome, not an error.
// PRE: a is non-nil, today is YYYY-MM-DD
// POST: a.XP and the c slot of a.DailyXP grow by the returned amount
// INVARIANT: DailyXP.Total() <= cap after the call when it was before
func Award(a *athlete.Athlete, baseXP int, c category.Category, today string, cap int) int {
	room := Room(a, today, cap)
	raw := Scale(a, baseXP, c)
	awarded := raw
	if room < awarded {
		awarded = room
	}
	if awarded <= 0 {
		return 0
	}
	a.XP += awarded
	a.DailyXP.AddSlot(c, awarded)
	return awarded
}

// Revert undoes an Award of baseXP in c, recomputed with the multiplier in
// effect now. Only used when an applied checkpoint or quest is un-toggled.
// PRE: a is non-nil, today is YYYY-MM-DD
// POST: a.XP >= 0; the c slot of a.DailyXP shrinks with a zero floor
func Revert(a *athlete.Athlete, baseXP int, c category.Category, today string) int {
	return Subtract(a, Scale(a, baseXP, c), c, today)
}

// AwardFor is Award that also records what was paid under key, so that
// RevertFor never takes back more than a capped award granted.
// POST: a.Grants[key] holds today's payout
func AwardFor(a *athlete.Athlete, key string, baseXP int, c category.Category, today string, cap int) int {
	raw := Scale(a, baseXP, c)
	awarded := Award(a, baseXP, c, today, cap)
	a.RecordGrant(key, athlete.Grant{Date: today, XP: awarded, Capped: awarded < raw})
	return awarded
}

// RevertFor undoes an AwardFor. Uncapped grants are recomputed with the
// multiplier in effect now, as Revert does; a capped grant from today is
// never reverted by more than it paid.
// POST: a.Grants no longer holds key
func RevertFor(a *athlete.Athlete, key string, baseXP int, c category.Category, today string) int {
	if g, ok := a.TakeGrant(key, today); ok && g.Capped && g.XP < Scale(a, baseXP, c) {
		return Subtract(a, g.XP, c, today)
	}
	return Revert(a, baseXP, c, today)
}

// Subtract removes an exact delta from XP and today's c slot, flooring both at zero.
// POST: Returns the amount actually removed from XP
func Subtract(a *athlete.Athlete, delta int, c category.Category, today string) int {
	if delta <= 0 {
		return 0
	}
	a.DailyXP.RollTo(today)
	removed := delta
	if removed > a.XP {
		removed = a.XP
	}
	a.XP -= removed
	a.DailyXP.AddSlot(c, -delta)
	return removed
}
