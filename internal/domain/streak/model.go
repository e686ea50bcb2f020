package streak

import (
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/clock"
)

// Tier is one row of a multiplier table.
type Tier struct {
	MinDays    int
	Multiplier float64
	Name       string
}

// Tables are ascending by MinDays.
var (
	attendanceTiers = []Tier{
		{MinDays: 0, Multiplier: 1.0, Name: "none"},
		{MinDays: 3, Multiplier: 1.25, Name: "warm"},
		{MinDays: 7, Multiplier: 1.5, Name: "hot"},
		{MinDays: 14, Multiplier: 1.75, Name: "blazing"},
		{MinDays: 30, Multiplier: 2.0, Name: "legend"},
		{MinDays: 60, Multiplier: 2.5, Name: "mythic"},
	}
	strengthTiers = []Tier{
		{MinDays: 0, Multiplier: 1.0, Name: "none"},
		{MinDays: 3, Multiplier: 1.25, Name: "warm"},
		{MinDays: 7, Multiplier: 1.5, Name: "hot"},
	}
)

func lookup(tiers []Tier, days int) Tier {
	t := tiers[0]
	for _, candidate := range tiers[1:] {
		if days < candidate.MinDays {
			break
		}
		t = candidate
	}
	return t
}

// AttendanceTier returns the attendance tier for a streak length.
func AttendanceTier(days int) Tier { return lookup(attendanceTiers, days) }

// StrengthTier returns the strength-session tier for a streak length.
func StrengthTier(days int) Tier { return lookup(strengthTiers, days) }

// TierFor picks the table for a category. Competition rides the attendance streak.
func TierFor(c category.Category, days int) Tier {
	if c == category.Strength {
		return StrengthTier(days)
	}
	return AttendanceTier(days)
}

// Counter is a consecutive-day credit count.
type Counter struct {
	Days     int    `json:"days"`
	LastDate string `json:"lastDate,omitempty"` // last date a credit was applied
	Undo     *Undo  `json:"undo,omitempty"`     // state before today's credit
}

// Undo remembers the counter as it was before a same-day credit.
type Undo struct {
	Date         string `json:"date"`
	PrevDays     int    `json:"prevDays"`
	PrevLastDate string `json:"prevLastDate,omitempty"`
}

// CreditedOn reports whether the counter already received today's credit.
func (c *Counter) CreditedOn(today string) bool {
	return c.LastDate == today
}

// Credit adds exactly one day, at most once per calendar date.
// PRE: today is YYYY-MM-DD
// POST: Returns true if the counter changed
func (c *Counter) Credit(today string) bool {
	if c.CreditedOn(today) {
		return false
	}
	c.Decay(today)
	c.Undo = &Undo{Date: today, PrevDays: c.Days, PrevLastDate: c.LastDate}
	c.Days++
	c.LastDate = today
	return true
}

// Withdraw reverses a credit made earlier the same day.
// POST: Returns true if a same-day credit was rolled back
func (c *Counter) Withdraw(today string) bool {
	if c.Undo == nil || c.Undo.Date != today || c.LastDate != today {
		return false
	}
	c.Days = c.Undo.PrevDays
	c.LastDate = c.Undo.PrevLastDate
	c.Undo = nil
	return true
}

// Settle makes today's credit permanent. Called when the practice that
// earned it is archived, so a later slot the same day cannot withdraw it.
func (c *Counter) Settle() {
	c.Undo = nil
}

// Decay forces the counter to zero when more than one calendar day has
// passed since the last credit. A single missed day is tolerated.
// POST: Returns true if the counter was reset
func (c *Counter) Decay(today string) bool {
	if c.Days == 0 || c.LastDate == "" {
		return false
	}
	gap, err := clock.DaysBetween(c.LastDate, today)
	if err != nil {
		c.Days = 0
		return true
	}
	if gap > 1 {
		c.Days = 0
		return true
	}
	return false
}
