package snapshot

import (
	"errors"
	"time"

	"squadxp/internal/domain/athlete"
)

// Domain errors
var (
	ErrEmptyGroup      = errors.New("snapshot must belong to a roster group")
	ErrEmptyName       = errors.New("challenge name cannot be empty")
	ErrZeroTarget      = errors.New("challenge target must be greater than zero")
	ErrInvalidDateSpan = errors.New("challenge end date cannot be before its start date")
)

// Daily is a per-group rollup sampled at low frequency.
type Daily struct {
	Date         string    `json:"date"`
	Group        string    `json:"group"`
	Athletes     int       `json:"athletes"`
	PresentCount int       `json:"presentCount"`
	TotalXP      int       `json:"totalXp"`
	XPToday      int       `json:"xpToday"`
	AvgStreak    float64   `json:"avgStreak"`
	TopAthleteID string    `json:"topAthleteId,omitempty"`
	SampledAt    time.Time `json:"sampledAt"`
}

// Summarize rolls a group's athletes into a Daily snapshot.
// PRE: athletes have been healed for today
// POST: Counts only dailyXP stamped with today
func Summarize(group, today string, athletes []athlete.Athlete, now time.Time) Daily {
	d := Daily{Date: today, Group: group, SampledAt: now}
	streakSum := 0
	bestToday := -1
	for _, a := range athletes {
		d.Athletes++
		if a.Presence.Pool || a.Presence.Weight || a.Presence.Meet {
			d.PresentCount++
		}
		d.TotalXP += a.XP
		earned := 0
		if a.DailyXP.Date == today {
			earned = a.DailyXP.Total()
		}
		d.XPToday += earned
		if earned > bestToday {
			bestToday = earned
			d.TopAthleteID = a.ID
		}
		streakSum += a.Streak.Days
	}
	if d.Athletes > 0 {
		d.AvgStreak = float64(streakSum) / float64(d.Athletes)
	}
	if bestToday <= 0 {
		d.TopAthleteID = ""
	}
	return d
}

// TeamChallenge is a group-wide XP goal over a date range.
type TeamChallenge struct {
	ID        string `json:"id"`
	Group     string `json:"group"`
	Name      string `json:"name"`
	TargetXP  int    `json:"targetXp"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Validate checks if the TeamChallenge has valid data.
// PRE: TeamChallenge struct is populated
// POST: Returns nil if valid, error otherwise
func (c *TeamChallenge) Validate() error {
	if c.Group == "" {
		return ErrEmptyGroup
	}
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.TargetXP <= 0 {
		return ErrZeroTarget
	}
	if c.EndDate < c.StartDate {
		return ErrInvalidDateSpan
	}
	return nil
}

// Progress is a challenge's standing.
type Progress struct {
	Challenge TeamChallenge `json:"challenge"`
	EarnedXP  int           `json:"earnedXp"`
	Percent   int           `json:"percent"`
	Complete  bool          `json:"complete"`
}

// Progress sums XPToday of the group's snapshots inside the challenge window.
// Dates compare as strings, which is exact for YYYY-MM-DD.
func (c TeamChallenge) Progress(snaps []Daily) Progress {
	p := Progress{Challenge: c}
	for _, s := range snaps {
		if s.Group != c.Group || s.Date < c.StartDate || s.Date > c.EndDate {
			continue
		}
		p.EarnedXP += s.XPToday
	}
	if c.TargetXP > 0 {
		p.Percent = p.EarnedXP * 100 / c.TargetXP
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	p.Complete = p.EarnedXP >= c.TargetXP
	return p
}
