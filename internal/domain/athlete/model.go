package athlete

import (
	"errors"
	"strings"

	"squadxp/internal/domain/category"
	"squadxp/internal/domain/streak"
)

// Max length constants for coach-editable fields.
const (
	MaxNameLength = 100
)

// Quest states cycle pending -> active -> done -> pending.
type QuestState string

const (
	QuestPending QuestState = "pending"
	QuestActive  QuestState = "active"
	QuestDone    QuestState = "done"
)

// Next returns the state after s in the quest cycle.
func (s QuestState) Next() QuestState {
	switch s {
	case QuestActive:
		return QuestDone
	case QuestDone:
		return QuestPending
	default:
		return QuestActive
	}
}

// Domain errors
var (
	ErrEmptyID    = errors.New("athlete ID cannot be empty")
	ErrEmptyName  = errors.New("athlete name cannot be empty")
	ErrEmptyGroup = errors.New("athlete must belong to a roster group")
	ErrNegativeXP = errors.New("athlete XP cannot be negative")
	ErrNotFound   = errors.New("athlete not found")
)

// DailyXP is XP earned on one calendar date, split by category.
type DailyXP struct {
	Date   string `json:"date"`
	Pool   int    `json:"pool"`
	Weight int    `json:"weight"`
	Meet   int    `json:"meet"`
}

// Total returns the XP earned across all categories.
func (d DailyXP) Total() int {
	return d.Pool + d.Weight + d.Meet
}

// Slot returns the XP earned in c.
func (d DailyXP) Slot(c category.Category) int {
	switch c {
	case category.Strength:
		return d.Weight
	case category.Competition:
		return d.Meet
	default:
		return d.Pool
	}
}

// AddSlot adds delta to c's slot, flooring at zero.
func (d *DailyXP) AddSlot(c category.Category, delta int) {
	var p *int
	switch c {
	case category.Strength:
		p = &d.Weight
	case category.Competition:
		p = &d.Meet
	default:
		p = &d.Pool
	}
	*p += delta
	if *p < 0 {
		*p = 0
	}
}

// RollTo resets the triple to zero when it belongs to another date.
// POST: Returns true if a reset happened
func (d *DailyXP) RollTo(today string) bool {
	if d.Date == today {
		return false
	}
	*d = DailyXP{Date: today}
	return true
}

// Presence holds today's attendance flags, one per category.
type Presence struct {
	Pool   bool `json:"pool"`
	Weight bool `json:"weight"`
	Meet   bool `json:"meet"`
}

// Grant is the XP actually paid out under one award key on one date.
// Capped grants received less than the scaled base.
type Grant struct {
	Date   string `json:"date"`
	XP     int    `json:"xp"`
	Capped bool   `json:"capped,omitempty"`
}

const questKeyPrefix = "quest:"

// CheckpointKey names the grant for checkpoint id in c.
func CheckpointKey(c category.Category, id string) string {
	return string(c) + ":" + id
}

// PresenceKey names the grant for the presence bonus in c.
func PresenceKey(c category.Category) string {
	return "presence:" + string(c)
}

// QuestKey names the grant for completing quest id.
func QuestKey(id string) string {
	return questKeyPrefix + id
}

// Athlete holds identity and gamification state.
type Athlete struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Group  string `json:"group"`
	Age    int    `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`

	XP                 int                   `json:"xp"`
	Streak             streak.Counter        `json:"streak"`
	WeightStreak       streak.Counter        `json:"weightStreak"`
	TotalPractices     int                   `json:"totalPractices"`
	WeekSessions       int                   `json:"weekSessions"`
	WeekWeightSessions int                   `json:"weekWeightSessions"`
	Checkpoints        map[string]bool       `json:"checkpoints"`
	WeightCheckpoints  map[string]bool       `json:"weightCheckpoints"`
	MeetCheckpoints    map[string]bool       `json:"meetCheckpoints"`
	Quests             map[string]QuestState `json:"quests"`
	DailyXP            DailyXP               `json:"dailyXP"`
	Presence           Presence              `json:"presence"`
	Grants             map[string]Grant      `json:"grants,omitempty"`
}

// Validate checks if the Athlete has valid data.
// PRE: Athlete struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: XP is never negative
func (a *Athlete) Validate() error {
	if a.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > MaxNameLength {
		return errors.New("athlete name cannot exceed 100 characters")
	}
	if a.Group == "" {
		return ErrEmptyGroup
	}
	if a.XP < 0 {
		return ErrNegativeXP
	}
	return nil
}

// CheckpointMap returns the checkpoint map for c, creating it if needed.
func (a *Athlete) CheckpointMap(c category.Category) map[string]bool {
	switch c {
	case category.Strength:
		if a.WeightCheckpoints == nil {
			a.WeightCheckpoints = map[string]bool{}
		}
		return a.WeightCheckpoints
	case category.Competition:
		if a.MeetCheckpoints == nil {
			a.MeetCheckpoints = map[string]bool{}
		}
		return a.MeetCheckpoints
	default:
		if a.Checkpoints == nil {
			a.Checkpoints = map[string]bool{}
		}
		return a.Checkpoints
	}
}

// Checked reports whether checkpoint id is set in c.
func (a *Athlete) Checked(c category.Category, id string) bool {
	return a.CheckpointMap(c)[id]
}

// SetCheckpoint sets or clears checkpoint id in c. Cleared entries are removed.
func (a *Athlete) SetCheckpoint(c category.Category, id string, on bool) {
	m := a.CheckpointMap(c)
	if on {
		m[id] = true
		return
	}
	delete(m, id)
}

// CheckedIDs returns the set checkpoint ids in c.
func (a *Athlete) CheckedIDs(c category.Category) []string {
	var ids []string
	for id, on := range a.CheckpointMap(c) {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

// Present reports today's presence flag for c.
func (a *Athlete) Present(c category.Category) bool {
	switch c {
	case category.Strength:
		return a.Presence.Weight
	case category.Competition:
		return a.Presence.Meet
	default:
		return a.Presence.Pool
	}
}

// SetPresent sets today's presence flag for c.
func (a *Athlete) SetPresent(c category.Category, on bool) {
	switch c {
	case category.Strength:
		a.Presence.Weight = on
	case category.Competition:
		a.Presence.Meet = on
	default:
		a.Presence.Pool = on
	}
}

// StreakFor returns the streak counter that drives c's multiplier.
// Competition shares the attendance streak.
func (a *Athlete) StreakFor(c category.Category) *streak.Counter {
	if c == category.Strength {
		return &a.WeightStreak
	}
	return &a.Streak
}

// Multiplier returns the multiplier currently in effect for c.
func (a *Athlete) Multiplier(c category.Category) float64 {
	return streak.TierFor(c, a.StreakFor(c).Days).Multiplier
}

// HasActivity reports whether any presence or checkpoint is set.
func (a *Athlete) HasActivity() bool {
	if a.Presence.Pool || a.Presence.Weight || a.Presence.Meet {
		return true
	}
	return len(a.Checkpoints)+len(a.WeightCheckpoints)+len(a.MeetCheckpoints) > 0
}

// ClearLive drops presence flags and every checkpoint map, and settles
// today's streak credits so they belong to the finished practice.
// Quest grants survive since quests are not tied to a practice.
func (a *Athlete) ClearLive() {
	a.Presence = Presence{}
	a.Checkpoints = map[string]bool{}
	a.WeightCheckpoints = map[string]bool{}
	a.MeetCheckpoints = map[string]bool{}
	a.Streak.Settle()
	a.WeightStreak.Settle()
	for key := range a.Grants {
		if !strings.HasPrefix(key, questKeyPrefix) {
			delete(a.Grants, key)
		}
	}
}

// RecordGrant remembers what an award under key paid out.
func (a *Athlete) RecordGrant(key string, g Grant) {
	if a.Grants == nil {
		a.Grants = map[string]Grant{}
	}
	a.Grants[key] = g
}

// TakeGrant removes the grant under key and returns it when it was made today.
func (a *Athlete) TakeGrant(key, today string) (Grant, bool) {
	g, ok := a.Grants[key]
	if !ok {
		return Grant{}, false
	}
	delete(a.Grants, key)
	return g, g.Date == today
}

// Heal applies the read-time invariants: dailyXP belongs to today and
// streaks older than one missed day are zeroed.
// POST: Returns true if anything changed
func (a *Athlete) Heal(today string) bool {
	changed := a.DailyXP.RollTo(today)
	if a.Streak.Decay(today) {
		changed = true
	}
	if a.WeightStreak.Decay(today) {
		changed = true
	}
	if a.XP < 0 {
		a.XP = 0
		changed = true
	}
	for key, g := range a.Grants {
		if g.Date != today {
			delete(a.Grants, key)
			changed = true
		}
	}
	return changed
}

// Clone returns a deep copy so callers can compare before/after.
func (a Athlete) Clone() Athlete {
	out := a
	out.Checkpoints = cloneBools(a.Checkpoints)
	out.WeightCheckpoints = cloneBools(a.WeightCheckpoints)
	out.MeetCheckpoints = cloneBools(a.MeetCheckpoints)
	if a.Quests != nil {
		out.Quests = make(map[string]QuestState, len(a.Quests))
		for k, v := range a.Quests {
			out.Quests[k] = v
		}
	}
	if a.Grants != nil {
		out.Grants = make(map[string]Grant, len(a.Grants))
		for k, v := range a.Grants {
			out.Grants[k] = v
		}
	}
	if a.Streak.Undo != nil {
		u := *a.Streak.Undo
		out.Streak.Undo = &u
	}
	if a.WeightStreak.Undo != nil {
		u := *a.WeightStreak.Undo
		out.WeightStreak.Undo = &u
	}
	return out
}

func cloneBools(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
