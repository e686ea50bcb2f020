package session

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/category"
)

// DefaultInactivityTimeout archives a live practice after this much quiet.
const DefaultInactivityTimeout = 90 * time.Minute

// Domain errors
var (
	ErrEmptyGroup = errors.New("session must belong to a roster group")
	ErrNotLive    = errors.New("session has no live activity")
)

// State of a group's practice.
type State string

const (
	StateIdle     State = "idle"
	StateLive     State = "live"
	StateArchived State = "archived"
)

// Mode is the kind of practice.
type Mode string

const (
	ModePool        Mode = "pool"
	ModeWeight      Mode = "weight"
	ModeCompetition Mode = "competition"
)

// ModeFor maps an action category to the practice mode it implies.
func ModeFor(c category.Category) Mode {
	switch c {
	case category.Strength:
		return ModeWeight
	case category.Competition:
		return ModeCompetition
	default:
		return ModePool
	}
}

// TimeOfDay splits a date into two practice slots.
type TimeOfDay string

const (
	AM TimeOfDay = "AM"
	PM TimeOfDay = "PM"
)

// TimeOfDayOf resolves AM/PM from a timestamp in loc.
func TimeOfDayOf(t time.Time, loc *time.Location) TimeOfDay {
	if loc != nil {
		t = t.In(loc)
	}
	if t.Hour() < 12 {
		return AM
	}
	return PM
}

// SlotKey identifies one practice occurrence.
type SlotKey struct {
	Date      string    `json:"date"`
	Group     string    `json:"group"`
	TimeOfDay TimeOfDay `json:"timeOfDay"`
}

// String returns the storage form "date|group|AM".
func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Date, k.Group, k.TimeOfDay)
}

// LiveState is the persisted bookkeeping for a group's current practice.
// Every field is durable so a skipped sweep can rebuild the slot later.
type LiveState struct {
	Group         string         `json:"group"`
	SessionID     string         `json:"sessionId"`
	Date          string         `json:"date,omitempty"`
	FirstActivity time.Time      `json:"firstActivity,omitempty"`
	LastActivity  time.Time      `json:"lastActivity,omitempty"`
	Mode          Mode           `json:"mode,omitempty"`
	XPEarned      map[string]int `json:"xpEarned,omitempty"`
}

// NewLiveState returns an idle state for group.
func NewLiveState(group, sessionID string) LiveState {
	return LiveState{Group: group, SessionID: sessionID}
}

// Validate checks if the LiveState has valid data.
func (s *LiveState) Validate() error {
	if s.Group == "" {
		return ErrEmptyGroup
	}
	return nil
}

// State reports Idle or Live. Archived is transient and never stored.
func (s *LiveState) State() State {
	if s.FirstActivity.IsZero() {
		return StateIdle
	}
	return StateLive
}

// IsLive reports whether any activity has been recorded since the last archive.
func (s *LiveState) IsLive() bool {
	return s.State() == StateLive
}

// Touch records activity at now on date today. The first touch moves Idle to Live.
// POST: LastActivity == now; FirstActivity and Mode set on the first touch
func (s *LiveState) Touch(now time.Time, today string, c category.Category) {
	if !s.IsLive() {
		s.FirstActivity = now
		s.Date = today
		s.Mode = ModeFor(c)
	}
	s.LastActivity = now
}

// Credit accumulates XP earned by an athlete during this slot.
func (s *LiveState) Credit(athleteID string, delta int) {
	if delta == 0 {
		return
	}
	if s.XPEarned == nil {
		s.XPEarned = map[string]int{}
	}
	s.XPEarned[athleteID] += delta
}

// IsStale reports whether the sweep should archive this practice.
// PRE: today is the clock's current date
// POST: true when live and either idle for >= timeout or started on another date
func (s *LiveState) IsStale(now time.Time, today string, timeout time.Duration) bool {
	if !s.IsLive() {
		return false
	}
	if s.Date != today {
		return true
	}
	return now.Sub(s.LastActivity) >= timeout
}

// Slot returns the key of the practice this state belongs to. AM/PM comes
// from the first activity, not from whatever the UI is displaying.
func (s *LiveState) Slot(loc *time.Location) SlotKey {
	return SlotKey{Date: s.Date, Group: s.Group, TimeOfDay: TimeOfDayOf(s.FirstActivity, loc)}
}

// Reset returns the state to Idle under a fresh session id.
func (s *LiveState) Reset(sessionID string) {
	*s = NewLiveState(s.Group, sessionID)
}

// AthleteSnapshot is one athlete's state at archive time.
type AthleteSnapshot struct {
	AthleteID         string           `json:"athleteId"`
	Name              string           `json:"name"`
	Presence          athlete.Presence `json:"presence"`
	Checkpoints       map[string]bool  `json:"checkpoints"`
	WeightCheckpoints map[string]bool  `json:"weightCheckpoints"`
	MeetCheckpoints   map[string]bool  `json:"meetCheckpoints"`
	XPEarned          int              `json:"xpEarned"`
	Streak            int              `json:"streak"`
	WeightStreak      int              `json:"weightStreak"`
}

// Counts tallies attendance for a slot.
type Counts struct {
	Pool     int `json:"pool"`
	Weight   int `json:"weight"`
	Meet     int `json:"meet"`
	Active   int `json:"active"` // athletes with any presence or checkpoint
	Athletes int `json:"athletes"`
}

// Record is the immutable snapshot of one archived slot.
type Record struct {
	ID         string            `json:"id"`
	Slot       SlotKey           `json:"slot"`
	SessionID  string            `json:"sessionId"`
	StartedAt  time.Time         `json:"startedAt"`
	EndedAt    time.Time         `json:"endedAt"`
	Mode       Mode              `json:"mode"`
	ArchivedBy string            `json:"archivedBy"`
	Reason     string            `json:"reason"`
	Athletes   []AthleteSnapshot `json:"athletes"`
	Counts     Counts            `json:"counts"`
}

// Archive reasons.
const (
	ReasonManual     = "manual"
	ReasonInactivity = "inactivity"
	ReasonRollover   = "date_rollover"
)

// Build snapshots a live group into a Record.
// PRE: live.IsLive()
// POST: Athletes sorted by name; counts reflect presence at archive time
func Build(id string, live LiveState, athletes []athlete.Athlete, end time.Time, loc *time.Location, actor, reason string) (Record, error) {
	if err := live.Validate(); err != nil {
		return Record{}, err
	}
	if !live.IsLive() {
		return Record{}, ErrNotLive
	}
	r := Record{
		ID:         id,
		Slot:       live.Slot(loc),
		SessionID:  live.SessionID,
		StartedAt:  live.FirstActivity,
		EndedAt:    end,
		Mode:       live.Mode,
		ArchivedBy: actor,
		Reason:     reason,
	}
	for _, a := range athletes {
		a = a.Clone()
		r.Athletes = append(r.Athletes, AthleteSnapshot{
			AthleteID:         a.ID,
			Name:              a.Name,
			Presence:          a.Presence,
			Checkpoints:       a.CheckpointMap(category.Attendance),
			WeightCheckpoints: a.CheckpointMap(category.Strength),
			MeetCheckpoints:   a.CheckpointMap(category.Competition),
			XPEarned:          live.XPEarned[a.ID],
			Streak:            a.Streak.Days,
			WeightStreak:      a.WeightStreak.Days,
		})
		r.Counts.Athletes++
		if a.Presence.Pool {
			r.Counts.Pool++
		}
		if a.Presence.Weight {
			r.Counts.Weight++
		}
		if a.Presence.Meet {
			r.Counts.Meet++
		}
		if a.HasActivity() {
			r.Counts.Active++
		}
	}
	sort.Slice(r.Athletes, func(i, j int) bool { return r.Athletes[i].Name < r.Athletes[j].Name })
	return r, nil
}
