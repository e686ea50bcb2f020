package audit

import (
	"time"

	"github.com/google/uuid"

	"squadxp/internal/domain/category"
)

// DefaultMaxEntries bounds the log; older entries are silently dropped.
const DefaultMaxEntries = 200

// Kind groups entries for the activity feed.
type Kind string

const (
	KindCheckpoint Kind = "checkpoint"
	KindPresence   Kind = "presence"
	KindShoutout   Kind = "shoutout"
	KindQuest      Kind = "quest"
	KindSession    Kind = "session"
	KindReset      Kind = "reset"
)

// Entry is one append-only record of who changed whose XP.
type Entry struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Actor       string            `json:"actor"`
	AthleteID   string            `json:"athleteId,omitempty"`
	AthleteName string            `json:"athleteName,omitempty"`
	Group       string            `json:"group,omitempty"`
	Category    category.Category `json:"category,omitempty"`
	Kind        Kind              `json:"kind"`
	Action      string            `json:"action"`
	XPDelta     int               `json:"xpDelta"`
}

// NewEntry creates an entry stamped at now.
// PRE: actor may be empty (recorded as "coach")
// POST: Returns an Entry with a fresh ID
func NewEntry(actor string, kind Kind, now time.Time) Entry {
	if actor == "" {
		actor = "coach"
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: now,
		Actor:     actor,
		Kind:      kind,
	}
}

// WithAthlete sets the subject athlete.
func (e Entry) WithAthlete(id, name, group string) Entry {
	e.AthleteID = id
	e.AthleteName = name
	e.Group = group
	return e
}

// WithCategory sets the category the delta was booked against.
func (e Entry) WithCategory(c category.Category) Entry {
	e.Category = c
	return e
}

// WithAction sets the human-readable action and signed XP delta.
func (e Entry) WithAction(action string, delta int) Entry {
	e.Action = action
	e.XPDelta = delta
	return e
}

// Reversible reports whether undo should subtract this entry's delta.
// Negative-delta entries are reversals already applied at toggle time.
func (e Entry) Reversible() bool {
	return e.XPDelta > 0 && e.AthleteID != ""
}

// Log is a bounded newest-first list of entries.
type Log struct {
	entries []Entry
	max     int
}

// NewLog returns an empty log holding at most max entries.
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max}
}

// Append pushes e to the front and evicts the oldest beyond the bound.
// POST: Len() <= max
func (l *Log) Append(e Entry) {
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

// Latest returns the newest entry.
func (l *Log) Latest() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0], true
}

// PopLatest removes and returns the newest entry.
func (l *Log) PopLatest() (Entry, bool) {
	e, ok := l.Latest()
	if ok {
		l.entries = l.entries[1:]
	}
	return e, ok
}

// Entries returns up to limit entries, newest first (all when limit <= 0).
func (l *Log) Entries(limit int) []Entry {
	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, l.entries[:n])
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return len(l.entries) }
