package clock

import (
	"errors"
	"sync"
	"time"
)

// DateLayout is the calendar-date form used for every date comparison.
const DateLayout = "2006-01-02"

// ErrBadDate is returned when a stored date string cannot be parsed.
var ErrBadDate = errors.New("date must be YYYY-MM-DD")

// Clock supplies "now" and "today" to the engine.
type Clock interface {
	Now() time.Time
	Today() string
	Location() *time.Location
}

// System reads the wall clock in a fixed location.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock for loc (local time when nil).
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{loc: loc}
}

// Now returns the current instant in the clock's location.
func (s *System) Now() time.Time { return time.Now().In(s.loc) }

// Today returns the current calendar date.
func (s *System) Today() string { return s.Now().Format(DateLayout) }

// Location returns the clock's time zone.
func (s *System) Location() *time.Location { return s.loc }

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the frozen instant.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Today returns the frozen instant's date.
func (f *Fixed) Today() string { return f.Now().Format(DateLayout) }

// Location returns the frozen instant's location.
func (f *Fixed) Location() *time.Location { return f.Now().Location() }

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// DateOf formats t as a calendar date in c's location.
func DateOf(c Clock, t time.Time) string {
	return t.In(c.Location()).Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b.
// PRE: a and b are YYYY-MM-DD strings
// POST: Returns b - a in whole days (negative when b is earlier)
func DaysBetween(a, b string) (int, error) {
	ta, err := time.Parse(DateLayout, a)
	if err != nil {
		return 0, ErrBadDate
	}
	tb, err := time.Parse(DateLayout, b)
	if err != nil {
		return 0, ErrBadDate
	}
	// Both parse as UTC midnight so the division is exact.
	return int(tb.Sub(ta).Hours() / 24), nil
}
