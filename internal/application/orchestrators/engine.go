package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"squadxp/internal/adapters/mirror"
	auditstore "squadxp/internal/adapters/storage/audit"
	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/checkpoint"
	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/ledger"
	"squadxp/internal/domain/level"
	"squadxp/internal/domain/session"
)

// RosterStore defines the roster persistence needed by the engine.
type RosterStore interface {
	ListGroups(ctx context.Context) ([]string, error)
	GetGroup(ctx context.Context, group string) ([]athlete.Athlete, error)
	SaveGroup(ctx context.Context, group string, athletes []athlete.Athlete) error
	FindAthlete(ctx context.Context, id string) (athlete.Athlete, error)
	All(ctx context.Context) (map[string][]athlete.Athlete, error)
}

// LiveStore defines the live session persistence needed by the engine.
type LiveStore interface {
	GetLive(ctx context.Context, group string) (session.LiveState, error)
	SaveLive(ctx context.Context, state session.LiveState) error
	ListLive(ctx context.Context) ([]session.LiveState, error)
}

// RecordStore defines the session record persistence needed by the engine.
type RecordStore interface {
	SaveRecord(ctx context.Context, record session.Record) error
}

// AuditStore defines the audit persistence needed by the engine.
type AuditStore interface {
	Append(ctx context.Context, entry audit.Entry, max int) error
	Latest(ctx context.Context) (audit.Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter auditstore.Filter, limit int) ([]audit.Entry, error)
}

// Rules holds the tunable numbers of the XP economy.
type Rules struct {
	DailyCap          int
	PresenceBonus     int
	ShoutoutBonus     int
	AuditMaxEntries   int
	InactivityTimeout time.Duration
}

// DefaultRules returns the stock economy.
func DefaultRules() Rules {
	return Rules{
		DailyCap:          ledger.DefaultDailyCap,
		PresenceBonus:     5,
		ShoutoutBonus:     10,
		AuditMaxEntries:   audit.DefaultMaxEntries,
		InactivityTimeout: session.DefaultInactivityTimeout,
	}
}

// EngineDeps holds dependencies shared by every engine operation.
type EngineDeps struct {
	Roster  RosterStore
	Live    LiveStore
	Records RecordStore
	Audit   AuditStore
	Catalog *checkpoint.Catalog
	Clock   clock.Clock
	Rules   Rules
	Mirror  mirror.Publisher // optional: nil disables mirroring
	Mu      *sync.Mutex      // optional: serialises mutations between callers
	NewID   func() string    // optional: defaults to uuid.NewString
}

// lock acquires Mu when set and returns the matching release.
func (d EngineDeps) lock() func() {
	if d.Mu == nil {
		return func() {}
	}
	d.Mu.Lock()
	return d.Mu.Unlock
}

func (d EngineDeps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

func (d EngineDeps) rules() Rules {
	r := d.Rules
	def := DefaultRules()
	if r.DailyCap <= 0 {
		r.DailyCap = def.DailyCap
	}
	if r.AuditMaxEntries <= 0 {
		r.AuditMaxEntries = def.AuditMaxEntries
	}
	if r.InactivityTimeout <= 0 {
		r.InactivityTimeout = def.InactivityTimeout
	}
	return r
}

// AthleteResult is what every single-athlete operation hands back for re-render.
type AthleteResult struct {
	Athlete athlete.Athlete `json:"athlete"`
	Awarded int             `json:"awarded"` // signed XP change
	Applied bool            `json:"applied"` // false for no-ops (unknown ids, nothing to change)
	LevelUp bool            `json:"levelUp"`
	Level   level.Level     `json:"level"`
}

// change is what a mutation did to one athlete.
type change struct {
	applied  bool
	delta    int
	kind     audit.Kind
	action   string
	category category.Category
	audit    bool // write an audit entry
	touch    bool // counts as session activity
}

// mutation applies one operation to a healed athlete.
type mutation func(a *athlete.Athlete, today string) change

// mutateAthlete is the shared write path: locate, archive a stale slot,
// heal, mutate, persist synchronously, then mirror.
// PRE: caller holds the engine lock
// POST: On Applied, the group, live state and audit log are persisted
func mutateAthlete(ctx context.Context, deps EngineDeps, athleteID, actor string, fn mutation) (AthleteResult, error) {
	found, err := deps.Roster.FindAthlete(ctx, athleteID)
	if isNotFound(err) {
		slog.Info("xp_event", "event", "unknown_athlete", "athlete_id", athleteID)
		return AthleteResult{}, nil
	}
	if err != nil {
		return AthleteResult{}, fmt.Errorf("find athlete: %w", err)
	}
	group := found.Group
	now := deps.Clock.Now()
	today := deps.Clock.Today()

	if _, _, err := archiveIfStale(ctx, deps, group, now, today); err != nil {
		return AthleteResult{}, err
	}

	athletes, err := deps.Roster.GetGroup(ctx, group)
	if err != nil {
		return AthleteResult{}, fmt.Errorf("load group %s: %w", group, err)
	}
	idx := indexOf(athletes, athleteID)
	if idx < 0 {
		return AthleteResult{}, nil
	}
	a := &athletes[idx]
	a.Heal(today)
	before := a.XP

	ch := fn(a, today)
	result := AthleteResult{Athlete: a.Clone(), Level: level.ForXP(a.XP)}
	if !ch.applied {
		return result, nil
	}
	if err := a.Validate(); err != nil {
		return AthleteResult{}, err
	}

	if err := deps.Roster.SaveGroup(ctx, group, athletes); err != nil {
		return AthleteResult{}, fmt.Errorf("save group %s: %w", group, err)
	}
	if ch.touch {
		if err := touchLive(ctx, deps, group, a.ID, ch, now, today); err != nil {
			return AthleteResult{}, err
		}
	}
	if ch.audit {
		entry := audit.NewEntry(actor, ch.kind, now).
			WithAthlete(a.ID, a.Name, group).
			WithCategory(ch.category).
			WithAction(ch.action, ch.delta)
		if err := deps.Audit.Append(ctx, entry, deps.rules().AuditMaxEntries); err != nil {
			return AthleteResult{}, fmt.Errorf("append audit: %w", err)
		}
	}

	slog.Info("xp_event", "event", string(ch.kind), "athlete_id", a.ID, "group", group,
		"category", string(ch.category), "action", ch.action, "delta", ch.delta, "xp", a.XP, "actor", actor)

	publishGroup(ctx, deps, group, athletes, now)
	if ch.audit {
		publishAudit(ctx, deps, now)
	}

	result.Athlete = a.Clone()
	result.Awarded = ch.delta
	result.Applied = true
	result.LevelUp = level.Crossed(before, a.XP)
	result.Level = level.ForXP(a.XP)
	if result.LevelUp {
		slog.Info("xp_event", "event", "level_up", "athlete_id", a.ID, "level", result.Level.Number, "name", result.Level.Name)
	}
	return result, nil
}

// currentAthlete returns the stored athlete healed for display, writing
// nothing. An unknown athlete gives a zero result.
func currentAthlete(ctx context.Context, deps EngineDeps, athleteID string) (AthleteResult, error) {
	found, err := deps.Roster.FindAthlete(ctx, athleteID)
	if isNotFound(err) {
		return AthleteResult{}, nil
	}
	if err != nil {
		return AthleteResult{}, fmt.Errorf("find athlete: %w", err)
	}
	a := found.Clone()
	a.Heal(deps.Clock.Today())
	return AthleteResult{Athlete: a, Level: level.ForXP(a.XP)}, nil
}

// touchLive records session activity for group, moving Idle to Live.
func touchLive(ctx context.Context, deps EngineDeps, group, athleteID string, ch change, now time.Time, today string) error {
	live, err := deps.Live.GetLive(ctx, group)
	if err != nil {
		return fmt.Errorf("load live session %s: %w", group, err)
	}
	if live.SessionID == "" {
		live.SessionID = deps.newID()
	}
	wasLive := live.IsLive()
	live.Touch(now, today, ch.category)
	live.Credit(athleteID, ch.delta)
	if err := deps.Live.SaveLive(ctx, live); err != nil {
		return fmt.Errorf("save live session %s: %w", group, err)
	}
	if !wasLive {
		slog.Info("session_event", "event", "session_started", "group", group, "session_id", live.SessionID, "mode", string(live.Mode))
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, athlete.ErrNotFound)
}

func indexOf(athletes []athlete.Athlete, id string) int {
	for i := range athletes {
		if athletes[i].ID == id {
			return i
		}
	}
	return -1
}

// creditDay performs the once-per-day streak increment for c and bumps the
// practice counters alongside it.
// POST: Returns true if the streak moved
func creditDay(a *athlete.Athlete, c category.Category, today string) bool {
	if !a.StreakFor(c).Credit(today) {
		return false
	}
	if c == category.Strength {
		a.WeekWeightSessions++
		return true
	}
	a.TotalPractices++
	a.WeekSessions++
	return true
}

// withdrawDay reverses a creditDay made in the current practice. Credits
// from a practice already archived today are settled and stay.
func withdrawDay(a *athlete.Athlete, c category.Category, today string) bool {
	if !a.StreakFor(c).Withdraw(today) {
		return false
	}
	if c == category.Strength {
		a.WeekWeightSessions = max(a.WeekWeightSessions-1, 0)
		return true
	}
	a.TotalPractices = max(a.TotalPractices-1, 0)
	a.WeekSessions = max(a.WeekSessions-1, 0)
	return true
}

// publishGroup mirrors the full roster and the scoped group. Failures are
// logged only; the local write has already succeeded.
func publishGroup(ctx context.Context, deps EngineDeps, group string, athletes []athlete.Athlete, now time.Time) {
	if deps.Mirror == nil {
		return
	}
	roster, err := deps.Roster.All(ctx)
	if err != nil {
		slog.Warn("mirror_skipped", "kind", "roster", "error", err)
	} else if msg, err := mirror.RosterMessage(roster, now); err == nil {
		deps.Mirror.Publish(msg)
	}
	if msg, err := mirror.GroupMessage(group, athletes, now); err == nil {
		deps.Mirror.Publish(msg)
	}
}

func publishAudit(ctx context.Context, deps EngineDeps, now time.Time) {
	if deps.Mirror == nil {
		return
	}
	entries, err := deps.Audit.List(ctx, auditstore.Filter{}, deps.rules().AuditMaxEntries)
	if err != nil {
		slog.Warn("mirror_skipped", "kind", "audit", "error", err)
		return
	}
	if msg, err := mirror.AuditMessage(entries, now); err == nil {
		deps.Mirror.Publish(msg)
	}
}

func publishRecord(deps EngineDeps, r session.Record, now time.Time) {
	if deps.Mirror == nil {
		return
	}
	if msg, err := mirror.SessionMessage(r, now); err == nil {
		deps.Mirror.Publish(msg)
	}
}
