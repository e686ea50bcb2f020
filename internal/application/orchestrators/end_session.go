package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/session"
)

// SweepActor is recorded as the archiver of automatic archives.
const SweepActor = "sweep"

// EndSessionInput carries input for a manual end of practice.
type EndSessionInput struct {
	Group string
	Actor string
}

// ArchiveResult reports whether a slot was archived.
type ArchiveResult struct {
	Archived bool           `json:"archived"`
	Record   session.Record `json:"record"`
}

// ExecuteEndSession archives a group's live practice on request.
// PRE: Group is non-empty
// POST: When live, the slot's record is written (replacing any earlier
// archive of the same slot), live fields are cleared for this group only and
// a fresh session id is stamped. Idle groups are left untouched.
func ExecuteEndSession(ctx context.Context, input EndSessionInput, deps EngineDeps) (ArchiveResult, error) {
	defer deps.lock()()

	if input.Group == "" {
		return ArchiveResult{}, session.ErrEmptyGroup
	}
	live, err := deps.Live.GetLive(ctx, input.Group)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("load live session %s: %w", input.Group, err)
	}
	if !live.IsLive() {
		return ArchiveResult{}, nil
	}
	now := deps.Clock.Now()
	rec, err := archive(ctx, deps, live, now, now, deps.Clock.Today(), input.Actor, session.ReasonManual)
	if err != nil {
		return ArchiveResult{}, err
	}
	return ArchiveResult{Archived: true, Record: rec}, nil
}

// SweepResult lists the slots a sweep archived.
type SweepResult struct {
	Archived []session.SlotKey `json:"archived"`
	Failed   int               `json:"failed"`
}

// ExecuteSweep archives every stale live practice. It is idempotent and safe
// to call redundantly from the periodic worker and the app-resume hook.
// PRE: none
// POST: No stored live state is stale; a failing group is logged and skipped
func ExecuteSweep(ctx context.Context, deps EngineDeps) (SweepResult, error) {
	defer deps.lock()()

	res := SweepResult{Archived: []session.SlotKey{}}
	states, err := deps.Live.ListLive(ctx)
	if err != nil {
		return res, fmt.Errorf("list live sessions: %w", err)
	}
	now := deps.Clock.Now()
	today := deps.Clock.Today()
	for _, live := range states {
		rec, archived, err := archiveIfStale(ctx, deps, live.Group, now, today)
		if err != nil {
			res.Failed++
			slog.Error("sweep_archive_failed", "group", live.Group, "error", err)
			continue
		}
		if archived {
			res.Archived = append(res.Archived, rec.Slot)
		}
	}
	return res, nil
}

// archiveIfStale is maybeArchiveIfStale for one group.
// PRE: caller holds the engine lock
// POST: Returns archived=false when the group is idle or still active
func archiveIfStale(ctx context.Context, deps EngineDeps, group string, now time.Time, today string) (session.Record, bool, error) {
	live, err := deps.Live.GetLive(ctx, group)
	if err != nil {
		return session.Record{}, false, fmt.Errorf("load live session %s: %w", group, err)
	}
	if !live.IsStale(now, today, deps.rules().InactivityTimeout) {
		return session.Record{}, false, nil
	}
	reason := session.ReasonInactivity
	if live.Date != today {
		reason = session.ReasonRollover
	}
	rec, err := archive(ctx, deps, live, now, live.LastActivity, today, SweepActor, reason)
	if err != nil {
		return session.Record{}, false, err
	}
	return rec, true, nil
}

// archive snapshots a live group, clears it and stamps a new session id.
// Streaks are healed on the way since the sweep is a read point.
func archive(ctx context.Context, deps EngineDeps, live session.LiveState, now, end time.Time, today, actor, reason string) (session.Record, error) {
	group := live.Group
	athletes, err := deps.Roster.GetGroup(ctx, group)
	if err != nil {
		return session.Record{}, fmt.Errorf("load group %s: %w", group, err)
	}
	for i := range athletes {
		athletes[i].Heal(today)
	}

	rec, err := session.Build(deps.newID(), live, athletes, end, deps.Clock.Location(), actor, reason)
	if err != nil {
		return session.Record{}, err
	}
	if err := deps.Records.SaveRecord(ctx, rec); err != nil {
		return session.Record{}, fmt.Errorf("save session record %s: %w", rec.Slot, err)
	}

	for i := range athletes {
		athletes[i].ClearLive()
	}
	if err := deps.Roster.SaveGroup(ctx, group, athletes); err != nil {
		return session.Record{}, fmt.Errorf("save group %s: %w", group, err)
	}
	live.Reset(deps.newID())
	if err := deps.Live.SaveLive(ctx, live); err != nil {
		return session.Record{}, fmt.Errorf("save live session %s: %w", group, err)
	}

	entry := audit.NewEntry(actor, audit.KindSession, now).
		WithAthlete("", "", group).
		WithAction(fmt.Sprintf("archived %s practice (%s)", rec.Slot.TimeOfDay, reason), 0)
	if err := deps.Audit.Append(ctx, entry, deps.rules().AuditMaxEntries); err != nil {
		return session.Record{}, fmt.Errorf("append audit: %w", err)
	}

	slog.Info("session_event", "event", "session_archived", "slot", rec.Slot.String(), "reason", reason,
		"actor", actor, "athletes", rec.Counts.Athletes, "active", rec.Counts.Active)

	publishRecord(deps, rec, now)
	publishGroup(ctx, deps, group, athletes, now)
	publishAudit(ctx, deps, now)
	return rec, nil
}
