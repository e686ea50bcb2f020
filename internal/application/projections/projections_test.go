package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	auditstore "squadxp/internal/adapters/storage/audit"
	sessionstore "squadxp/internal/adapters/storage/session"
	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/session"
	"squadxp/internal/domain/snapshot"
	"squadxp/internal/domain/streak"
)

var now = time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)

type mockRoster struct {
	groups map[string][]athlete.Athlete
}

func (m *mockRoster) GetGroup(_ context.Context, group string) ([]athlete.Athlete, error) {
	return m.groups[group], nil
}

type mockLive struct {
	states map[string]session.LiveState
}

func (m *mockLive) GetLive(_ context.Context, group string) (session.LiveState, error) {
	if s, ok := m.states[group]; ok {
		return s, nil
	}
	return session.NewLiveState(group, ""), nil
}

// mockAudit records the filter and limit it was asked for.
type mockAudit struct {
	entries []audit.Entry
	filter  auditstore.Filter
	limit   int
}

func (m *mockAudit) List(_ context.Context, f auditstore.Filter, limit int) ([]audit.Entry, error) {
	m.filter = f
	m.limit = limit
	if len(m.entries) > limit {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

type mockRecords struct {
	records []session.Record
	filter  sessionstore.RecordFilter
}

func (m *mockRecords) GetRecord(_ context.Context, slotKey string) (session.Record, error) {
	for _, r := range m.records {
		if r.Slot.String() == slotKey {
			return r, nil
		}
	}
	return session.Record{}, errors.New("not found")
}

func (m *mockRecords) ListRecords(_ context.Context, f sessionstore.RecordFilter) ([]session.Record, error) {
	m.filter = f
	return m.records, nil
}

type mockSnapshots struct {
	daily      []snapshot.Daily
	challenges []snapshot.TeamChallenge
}

func (m *mockSnapshots) ListDaily(_ context.Context, group, from, to string) ([]snapshot.Daily, error) {
	var out []snapshot.Daily
	for _, d := range m.daily {
		if d.Group == group && d.Date >= from && d.Date <= to {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockSnapshots) GetChallenge(_ context.Context, id string) (snapshot.TeamChallenge, error) {
	for _, c := range m.challenges {
		if c.ID == id {
			return c, nil
		}
	}
	return snapshot.TeamChallenge{}, errors.New("not found")
}

func (m *mockSnapshots) ListChallenges(_ context.Context, group string) ([]snapshot.TeamChallenge, error) {
	var out []snapshot.TeamChallenge
	for _, c := range m.challenges {
		if c.Group == group {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- QueryGroupDashboard tests ---

func TestQueryGroupDashboard_OrdersAndHeals(t *testing.T) {
	stale := athlete.Athlete{ID: "a1", Name: "Ava", Group: "seniors", XP: 260,
		Streak:  streak.Counter{Days: 9, LastDate: "2026-03-01"},
		DailyXP: athlete.DailyXP{Date: "2026-03-03", Pool: 120}}
	hot := athlete.Athlete{ID: "a2", Name: "Ben", Group: "seniors", XP: 1200,
		Streak:   streak.Counter{Days: 7, LastDate: "2026-03-03"},
		DailyXP:  athlete.DailyXP{Date: "2026-03-04", Pool: 40, Weight: 10},
		Presence: athlete.Presence{Pool: true}}
	tie := athlete.Athlete{ID: "a3", Name: "Abe", Group: "seniors", XP: 260}
	roster := &mockRoster{groups: map[string][]athlete.Athlete{"seniors": {stale, hot, tie}}}
	live := &mockLive{states: map[string]session.LiveState{"seniors": {
		Group: "seniors", SessionID: "s1", Date: "2026-03-04", FirstActivity: now, LastActivity: now, Mode: session.ModeFor(category.Attendance),
	}}}

	res, err := QueryGroupDashboard(context.Background(), GroupDashboardQuery{Group: "seniors"}, GroupDashboardDeps{
		Roster: roster, Live: live, Clock: clock.NewFixed(now),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Athletes) != 3 {
		t.Fatalf("expected 3 athletes, got %d", len(res.Athletes))
	}
	order := []string{res.Athletes[0].Athlete.ID, res.Athletes[1].Athlete.ID, res.Athletes[2].Athlete.ID}
	if order[0] != "a2" || order[1] != "a3" || order[2] != "a1" {
		t.Errorf("expected a2, a3, a1 ordering, got %v", order)
	}

	ben := res.Athletes[0]
	if ben.AttendanceTier != "hot" || ben.AttendanceMult != 1.5 {
		t.Errorf("expected hot tier, got %s x%.2f", ben.AttendanceTier, ben.AttendanceMult)
	}
	if ben.XPToday != 50 || ben.RoomLeft != 100 {
		t.Errorf("expected 50 earned and 100 left, got %d/%d", ben.XPToday, ben.RoomLeft)
	}
	if ben.Level.Number != 5 || ben.NextLevel == nil || ben.NextLevel.Number != 6 {
		t.Errorf("unexpected level %+v next %+v", ben.Level, ben.NextLevel)
	}

	ava := res.Athletes[2]
	if ava.Athlete.Streak.Days != 0 || ava.AttendanceTier != "none" {
		t.Errorf("expected stale streak healed to 0, got %d (%s)", ava.Athlete.Streak.Days, ava.AttendanceTier)
	}
	if ava.XPToday != 0 || ava.RoomLeft != 150 {
		t.Errorf("expected yesterday's dailyXP rolled over, got %d/%d", ava.XPToday, ava.RoomLeft)
	}
	if roster.groups["seniors"][0].Streak.Days != 9 {
		t.Error("expected stored athlete left untouched")
	}

	if res.State != session.StateLive || res.StartedAt == nil || res.PresentCount != 1 || res.TotalXP != 1720 {
		t.Errorf("unexpected header %+v", res)
	}
}

func TestQueryGroupDashboard_IdleAndEmpty(t *testing.T) {
	deps := GroupDashboardDeps{Roster: &mockRoster{}, Live: &mockLive{}, Clock: clock.NewFixed(now)}

	res, err := QueryGroupDashboard(context.Background(), GroupDashboardQuery{Group: "juniors"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != session.StateIdle || res.StartedAt != nil || res.Athletes == nil {
		t.Errorf("expected idle empty dashboard, got %+v", res)
	}

	if _, err := QueryGroupDashboard(context.Background(), GroupDashboardQuery{}, deps); !errors.Is(err, session.ErrEmptyGroup) {
		t.Errorf("expected ErrEmptyGroup, got %v", err)
	}
}

// --- QueryActivityFeed tests ---

func TestQueryActivityFeed(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default", 0, DefaultFeedLimit},
		{"explicit", 2, 2},
		{"clamped", 10000, MaxFeedLimit},
	}
	entries := []audit.Entry{{ID: "e3", XPDelta: 25}, {ID: "e2", XPDelta: -10}, {ID: "e1", XPDelta: 10}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockAudit{entries: entries}
			res, err := QueryActivityFeed(context.Background(), ActivityFeedQuery{Group: "seniors", Kind: audit.KindCheckpoint, Limit: tt.limit}, ActivityFeedDeps{Audit: m})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.limit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, m.limit)
			}
			if m.filter.Group != "seniors" || m.filter.Kind != audit.KindCheckpoint {
				t.Errorf("expected filter passed through, got %+v", m.filter)
			}
			if tt.limit == 2 && (len(res.Entries) != 2 || res.NetXP != 15) {
				t.Errorf("expected 2 entries netting 15, got %d/%d", len(res.Entries), res.NetXP)
			}
		})
	}

	res, err := QueryActivityFeed(context.Background(), ActivityFeedQuery{}, ActivityFeedDeps{Audit: &mockAudit{}})
	if err != nil || res.Entries == nil {
		t.Errorf("expected empty non-nil entries, got %v err=%v", res.Entries, err)
	}
}

// --- QuerySessionHistory tests ---

func TestQuerySessionHistory(t *testing.T) {
	slot := session.SlotKey{Date: "2026-03-04", Group: "seniors", TimeOfDay: session.AM}
	m := &mockRecords{records: []session.Record{
		{ID: "r2", Slot: slot, Counts: session.Counts{Pool: 3, Weight: 1}, Athletes: []session.AthleteSnapshot{{AthleteID: "a1", XPEarned: 30}, {AthleteID: "a2", XPEarned: 15}}},
		{ID: "r1", Slot: session.SlotKey{Date: "2026-03-03", Group: "seniors", TimeOfDay: session.PM}, Counts: session.Counts{Meet: 2}},
	}}
	deps := SessionHistoryDeps{Records: m}

	res, err := QuerySessionHistory(context.Background(), SessionHistoryQuery{Group: "seniors", FromDate: "2026-03-01", ToDate: "2026-03-31"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := SessionSummary{Sessions: 2, PoolVisits: 3, GymVisits: 1, MeetVisits: 2, XPEarned: 45}
	if res.Summary != want {
		t.Errorf("expected %+v, got %+v", want, res.Summary)
	}
	if m.filter.Group != "seniors" || m.filter.FromDate != "2026-03-01" {
		t.Errorf("expected filter passed through, got %+v", m.filter)
	}

	rec, err := QuerySessionRecord(context.Background(), slot, deps)
	if err != nil || rec.ID != "r2" {
		t.Errorf("expected r2, got %+v err=%v", rec, err)
	}

	if _, err := QuerySessionHistory(context.Background(), SessionHistoryQuery{FromDate: "March 1"}, deps); !errors.Is(err, clock.ErrBadDate) {
		t.Errorf("expected ErrBadDate, got %v", err)
	}
	if _, err := QuerySessionHistory(context.Background(), SessionHistoryQuery{FromDate: "2026-03-31", ToDate: "2026-03-01"}, deps); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

// --- challenge tests ---

func TestQueryTeamChallenge(t *testing.T) {
	m := &mockSnapshots{
		challenges: []snapshot.TeamChallenge{
			{ID: "c1", Group: "seniors", Name: "March", TargetXP: 400, StartDate: "2026-03-01", EndDate: "2026-03-31"},
			{ID: "c2", Group: "juniors", Name: "Sprint", TargetXP: 50, StartDate: "2026-03-01", EndDate: "2026-03-07"},
		},
		daily: []snapshot.Daily{
			{Date: "2026-02-28", Group: "seniors", XPToday: 500},
			{Date: "2026-03-02", Group: "seniors", XPToday: 120},
			{Date: "2026-03-03", Group: "seniors", XPToday: 80},
			{Date: "2026-03-03", Group: "juniors", XPToday: 60},
		},
	}
	deps := TeamChallengeDeps{Snapshots: m}

	p, err := QueryTeamChallenge(context.Background(), "c1", deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.EarnedXP != 200 || p.Percent != 50 || p.Complete {
		t.Errorf("expected 200/50%%/incomplete, got %+v", p)
	}

	list, err := QueryGroupChallenges(context.Background(), "juniors", deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || !list[0].Complete || list[0].Percent != 100 {
		t.Errorf("expected completed juniors challenge, got %+v", list)
	}

	if _, err := QueryTeamChallenge(context.Background(), "missing", deps); err == nil {
		t.Error("expected error for unknown challenge")
	}
}
