package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"squadxp/internal/adapters/mirror"
	auditstore "squadxp/internal/adapters/storage/audit"
	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/checkpoint"
	"squadxp/internal/domain/clock"
	"squadxp/internal/domain/session"
	"squadxp/internal/domain/snapshot"
)

// mockRosterStore implements RosterStore with per-call copies, so tests see
// only what was saved.
type mockRosterStore struct {
	groups  map[string][]athlete.Athlete
	saves   int
	saveErr error // returned by SaveGroup when set
}

func newMockRosterStore(athletes ...athlete.Athlete) *mockRosterStore {
	m := &mockRosterStore{groups: map[string][]athlete.Athlete{}}
	for _, a := range athletes {
		m.groups[a.Group] = append(m.groups[a.Group], a)
	}
	return m
}

func cloneAll(in []athlete.Athlete) []athlete.Athlete {
	out := make([]athlete.Athlete, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

func (m *mockRosterStore) ListGroups(_ context.Context) ([]string, error) {
	var gs []string
	for g := range m.groups {
		gs = append(gs, g)
	}
	sort.Strings(gs)
	return gs, nil
}

func (m *mockRosterStore) GetGroup(_ context.Context, group string) ([]athlete.Athlete, error) {
	return cloneAll(m.groups[group]), nil
}

func (m *mockRosterStore) SaveGroup(_ context.Context, group string, athletes []athlete.Athlete) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.groups[group] = cloneAll(athletes)
	return nil
}

func (m *mockRosterStore) FindAthlete(_ context.Context, id string) (athlete.Athlete, error) {
	for _, as := range m.groups {
		for _, a := range as {
			if a.ID == id {
				return a.Clone(), nil
			}
		}
	}
	return athlete.Athlete{}, fmt.Errorf("athlete %s: %w", id, athlete.ErrNotFound)
}

func (m *mockRosterStore) All(_ context.Context) (map[string][]athlete.Athlete, error) {
	out := map[string][]athlete.Athlete{}
	for g, as := range m.groups {
		out[g] = cloneAll(as)
	}
	return out, nil
}

// get returns the stored athlete for assertions.
func (m *mockRosterStore) get(t *testing.T, id string) athlete.Athlete {
	t.Helper()
	a, err := m.FindAthlete(context.Background(), id)
	if err != nil {
		t.Fatalf("athlete %s not stored: %v", id, err)
	}
	return a
}

// mockLiveStore implements LiveStore.
type mockLiveStore struct {
	states map[string]session.LiveState
}

func newMockLiveStore() *mockLiveStore {
	return &mockLiveStore{states: map[string]session.LiveState{}}
}

func cloneLive(s session.LiveState) session.LiveState {
	if s.XPEarned != nil {
		m := make(map[string]int, len(s.XPEarned))
		for k, v := range s.XPEarned {
			m[k] = v
		}
		s.XPEarned = m
	}
	return s
}

func (m *mockLiveStore) GetLive(_ context.Context, group string) (session.LiveState, error) {
	s, ok := m.states[group]
	if !ok {
		return session.NewLiveState(group, ""), nil
	}
	return cloneLive(s), nil
}

func (m *mockLiveStore) SaveLive(_ context.Context, s session.LiveState) error {
	m.states[s.Group] = cloneLive(s)
	return nil
}

func (m *mockLiveStore) ListLive(_ context.Context) ([]session.LiveState, error) {
	var out []session.LiveState
	for _, s := range m.states {
		out = append(out, cloneLive(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

// mockRecordStore implements RecordStore with slot replace semantics.
type mockRecordStore struct {
	records map[string]session.Record
	saves   int
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{records: map[string]session.Record{}}
}

func (m *mockRecordStore) SaveRecord(_ context.Context, r session.Record) error {
	m.saves++
	m.records[r.Slot.String()] = r
	return nil
}

// mockAuditStore implements AuditStore as a newest-first slice.
type mockAuditStore struct {
	entries []audit.Entry
}

func (m *mockAuditStore) Append(_ context.Context, e audit.Entry, max int) error {
	m.entries = append([]audit.Entry{e}, m.entries...)
	if len(m.entries) > max {
		m.entries = m.entries[:max]
	}
	return nil
}

func (m *mockAuditStore) Latest(_ context.Context) (audit.Entry, error) {
	if len(m.entries) == 0 {
		return audit.Entry{}, fmt.Errorf("audit log empty: %w", sql.ErrNoRows)
	}
	return m.entries[0], nil
}

func (m *mockAuditStore) Delete(_ context.Context, id string) error {
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockAuditStore) List(_ context.Context, f auditstore.Filter, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range m.entries {
		if f.Group != "" && e.Group != f.Group {
			continue
		}
		if f.AthleteID != "" && e.AthleteID != f.AthleteID {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// mockPublisher records mirror messages.
type mockPublisher struct {
	mu   sync.Mutex
	msgs []mirror.Message
}

func (m *mockPublisher) Publish(msg mirror.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return true
}

func (m *mockPublisher) kinds() map[mirror.Kind]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[mirror.Kind]int{}
	for _, msg := range m.msgs {
		out[msg.Kind]++
	}
	return out
}

// mockSnapshotStore implements SnapshotStore.
type mockSnapshotStore struct {
	daily      map[string]snapshot.Daily
	challenges []snapshot.TeamChallenge
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{daily: map[string]snapshot.Daily{}}
}

func (m *mockSnapshotStore) SaveDaily(_ context.Context, d snapshot.Daily) error {
	m.daily[d.Date+"|"+d.Group] = d
	return nil
}

func (m *mockSnapshotStore) SaveChallenge(_ context.Context, c snapshot.TeamChallenge) error {
	m.challenges = append(m.challenges, c)
	return nil
}

// testEngine bundles deps with handles on the mocks.
type testEngine struct {
	deps    EngineDeps
	roster  *mockRosterStore
	live    *mockLiveStore
	records *mockRecordStore
	audit   *mockAuditStore
	mirror  *mockPublisher
	clock   *clock.Fixed
}

// practiceStart is 06:30 on a Wednesday, an AM slot.
var practiceStart = time.Date(2026, 3, 4, 6, 30, 0, 0, time.UTC)

const practiceDay = "2026-03-04"

func newTestEngine(athletes ...athlete.Athlete) *testEngine {
	seq := 0
	e := &testEngine{
		roster:  newMockRosterStore(athletes...),
		live:    newMockLiveStore(),
		records: newMockRecordStore(),
		audit:   &mockAuditStore{},
		mirror:  &mockPublisher{},
		clock:   clock.NewFixed(practiceStart),
	}
	e.deps = EngineDeps{
		Roster:  e.roster,
		Live:    e.live,
		Records: e.records,
		Audit:   e.audit,
		Catalog: checkpoint.Default(),
		Clock:   e.clock,
		Rules:   DefaultRules(),
		Mirror:  e.mirror,
		Mu:      &sync.Mutex{},
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		},
	}
	return e
}

func swimmer(id, group string) athlete.Athlete {
	return athlete.Athlete{ID: id, Name: "Swimmer " + id, Group: group}
}

// withStreak returns a with an attendance streak credited yesterday.
func withStreak(a athlete.Athlete, days int) athlete.Athlete {
	a.Streak.Days = days
	a.Streak.LastDate = "2026-03-03"
	return a
}

// liveFor returns the stored live state for group.
func (e *testEngine) liveFor(group string) *session.LiveState {
	s := e.live.states[group]
	return &s
}
