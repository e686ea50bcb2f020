package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/audit"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/streak"
)

var at = time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC)

func TestGroupMessage_Golden(t *testing.T) {
	a := athlete.Athlete{
		ID:      "a1",
		Name:    "Aroha",
		Group:   "seniors",
		XP:      38,
		Streak:  streak.Counter{Days: 7, LastDate: "2026-03-04"},
		DailyXP: athlete.DailyXP{Date: "2026-03-04", Pool: 38},
	}
	a.SetCheckpoint(category.Attendance, "on-time", true)
	a.SetPresent(category.Attendance, true)

	m, err := GroupMessage("seniors", []athlete.Athlete{a}, at)
	require.NoError(t, err)
	body, err := m.Encode()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "group_message", body)
}

func TestAuditMessage_Golden(t *testing.T) {
	e := audit.Entry{
		ID:          "e1",
		Timestamp:   at,
		Actor:       "coach",
		AthleteID:   "a1",
		AthleteName: "Aroha",
		Group:       "seniors",
		Category:    category.Attendance,
		Kind:        audit.KindCheckpoint,
		Action:      "on-time",
		XPDelta:     15,
	}
	m, err := AuditMessage([]audit.Entry{e}, at)
	require.NoError(t, err)
	body, err := m.Encode()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "audit_message", body)
}

func TestAuditMessage_EmptyIsArray(t *testing.T) {
	m, err := AuditMessage(nil, at)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(m.Payload))
}

func TestRedisSink_Keys(t *testing.T) {
	s := NewRedisSink(NewRedisClient(RedisOptions{Addr: "127.0.0.1:1"}), "")
	m, err := RosterMessage(map[string][]athlete.Athlete{}, at)
	require.NoError(t, err)

	require.Equal(t, "squadxp:roster", s.Key(m))
	require.Equal(t, "squadxp:changes", s.Channel())
}

func TestRedisSink_UnreachableReturnsError(t *testing.T) {
	s := NewRedisSink(NewRedisClient(RedisOptions{Addr: "127.0.0.1:1"}), "test")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.Error(t, s.Write(ctx, msg("roster")))
}
