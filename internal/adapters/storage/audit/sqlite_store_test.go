package audit

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"squadxp/internal/adapters/storage"
	domain "squadxp/internal/domain/audit"
	"squadxp/internal/domain/category"
)

var base = time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func entry(i int, athleteID string, delta int) domain.Entry {
	return domain.NewEntry("coach", domain.KindCheckpoint, base.Add(time.Duration(i)*time.Second)).
		WithAthlete(athleteID, "Name "+athleteID, "seniors").
		WithCategory(category.Attendance).
		WithAction(fmt.Sprintf("action %d", i), delta)
}

func TestSQLiteStore_AppendLatest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, sql.ErrNoRows)

	first := entry(1, "a1", 10)
	second := entry(2, "a2", -10)
	require.NoError(t, s.Append(ctx, first, 10))
	require.NoError(t, s.Append(ctx, second, 10))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)
	require.Equal(t, -10, got.XPDelta)
	require.Equal(t, category.Attendance, got.Category)
	require.Equal(t, domain.KindCheckpoint, got.Kind)
	require.True(t, got.Timestamp.Equal(second.Timestamp))

	require.NoError(t, s.Delete(ctx, second.ID))
	got, err = s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
}

func TestSQLiteStore_AppendTrimsOldest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var ids []string
	for i := 0; i < 8; i++ {
		e := entry(i, "a1", 5)
		ids = append(ids, e.ID)
		require.NoError(t, s.Append(ctx, e, 5))
	}

	got, err := s.List(ctx, Filter{}, 100)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, ids[7], got[0].ID)
	require.Equal(t, ids[3], got[4].ID)
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Append(ctx, entry(1, "a1", 5), 50))
	require.NoError(t, s.Append(ctx, entry(2, "a2", 5), 50))
	reset := domain.NewEntry("coach", domain.KindReset, base).WithAthlete("", "", "juniors").WithAction("reset day", 0)
	require.NoError(t, s.Append(ctx, reset, 50))

	byAthlete, err := s.List(ctx, Filter{AthleteID: "a2"}, 10)
	require.NoError(t, err)
	require.Len(t, byAthlete, 1)

	byGroup, err := s.List(ctx, Filter{Group: "seniors"}, 10)
	require.NoError(t, err)
	require.Len(t, byGroup, 2)

	byKind, err := s.List(ctx, Filter{Kind: domain.KindReset}, 10)
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	require.Equal(t, "juniors", byKind[0].Group)

	limited, err := s.List(ctx, Filter{}, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}
