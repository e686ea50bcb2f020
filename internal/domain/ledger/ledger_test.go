package ledger_test

import (
	"math/rand"
	"testing"

	"squadxp/internal/domain/athlete"
	"squadxp/internal/domain/category"
	"squadxp/internal/domain/ledger"
	"squadxp/internal/domain/streak"
)

const today = "2026-03-04"

func sevenDayAthlete() *athlete.Athlete {
	return &athlete.Athlete{
		ID: "a1", Name: "Mia", Group: "gold",
		Streak: streak.Counter{Days: 7, LastDate: "2026-03-03"},
	}
}

func TestAward_AppliesMultiplier(t *testing.T) {
	a := sevenDayAthlete()
	got := ledger.Award(a, 25, category.Attendance, today, 150)
	if got != 38 {
		t.Fatalf("Award = %d, want 38 (25 x 1.5 rounded)", got)
	}
	if a.XP != 38 || a.DailyXP.Pool != 38 || a.DailyXP.Date != today {
		t.Errorf("athlete after award = XP %d daily %+v", a.XP, a.DailyXP)
	}
}

func TestAward_LimitedByRoom(t *testing.T) {
	a := sevenDayAthlete()
	a.DailyXP = athlete.DailyXP{Date: today, Pool: 100, Weight: 30, Meet: 10}
	got := ledger.Award(a, 25, category.Attendance, today, 150)
	if got != 10 {
		t.Fatalf("Award = %d, want 10 with 140 used of 150", got)
	}
	if a.DailyXP.Total() != 150 {
		t.Errorf("daily total = %d, want 150", a.DailyXP.Total())
	}
}

func TestAward_CapReachedIsZero(t *testing.T) {
	a := sevenDayAthlete()
	a.XP = 500
	a.DailyXP = athlete.DailyXP{Date: today, Pool: 150}
	if got := ledger.Award(a, 25, category.Strength, today, 150); got != 0 {
		t.Errorf("Award at cap = %d, want 0", got)
	}
	if a.XP != 500 {
		t.Errorf("XP changed at cap: %d", a.XP)
	}
}

func TestAward_StaleDailyXPResets(t *testing.T) {
	a := sevenDayAthlete()
	a.DailyXP = athlete.DailyXP{Date: "2026-03-03", Pool: 150}
	if got := ledger.Award(a, 10, category.Competition, today, 150); got != 15 {
		t.Fatalf("Award = %d, want 15", got)
	}
	if a.DailyXP.Pool != 0 || a.DailyXP.Meet != 15 {
		t.Errorf("daily = %+v, want only today's meet XP", a.DailyXP)
	}
}

func TestRevert_RoundTrip(t *testing.T) {
	a := sevenDayAthlete()
	a.XP = 200
	a.DailyXP = athlete.DailyXP{Date: today, Weight: 20}
	before := *a
	ledger.Award(a, 25, category.Attendance, today, 150)
	ledger.Revert(a, 25, category.Attendance, today)
	if a.XP != before.XP || a.DailyXP != before.DailyXP {
		t.Errorf("round trip: XP %d daily %+v, want %d %+v", a.XP, a.DailyXP, before.XP, before.DailyXP)
	}
}

func TestRevertFor_CappedRoundTrip(t *testing.T) {
	a := &athlete.Athlete{ID: "a1", Name: "Mia", Group: "gold", XP: 500}
	a.DailyXP = athlete.DailyXP{Date: today, Pool: 140}
	key := athlete.CheckpointKey(category.Attendance, "extra-effort")

	on := ledger.AwardFor(a, key, 25, category.Attendance, today, 150)
	off := ledger.RevertFor(a, key, 25, category.Attendance, today)
	if on != 10 || off != 10 {
		t.Fatalf("on = %d off = %d, want 10 and 10", on, off)
	}
	if a.XP != 500 || a.DailyXP.Pool != 140 {
		t.Errorf("XP %d pool %d, want 500 and 140", a.XP, a.DailyXP.Pool)
	}
	if _, ok := a.Grants[key]; ok {
		t.Error("grant should be consumed by the revert")
	}
}

func TestRevertFor_UncappedUsesCurrentMultiplier(t *testing.T) {
	a := &athlete.Athlete{ID: "a1", Name: "Mia", Group: "gold", XP: 100}
	key := athlete.CheckpointKey(category.Attendance, "all-basics")

	if got := ledger.AwardFor(a, key, 20, category.Attendance, today, 150); got != 20 {
		t.Fatalf("award = %d, want 20", got)
	}
	a.Streak = streak.Counter{Days: 7, LastDate: today}
	if got := ledger.RevertFor(a, key, 20, category.Attendance, today); got != 30 {
		t.Errorf("revert = %d, want 30 at the 1.5 multiplier now in effect", got)
	}
}

func TestRevertFor_IgnoresGrantFromAnotherDay(t *testing.T) {
	a := &athlete.Athlete{ID: "a1", Name: "Mia", Group: "gold", XP: 100}
	key := athlete.QuestKey("q1")
	a.RecordGrant(key, athlete.Grant{Date: "2026-03-01", XP: 3, Capped: true})

	if got := ledger.RevertFor(a, key, 20, category.Attendance, today); got != 20 {
		t.Errorf("revert = %d, want the full 20", got)
	}
}

func TestRevert_NeverNegative(t *testing.T) {
	a := sevenDayAthlete()
	a.XP = 10
	removed := ledger.Revert(a, 25, category.Attendance, today)
	if a.XP != 0 || removed != 10 {
		t.Errorf("XP = %d removed = %d, want 0 and 10", a.XP, removed)
	}
	if a.DailyXP.Pool != 0 {
		t.Errorf("Pool slot = %d, want 0", a.DailyXP.Pool)
	}
}

func TestSubtract_IgnoresNonPositive(t *testing.T) {
	a := sevenDayAthlete()
	a.XP = 50
	if ledger.Subtract(a, 0, category.Attendance, today) != 0 || ledger.Subtract(a, -5, category.Attendance, today) != 0 {
		t.Error("Subtract should ignore non-positive deltas")
	}
	if a.XP != 50 {
		t.Errorf("XP = %d, want 50", a.XP)
	}
}

// TestLedger_Invariants drives random award/revert sequences and checks
// that XP never goes negative and the daily cap is never exceeded.
func TestLedger_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	cats := category.All
	for run := 0; run < 200; run++ {
		a := &athlete.Athlete{Streak: streak.Counter{Days: r.Intn(80), LastDate: today}, WeightStreak: streak.Counter{Days: r.Intn(10), LastDate: today}}
		for step := 0; step < 50; step++ {
			c := cats[r.Intn(len(cats))]
			base := r.Intn(40)
			if r.Intn(3) == 0 {
				ledger.Revert(a, base, c, today)
			} else {
				ledger.Award(a, base, c, today, ledger.DefaultDailyCap)
			}
			if a.XP < 0 {
				t.Fatalf("run %d step %d: XP went negative (%d)", run, step, a.XP)
			}
			if a.DailyXP.Total() > ledger.DefaultDailyCap {
				t.Fatalf("run %d step %d: daily total %d exceeds cap", run, step, a.DailyXP.Total())
			}
		}
	}
}
