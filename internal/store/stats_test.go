package store

import (
	"context"
	"errors"
	"testing"
)

func TestStatsUpgradeAndReset(t *testing.T) {
	db := openTestDB(t)
	seedProfile(t, db, "p1", 10)
	ss := NewStatsStore(db)
	ctx := context.Background()

	st, err := ss.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if st.Strength != 0 || st.Luck != 0 {
		t.Errorf("new stats = %+v, want zeros", st)
	}

	// Level 0 -> 1 costs 2, 1 -> 2 costs 4.
	st, balance, err := ss.Upgrade(ctx, "p1", "strength")
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if st.Strength != 1 || balance != 8 {
		t.Errorf("after first upgrade strength=%d balance=%d, want 1, 8", st.Strength, balance)
	}
	st, balance, err = ss.Upgrade(ctx, "p1", "strength")
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if st.Strength != 2 || balance != 4 {
		t.Errorf("after second upgrade strength=%d balance=%d, want 2, 4", st.Strength, balance)
	}

	// 2 -> 3 costs 6, more than the 4 left.
	if _, _, err := ss.Upgrade(ctx, "p1", "strength"); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("err = %v, want ErrInsufficientPoints", err)
	}
	if got := mustPoints(t, db, "p1"); got != 4 {
		t.Errorf("points after failed upgrade = %d, want 4", got)
	}

	if _, _, err := ss.Upgrade(ctx, "p1", "charisma"); err == nil {
		t.Error("expected error for unknown stat")
	}

	st, balance, err = ss.Reset(ctx, "p1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if st.Strength != 0 || balance != 10 {
		t.Errorf("after reset strength=%d balance=%d, want 0, 10", st.Strength, balance)
	}
}
