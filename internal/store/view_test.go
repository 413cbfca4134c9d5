package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

func TestRecordViewOncePerViewer(t *testing.T) {
	db := openTestDB(t)
	seedProfile(t, db, "owner", 0)
	seedProfile(t, db, "v1", 0)
	seedProfile(t, db, "v2", 0)
	ls := NewListStore(db)
	vs := NewViewStore(db)
	ctx := context.Background()

	l := createTestList(t, ls, "owner", model.PeriodDaily, time.Now(), "a")

	for _, viewer := range []string{"v1", "v1", "v2"} {
		if _, err := vs.Record(ctx, l.ID, viewer, time.Now()); err != nil {
			t.Fatalf("record view: %v", err)
		}
	}

	got, _ := ls.GetByID(ctx, l.ID)
	if got.ViewCount != 2 {
		t.Errorf("view_count = %d, want 2", got.ViewCount)
	}

	fresh, err := vs.Record(ctx, l.ID, "v2", time.Now())
	if err != nil || fresh {
		t.Errorf("repeat view = (%v, %v), want (false, nil)", fresh, err)
	}
}
