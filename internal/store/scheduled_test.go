package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

func TestScheduledNotifications(t *testing.T) {
	db := openTestDB(t)
	seedProfile(t, db, "p1", 0)
	ss := NewScheduledStore(db)
	ctx := context.Background()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	early, err := ss.Create(ctx, &model.ScheduledNotification{ProfileID: "p1", Title: "a", Body: "b", SendAt: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ss.Create(ctx, &model.ScheduledNotification{ProfileID: "p1", Title: "c", Body: "d", SendAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	due, err := ss.Due(ctx, now, 10)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].ID != early.ID {
		t.Fatalf("due = %+v, want only the early job", due)
	}

	if err := ss.MarkSent(ctx, early.ID, now); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	due, _ = ss.Due(ctx, now, 10)
	if len(due) != 0 {
		t.Errorf("due after mark sent = %d, want 0", len(due))
	}

	due, _ = ss.Due(ctx, now.Add(2*time.Hour), 10)
	if len(due) != 1 || due[0].Title != "c" {
		t.Errorf("due later = %+v, want job c", due)
	}
}
