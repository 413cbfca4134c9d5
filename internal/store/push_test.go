package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

func TestReplaceSubscription(t *testing.T) {
	db := openTestDB(t)
	seedProfile(t, db, "p1", 0)
	ps := NewPushStore(db)
	ctx := context.Background()

	if _, err := ps.Replace(ctx, "p1", "https://push.example.com/sub1", "key1", "auth1"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	sub, err := ps.Replace(ctx, "p1", "https://push.example.com/sub2", "key2", "auth2")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if sub.ID == 0 || !sub.Active {
		t.Errorf("subscription = %+v", sub)
	}

	subs, err := ps.ListActive(ctx, "p1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example.com/sub2" {
		t.Errorf("active subscriptions = %+v, want only sub2", subs)
	}

	if err := ps.Deactivate(ctx, "https://push.example.com/sub2"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	subs, _ = ps.ListActive(ctx, "p1")
	if len(subs) != 0 {
		t.Errorf("active after deactivate = %d, want 0", len(subs))
	}

	if err := ps.DeleteByProfile(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	db.QueryRow(`SELECT COUNT(*) FROM push_subscriptions`).Scan(&n)
	if n != 0 {
		t.Errorf("rows after delete = %d, want 0", n)
	}
}

func TestSentNotificationDedup(t *testing.T) {
	ps := NewPushStore(openTestDB(t))
	ctx := context.Background()

	sent, err := ps.WasSent(ctx, model.NotifTypeListExpiring, "list-1")
	if err != nil || sent {
		t.Fatalf("WasSent before record = (%v, %v)", sent, err)
	}
	if err := ps.RecordSent(ctx, model.NotifTypeListExpiring, "list-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ps.RecordSent(ctx, model.NotifTypeListExpiring, "list-1"); err != nil {
		t.Fatalf("record twice: %v", err)
	}
	sent, _ = ps.WasSent(ctx, model.NotifTypeListExpiring, "list-1")
	if !sent {
		t.Error("WasSent = false after record")
	}
	sent, _ = ps.WasSent(ctx, model.NotifTypeListExpired, "list-1")
	if sent {
		t.Error("dedup leaked across notification types")
	}

	if err := ps.CleanupSent(ctx, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	sent, _ = ps.WasSent(ctx, model.NotifTypeListExpiring, "list-1")
	if sent {
		t.Error("WasSent = true after cleanup")
	}
}
