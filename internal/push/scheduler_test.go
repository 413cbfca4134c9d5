package push

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/store"
)

type sentNotification struct {
	profileID string
	payload   Payload
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Notify(_ context.Context, profileID string, p Payload) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{profileID, p})
	return 1
}

func (f *fakeNotifier) tags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tags []string
	for _, s := range f.sent {
		tags = append(tags, s.payload.Tag)
	}
	return tags
}

func newTestScheduler(t *testing.T, now time.Time) (*Scheduler, *fakeNotifier, *store.ListStore) {
	t.Helper()
	db := setupPushDB(t)
	notifier := &fakeNotifier{}
	lists := store.NewListStore(db)
	s := NewScheduler(notifier, store.NewPushStore(db), store.NewScheduledStore(db), lists, SchedulerConfig{}, discardLogger)
	s.now = func() time.Time { return now }
	return s, notifier, lists
}

func TestSchedulerSendsDueJobsOnce(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, notifier, _ := newTestScheduler(t, now)
	ctx := context.Background()

	if err := s.Schedule(ctx, now.Add(5*time.Minute), "p1", ListCheckIn("l1", model.PeriodDaily)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.tick(ctx)
	if len(notifier.sent) != 0 {
		t.Fatalf("sent %d notifications before the job was due", len(notifier.sent))
	}

	s.now = func() time.Time { return now.Add(5 * time.Minute) }
	s.tick(ctx)
	s.tick(ctx)

	if len(notifier.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(notifier.sent))
	}
	got := notifier.sent[0]
	if got.profileID != "p1" || got.payload.Body != "Lista daily creata 5 minuti fa. Come sta procedendo?" {
		t.Errorf("sent = %+v", got)
	}
}

func TestSchedulerDeadlineReminders(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, notifier, lists := newTestScheduler(t, now)
	ctx := context.Background()

	exp := now.Add(2 * time.Hour)
	l, err := lists.CreateWithTasks(ctx, &model.List{
		ProfileID: "p1", Title: "Lista daily", Type: model.PeriodDaily, ExpiresAt: &exp, CreatedAt: now.Add(-time.Hour),
	}, []string{"a"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	s.tick(ctx)
	s.tick(ctx)
	if tags := notifier.tags(); len(tags) != 1 || tags[0] != "expiring" {
		t.Fatalf("tags after expiring ticks = %v, want [expiring]", tags)
	}
	if body := notifier.sent[0].payload.Body; body != `"Lista daily" scade tra 2 ore` {
		t.Errorf("expiring body = %q", body)
	}

	s.now = func() time.Time { return exp.Add(time.Minute) }
	s.tick(ctx)
	s.tick(ctx)
	tags := notifier.tags()
	if len(tags) != 2 || tags[1] != "expired" {
		t.Fatalf("tags after deadline = %v, want [expiring expired]", tags)
	}
	if notifier.sent[1].payload.URL != "/list/"+l.ID {
		t.Errorf("expired url = %q", notifier.sent[1].payload.URL)
	}
}

func TestSchedulerSkipsCompletedLists(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, notifier, lists := newTestScheduler(t, now)
	ctx := context.Background()

	exp := now.Add(time.Hour)
	l, _ := lists.CreateWithTasks(ctx, &model.List{
		ProfileID: "p1", Title: "Lista daily", Type: model.PeriodDaily, ExpiresAt: &exp, CreatedAt: now,
	}, []string{"a"})
	if _, err := lists.SetTaskCompletion(ctx, "p1", l.Tasks[0].ID, true, now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s.tick(ctx)
	if len(notifier.sent) != 0 {
		t.Errorf("sent %v for a completed list", notifier.tags())
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s, _, _ := newTestScheduler(t, time.Now())
	s.interval = 10 * time.Millisecond

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
