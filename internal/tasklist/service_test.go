package tasklist

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/database"
	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/store"
	"github.com/dukerupert/tasklevel/internal/websocket"
)

type notification struct {
	profileID string
	payload   push.Payload
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) Notify(_ context.Context, profileID string, p push.Payload) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{profileID, p})
	return 1
}

func (f *fakeNotifier) byTag(tag string) []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification
	for _, n := range f.sent {
		if n.payload.Tag == tag {
			out = append(out, n)
		}
	}
	return out
}

type scheduledJob struct {
	at        time.Time
	profileID string
	payload   push.Payload
}

// fakeJobs records scheduled jobs and releases them to a notifier when the
// fake clock is advanced past their time.
type fakeJobs struct {
	jobs []scheduledJob
}

func (f *fakeJobs) Schedule(_ context.Context, at time.Time, profileID string, p push.Payload) error {
	f.jobs = append(f.jobs, scheduledJob{at, profileID, p})
	return nil
}

func (f *fakeJobs) advance(now time.Time, n push.Notifier) {
	remaining := f.jobs[:0]
	for _, j := range f.jobs {
		if !j.at.After(now) {
			n.Notify(context.Background(), j.profileID, j.payload)
			continue
		}
		remaining = append(remaining, j)
	}
	f.jobs = remaining
}

type fakeEvents struct {
	mu        sync.Mutex
	broadcast []string
	direct    map[string][]string
}

func (f *fakeEvents) Broadcast(msg websocket.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, msg.Type)
}

func (f *fakeEvents) SendTo(profileID string, msg websocket.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.direct == nil {
		f.direct = map[string][]string{}
	}
	f.direct[profileID] = append(f.direct[profileID], msg.Type)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db       *sql.DB
	svc      *Service
	notifier *fakeNotifier
	jobs     *fakeJobs
	events   *fakeEvents
	clock    *clock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		notifier: &fakeNotifier{},
		jobs:     &fakeJobs{},
		events:   &fakeEvents{},
		clock:    &clock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	env.svc = NewService(Deps{
		Lists:    store.NewListStore(db),
		Votes:    store.NewVoteStore(db),
		Views:    store.NewViewStore(db),
		Profiles: store.NewProfileStore(db),
		Calendar: lifecycle.DefaultCalendar(),
		Notifier: env.notifier,
		Jobs:     env.jobs,
		Events:   env.events,
		Now:      env.clock.Now,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	for _, id := range []string{"owner", "voter"} {
		if _, err := store.NewProfileStore(db).Ensure(context.Background(), id, id+"-name", id+"@example.com"); err != nil {
			t.Fatalf("seed profile: %v", err)
		}
	}
	return env
}

func (e *testEnv) points(t *testing.T, profileID string) int {
	t.Helper()
	p, err := e.svc.profiles.GetByID(context.Background(), profileID)
	if err != nil || p == nil {
		t.Fatalf("get profile: %v", err)
	}
	return p.Points
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
