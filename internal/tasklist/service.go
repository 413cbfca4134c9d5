// Package tasklist implements the task-list lifecycle: creation under quota,
// task completion, settlement and voting.
package tasklist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/store"
	"github.com/dukerupert/tasklevel/internal/websocket"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = store.ErrForbidden
	ErrNotPublic          = errors.New("list is not public")
	ErrNotResolved        = errors.New("list is neither completed nor expired")
	ErrInvalidVote        = errors.New("vote must be 1 or -1")
	ErrInsufficientPoints = store.ErrInsufficientPoints
	ErrInvalidPeriod      = lifecycle.ErrInvalidPeriod
)

// CheckInDelay is how long after creation the owner gets a progress nudge.
const CheckInDelay = 5 * time.Minute

// Notifier delivers a push payload to a profile. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, profileID string, payload push.Payload) int
}

// DelayedJobs schedules a push payload for later delivery.
type DelayedJobs interface {
	Schedule(ctx context.Context, at time.Time, profileID string, payload push.Payload) error
}

// Events publishes realtime updates to connected clients.
type Events interface {
	Broadcast(msg websocket.Message)
	SendTo(profileID string, msg websocket.Message)
}

// Deps wires a Service. Notifier, Jobs and Events may be nil.
type Deps struct {
	Lists    *store.ListStore
	Votes    *store.VoteStore
	Views    *store.ViewStore
	Profiles *store.ProfileStore
	Calendar lifecycle.Calendar
	Notifier Notifier
	Jobs     DelayedJobs
	Events   Events
	Now      func() time.Time
	Logger   *slog.Logger
}

type Service struct {
	lists    *store.ListStore
	votes    *store.VoteStore
	views    *store.ViewStore
	profiles *store.ProfileStore
	calendar lifecycle.Calendar
	notifier Notifier
	jobs     DelayedJobs
	events   Events
	now      func() time.Time
	logger   *slog.Logger
	pending  sync.WaitGroup
}

func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Calendar == (lifecycle.Calendar{}) {
		d.Calendar = lifecycle.DefaultCalendar()
	}
	return &Service{
		lists:    d.Lists,
		votes:    d.Votes,
		views:    d.Views,
		profiles: d.Profiles,
		calendar: d.Calendar,
		notifier: d.Notifier,
		jobs:     d.Jobs,
		events:   d.Events,
		now:      d.Now,
		logger:   d.Logger,
	}
}

// Calendar returns the calendar used for deadlines and quotas.
func (s *Service) Calendar() lifecycle.Calendar {
	return s.calendar
}

// Wait blocks until in-flight notifications have been handed off.
func (s *Service) Wait() {
	s.pending.Wait()
}

// notify sends a push in the background so the caller never waits on the
// push service. The request context's values are kept but not its deadline.
func (s *Service) notify(ctx context.Context, profileID string, payload push.Payload) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.notifier.Notify(ctx, profileID, payload)
	}()
}

func (s *Service) broadcast(msg websocket.Message) {
	if s.events != nil {
		s.events.Broadcast(msg)
	}
}

func (s *Service) sendTo(profileID string, msg websocket.Message) {
	if s.events != nil {
		s.events.SendTo(profileID, msg)
	}
}
