package push

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/store"
)

const (
	dueBatchSize = 100
	// Lists that expired longer ago than this get no "expired" notice.
	expiredLookback = 24 * time.Hour
	sentRetention   = 7 * 24 * time.Hour
)

// Notifier delivers a payload to a profile's devices.
type Notifier interface {
	Notify(ctx context.Context, profileID string, payload Payload) int
}

// SchedulerConfig tunes the scheduler loop.
type SchedulerConfig struct {
	Interval       time.Duration
	ExpiringWindow time.Duration
}

// Scheduler runs delayed notifications and list deadline reminders.
type Scheduler struct {
	mu       sync.RWMutex
	notifier Notifier
	push     *store.PushStore
	jobs     *store.ScheduledStore
	lists    *store.ListStore
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(notifier Notifier, pushStore *store.PushStore, jobStore *store.ScheduledStore, listStore *store.ListStore, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.ExpiringWindow <= 0 {
		cfg.ExpiringWindow = 3 * time.Hour
	}
	return &Scheduler{
		notifier: notifier,
		push:     pushStore,
		jobs:     jobStore,
		lists:    listStore,
		interval: cfg.Interval,
		window:   cfg.ExpiringWindow,
		now:      time.Now,
		logger:   logger,
	}
}

// Schedule stores a notification to be sent to profileID at the given time.
func (s *Scheduler) Schedule(ctx context.Context, at time.Time, profileID string, payload Payload) error {
	_, err := s.jobs.Create(ctx, &model.ScheduledNotification{
		ProfileID: profileID,
		Title:     payload.Title,
		Body:      payload.Body,
		Tag:       payload.Tag,
		URL:       payload.URL,
		SendAt:    at,
	})
	if err != nil {
		return fmt.Errorf("schedule notification: %w", err)
	}
	return nil
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().UTC()

	s.sendDue(ctx, now)
	s.checkExpiring(ctx, now)
	s.checkExpired(ctx, now)

	if err := s.push.CleanupSent(ctx, now.Add(-sentRetention)); err != nil {
		s.logger.Error("cleanup sent notifications", "error", err)
	}
}

// sendDue delivers scheduled jobs whose time has come. A job is marked sent
// whether or not any device accepted it; there are no retries.
func (s *Scheduler) sendDue(ctx context.Context, now time.Time) {
	due, err := s.jobs.Due(ctx, now, dueBatchSize)
	if err != nil {
		s.logger.Error("list due notifications", "error", err)
		return
	}

	for _, job := range due {
		payload := Payload{Title: job.Title, Body: job.Body, Tag: job.Tag, URL: job.URL}
		n := s.notifier.Notify(ctx, job.ProfileID, payload)
		s.logger.Debug("scheduled notification sent", "id", job.ID, "profile_id", job.ProfileID, "delivered", n)

		if err := s.jobs.MarkSent(ctx, job.ID, now); err != nil {
			s.logger.Error("mark notification sent", "id", job.ID, "error", err)
		}
	}
}

func (s *Scheduler) checkExpiring(ctx context.Context, now time.Time) {
	lists, err := s.lists.ListExpiringBetween(ctx, now, now.Add(s.window))
	if err != nil {
		s.logger.Error("list expiring lists", "error", err)
		return
	}

	for _, l := range lists {
		hoursLeft := int(math.Ceil(l.ExpiresAt.Sub(now).Hours()))
		s.sendOnce(ctx, model.NotifTypeListExpiring, l, ListExpiring(l.ID, l.Title, hoursLeft))
	}
}

func (s *Scheduler) checkExpired(ctx context.Context, now time.Time) {
	lists, err := s.lists.ListExpiringBetween(ctx, now.Add(-expiredLookback), now)
	if err != nil {
		s.logger.Error("list expired lists", "error", err)
		return
	}

	for _, l := range lists {
		s.sendOnce(ctx, model.NotifTypeListExpired, l, ListExpired(l.ID, l.Title))
	}
}

func (s *Scheduler) sendOnce(ctx context.Context, notifType string, l model.List, payload Payload) {
	sent, err := s.push.WasSent(ctx, notifType, l.ID)
	if err != nil {
		s.logger.Error("check sent notification", "type", notifType, "list_id", l.ID, "error", err)
		return
	}
	if sent {
		return
	}

	s.notifier.Notify(ctx, l.ProfileID, payload)

	if err := s.push.RecordSent(ctx, notifType, l.ID); err != nil {
		s.logger.Error("record sent notification", "type", notifType, "list_id", l.ID, "error", err)
	}
}
