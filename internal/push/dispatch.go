package push

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/tasklevel/internal/model"
)

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// Subscriptions is the storage the dispatcher reads endpoints from.
type Subscriptions interface {
	ListActive(ctx context.Context, profileID string) ([]model.PushSubscription, error)
	Deactivate(ctx context.Context, endpoint string) error
}

// Dispatcher fans a payload out to every active subscription of a profile.
// Delivery is best effort: failures are logged and never returned.
type Dispatcher struct {
	sender Sender
	subs   Subscriptions
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil sender disables delivery.
func NewDispatcher(sender Sender, subs Subscriptions, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, subs: subs, logger: logger}
}

// Notify sends the payload to the profile's devices and returns how many
// accepted it.
func (d *Dispatcher) Notify(ctx context.Context, profileID string, payload Payload) int {
	if d.sender == nil {
		d.logger.Debug("push disabled, dropping notification", "profile_id", profileID, "tag", payload.Tag)
		return 0
	}

	subs, err := d.subs.ListActive(ctx, profileID)
	if err != nil {
		d.logger.Error("list push subscriptions", "profile_id", profileID, "error", err)
		return 0
	}
	if len(subs) == 0 {
		return 0
	}

	var delivered atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := range subs {
		sub := &subs[i]
		g.Go(func() error {
			err := d.sender.Send(gctx, sub, payload)
			switch {
			case err == nil:
				delivered.Add(1)
			case errors.Is(err, ErrExpired):
				d.logger.Info("push subscription expired", "profile_id", profileID, "endpoint", sub.Endpoint)
				if err := d.subs.Deactivate(ctx, sub.Endpoint); err != nil {
					d.logger.Error("deactivate push subscription", "error", err)
				}
			default:
				d.logger.Warn("send push", "profile_id", profileID, "tag", payload.Tag, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	return int(delivered.Load())
}
