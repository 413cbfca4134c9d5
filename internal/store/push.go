package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const subscriptionCols = `id, profile_id, endpoint, p256dh_key, auth_key, is_active, created_at`

// Replace drops every earlier subscription of the profile, and any row for the
// same endpoint, then stores the new one as active.
func (s *PushStore) Replace(ctx context.Context, profileID, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE profile_id = ? OR endpoint = ?`, profileID, endpoint,
	); err != nil {
		return nil, fmt.Errorf("delete old push subscriptions: %w", err)
	}

	sub := model.PushSubscription{
		ProfileID: profileID,
		Endpoint:  endpoint,
		P256dhKey: p256dh,
		AuthKey:   auth,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO push_subscriptions (profile_id, endpoint, p256dh_key, auth_key, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		sub.ProfileID, sub.Endpoint, sub.P256dhKey, sub.AuthKey, sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	if sub.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit push subscription: %w", err)
	}
	return &sub, nil
}

// ListActive returns the profile's active subscriptions.
func (s *PushStore) ListActive(ctx context.Context, profileID string) ([]model.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionCols+` FROM push_subscriptions
		 WHERE profile_id = ? AND is_active = 1 ORDER BY created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.ProfileID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.Active, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Deactivate marks an endpoint the push service reported as gone.
func (s *PushStore) Deactivate(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE push_subscriptions SET is_active = 0 WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("deactivate push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByProfile(ctx context.Context, profileID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE profile_id = ?`, profileID)
	if err != nil {
		return fmt.Errorf("delete push subscriptions: %w", err)
	}
	return nil
}

// RecordSent records that a notification was sent (for dedup).
func (s *PushStore) RecordSent(ctx context.Context, notifType, refID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_notifications (notification_type, reference_id, sent_at) VALUES (?, ?, ?)`,
		notifType, refID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record sent notification: %w", err)
	}
	return nil
}

// WasSent checks if a notification was already sent.
func (s *PushStore) WasSent(ctx context.Context, notifType, refID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sent_notifications WHERE notification_type = ? AND reference_id = ?`,
		notifType, refID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent notification: %w", err)
	}
	return count > 0, nil
}

// CleanupSent deletes sent_notifications older than the given time.
func (s *PushStore) CleanupSent(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sent_notifications WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup sent notifications: %w", err)
	}
	return nil
}
