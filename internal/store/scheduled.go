package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

type ScheduledStore struct {
	db *sql.DB
}

func NewScheduledStore(db *sql.DB) *ScheduledStore {
	return &ScheduledStore{db: db}
}

const scheduledCols = `id, profile_id, title, body, tag, url, send_at, sent_at, created_at`

func (s *ScheduledStore) Create(ctx context.Context, n *model.ScheduledNotification) (*model.ScheduledNotification, error) {
	created := *n
	created.CreatedAt = time.Now().UTC()
	created.SendAt = n.SendAt.UTC()

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_notifications (profile_id, title, body, tag, url, send_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.ProfileID, created.Title, created.Body, created.Tag, created.URL, created.SendAt, created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert scheduled notification: %w", err)
	}
	if created.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &created, nil
}

// Due returns unsent notifications whose send time is at or before now.
func (s *ScheduledStore) Due(ctx context.Context, now time.Time, limit int) ([]model.ScheduledNotification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduledCols+` FROM scheduled_notifications
		 WHERE sent_at IS NULL AND send_at <= ? ORDER BY send_at ASC LIMIT ?`,
		now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	defer rows.Close()

	var due []model.ScheduledNotification
	for rows.Next() {
		var n model.ScheduledNotification
		var sentAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Title, &n.Body, &n.Tag, &n.URL, &n.SendAt, &sentAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled notification: %w", err)
		}
		n.SentAt = timePtr(sentAt)
		due = append(due, n)
	}
	return due, rows.Err()
}

func (s *ScheduledStore) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE scheduled_notifications SET sent_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}
