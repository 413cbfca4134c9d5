package model

import "time"

// Notification type constants
const (
	NotifTypeListExpiring = "list_expiring"
	NotifTypeListExpired  = "list_expired"
)

type PushSubscription struct {
	ID        int64     `json:"id"`
	ProfileID string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ScheduledNotification is a push payload waiting for its send time.
type ScheduledNotification struct {
	ID        int64      `json:"id"`
	ProfileID string     `json:"user_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Tag       string     `json:"tag"`
	URL       string     `json:"url"`
	SendAt    time.Time  `json:"send_at"`
	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
}
