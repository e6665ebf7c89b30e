package models

import "time"

// NotificationKind labels the origin of a notification.
type NotificationKind string

const (
	NotificationKindNews        NotificationKind = "news"
	NotificationKindApplication NotificationKind = "application"
	NotificationKindPayment     NotificationKind = "payment"
)

// Notification is a per-user message created by the workflows; delivery is
// best-effort and never blocks the operation that produced it.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Link      string           `db:"link" json:"link"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
