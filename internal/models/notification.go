package models

import "time"

// Notification is a per-user alert. Snoozed notifications are hidden until
// SnoozeUntil passes; the check happens at read time.
type Notification struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Type        string     `db:"type" json:"type"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	Link        string     `db:"link" json:"link,omitempty"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
	Archived    bool       `db:"archived" json:"archived"`
	SnoozeUntil *time.Time `db:"snooze_until" json:"snooze_until,omitempty"`
	GroupID     *string    `db:"group_id" json:"group_id,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	Version     int        `db:"version" json:"version"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// SnoozedAt reports whether the notification is hidden at now.
func (n Notification) SnoozedAt(now time.Time) bool {
	return n.SnoozeUntil != nil && n.SnoozeUntil.After(now)
}

// UnreadAt reports whether the notification counts as unread at now.
func (n Notification) UnreadAt(now time.Time) bool {
	return n.ReadAt == nil && !n.Archived && !n.SnoozedAt(now)
}

// NotificationGroup bundles related notifications for collapsed display.
type NotificationGroup struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Kind        string    `db:"kind" json:"kind"`
	Title       string    `db:"title" json:"title"`
	Expanded    bool      `db:"expanded" json:"expanded"`
	Count       int       `db:"count" json:"count"`
	UnreadCount int       `db:"unread_count" json:"unread_count"`
	LatestAt    time.Time `db:"latest_at" json:"latest_at"`
}

// NotificationFilter narrows a notification listing. A nil Read does not
// filter; a nil Archived lists unarchived notifications only.
type NotificationFilter struct {
	Type     string `form:"type" json:"type,omitempty"`
	Read     *bool  `form:"read" json:"read,omitempty"`
	Archived *bool  `form:"archived" json:"archived,omitempty"`
}

// Interaction actions accepted by the telemetry endpoint.
const (
	InteractionOpened    = "opened"
	InteractionClicked   = "clicked"
	InteractionDismissed = "dismissed"
)
