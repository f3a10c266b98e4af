package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront-messaging/internal/models"
)

var ErrNotificationNotFound = fmt.Errorf("notification %w", models.ErrNotFound)

// NotificationRepository abstracts per-user notification persistence. Every
// mutation is scoped to the owning user and bumps the row version.
type NotificationRepository interface {
	ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter, now time.Time) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID string, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Archive(ctx context.Context, userID string, id string) error
	Delete(ctx context.Context, userID string, id string) error
	ListSnoozed(ctx context.Context, userID string, now time.Time) ([]models.Notification, error)
	Snooze(ctx context.Context, userID string, id string, until time.Time) error
	Unsnooze(ctx context.Context, userID string, id string) error
	MarkDelivered(ctx context.Context, userID string, id string) error
	RecordInteraction(ctx context.Context, userID string, id string, action string) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `id, user_id, type, title, body, link, read_at, archived, snooze_until, group_id, delivered_at, version, created_at`

// ListNotifications returns the user's notifications newest first. Snoozed
// rows are excluded until their wake time; archived rows only appear when the
// filter asks for them.
func (r *NotificationRepo) ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter, now time.Time) ([]models.Notification, error) {
	where := []string{"user_id=$1", "(snooze_until IS NULL OR snooze_until <= $2)"}
	args := []any{userID, now}

	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Read != nil {
		if *filter.Read {
			where = append(where, "read_at IS NOT NULL")
		} else {
			where = append(where, "read_at IS NULL")
		}
	}
	archived := false
	if filter.Archived != nil {
		archived = *filter.Archived
	}
	args = append(args, archived)
	where = append(where, fmt.Sprintf("archived=$%d", len(args)))

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	list := make([]models.Notification, 0)
	err := r.db.SelectContext(ctx, &list, query, args...)
	return list, err
}

// MarkRead keeps the first read timestamp.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID string, id string) error {
	return r.execOne(ctx, `UPDATE notifications SET read_at = COALESCE(read_at, NOW()), version = version + 1 WHERE id=$1 AND user_id=$2`, id, userID)
}

// MarkAllRead marks every unread, visible notification read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read_at = NOW(), version = version + 1 WHERE user_id=$1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Archive hides the notification from default listings.
func (r *NotificationRepo) Archive(ctx context.Context, userID string, id string) error {
	return r.execOne(ctx, `UPDATE notifications SET archived = TRUE, version = version + 1 WHERE id=$1 AND user_id=$2`, id, userID)
}

// Delete removes the notification.
func (r *NotificationRepo) Delete(ctx context.Context, userID string, id string) error {
	return r.execOne(ctx, `DELETE FROM notifications WHERE id=$1 AND user_id=$2`, id, userID)
}

// ListSnoozed returns notifications whose snooze has not expired yet.
func (r *NotificationRepo) ListSnoozed(ctx context.Context, userID string, now time.Time) ([]models.Notification, error) {
	list := make([]models.Notification, 0)
	err := r.db.SelectContext(ctx, &list, `SELECT `+notificationColumns+` FROM notifications
        WHERE user_id=$1 AND snooze_until > $2 ORDER BY snooze_until ASC`, userID, now)
	return list, err
}

// Snooze sets or replaces the wake time. Last write wins.
func (r *NotificationRepo) Snooze(ctx context.Context, userID string, id string, until time.Time) error {
	return r.execOne(ctx, `UPDATE notifications SET snooze_until = $3, version = version + 1 WHERE id=$1 AND user_id=$2`, id, userID, until)
}

// Unsnooze clears the wake time.
func (r *NotificationRepo) Unsnooze(ctx context.Context, userID string, id string) error {
	return r.execOne(ctx, `UPDATE notifications SET snooze_until = NULL, version = version + 1 WHERE id=$1 AND user_id=$2`, id, userID)
}

// MarkDelivered keeps the first delivery timestamp.
func (r *NotificationRepo) MarkDelivered(ctx context.Context, userID string, id string) error {
	return r.execOne(ctx, `UPDATE notifications SET delivered_at = COALESCE(delivered_at, NOW()) WHERE id=$1 AND user_id=$2`, id, userID)
}

// RecordInteraction appends an interaction row.
func (r *NotificationRepo) RecordInteraction(ctx context.Context, userID string, id string, action string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO notification_interactions (id, notification_id, user_id, action)
        SELECT $1, n.id, n.user_id, $4 FROM notifications n WHERE n.id=$2 AND n.user_id=$3`, uuid.NewString(), id, userID, action)
	return err
}

func (r *NotificationRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
