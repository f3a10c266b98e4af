package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"storefront-messaging/internal/models"
)

var ErrNotificationGroupNotFound = fmt.Errorf("notification group %w", models.ErrNotFound)

// NotificationGroupRepository abstracts notification group persistence.
type NotificationGroupRepository interface {
	ListGroups(ctx context.Context, userID string) ([]models.NotificationGroup, error)
	SetExpanded(ctx context.Context, userID string, groupID string, expanded bool) error
	MarkGroupRead(ctx context.Context, userID string, groupID string) (int64, error)
}

// NotificationGroupRepo is a sqlx implementation of NotificationGroupRepository.
type NotificationGroupRepo struct {
	db *sqlx.DB
}

// NewNotificationGroupRepo constructs a NotificationGroupRepo.
func NewNotificationGroupRepo(db *sqlx.DB) *NotificationGroupRepo {
	return &NotificationGroupRepo{db: db}
}

// ListGroups returns the user's groups with counts over visible members.
func (r *NotificationGroupRepo) ListGroups(ctx context.Context, userID string) ([]models.NotificationGroup, error) {
	groups := make([]models.NotificationGroup, 0)
	err := r.db.SelectContext(ctx, &groups, `SELECT g.id, g.user_id, g.kind, g.title, g.expanded,
            COUNT(n.id) AS count,
            COUNT(n.id) FILTER (WHERE n.read_at IS NULL) AS unread_count,
            COALESCE(MAX(n.created_at), g.created_at) AS latest_at
        FROM notification_groups g
        LEFT JOIN notifications n ON n.group_id = g.id AND NOT n.archived
            AND (n.snooze_until IS NULL OR n.snooze_until <= NOW())
        WHERE g.user_id=$1
        GROUP BY g.id
        ORDER BY latest_at DESC`, userID)
	return groups, err
}

// SetExpanded persists the collapsed/expanded display state.
func (r *NotificationGroupRepo) SetExpanded(ctx context.Context, userID string, groupID string, expanded bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notification_groups SET expanded=$3 WHERE id=$1 AND user_id=$2`, groupID, userID, expanded)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationGroupNotFound
	}
	return nil
}

// MarkGroupRead marks every member notification read atomically.
func (r *NotificationGroupRepo) MarkGroupRead(ctx context.Context, userID string, groupID string) (marked int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var id string
	if err = tx.GetContext(ctx, &id, `SELECT id FROM notification_groups WHERE id=$1 AND user_id=$2 FOR UPDATE`, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotificationGroupNotFound
		}
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE notifications SET read_at = NOW(), version = version + 1
        WHERE group_id=$1 AND user_id=$2 AND read_at IS NULL`, groupID, userID)
	if err != nil {
		return 0, err
	}
	if marked, err = res.RowsAffected(); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return marked, nil
}
