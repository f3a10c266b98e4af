package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront-messaging/internal/models"
)

// ReactionRepository stores per-user emoji reactions on messages.
type ReactionRepository interface {
	ListReactions(ctx context.Context, messageID string) ([]models.Reaction, error)
	AddReaction(ctx context.Context, messageID string, emoji string, userID string, userName string) error
	RemoveReaction(ctx context.Context, messageID string, emoji string, userID string) error
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// ListReactions returns reactions grouped by emoji.
func (r *ReactionRepo) ListReactions(ctx context.Context, messageID string) ([]models.Reaction, error) {
	var rows []models.ReactionRow
	err := r.db.SelectContext(ctx, &rows, `SELECT message_id, emoji, user_id, user_name FROM message_reactions
        WHERE message_id=$1 ORDER BY created_at ASC`, messageID)
	if err != nil {
		return nil, err
	}
	return models.GroupReactions(messageID, rows), nil
}

// AddReaction is idempotent.
func (r *ReactionRepo) AddReaction(ctx context.Context, messageID string, emoji string, userID string, userName string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_reactions (message_id, emoji, user_id, user_name) VALUES ($1, $2, $3, $4)
        ON CONFLICT (message_id, emoji, user_id) DO NOTHING`, messageID, emoji, userID, userName)
	return err
}

// RemoveReaction is idempotent.
func (r *ReactionRepo) RemoveReaction(ctx context.Context, messageID string, emoji string, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND emoji=$2 AND user_id=$3`, messageID, emoji, userID)
	return err
}
