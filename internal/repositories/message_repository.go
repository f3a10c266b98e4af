package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront-messaging/internal/models"
)

var ErrMessageNotFound = fmt.Errorf("message %w", models.ErrNotFound)

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID string, senderID string, content string) (models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID string, readerID string) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content, read_at, created_at`

// CreateMessage stores a message, bumps the conversation's activity
// timestamps and clears the sender's typing signal in one transaction.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID string, senderID string, content string) (msg models.Message, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &msg, `INSERT INTO messages (id, conversation_id, sender_id, content) VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		uuid.NewString(), conversationID, senderID, content); err != nil {
		return models.Message{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET last_message_at=$2, updated_at=$2 WHERE id=$1`, conversationID, msg.CreatedAt); err != nil {
		return models.Message{}, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM typing_signals WHERE conversation_id=$1 AND user_id=$2`, conversationID, senderID); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns messages oldest first.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC`, conversationID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkConversationRead stamps every message the reader did not send.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, conversationID string, readerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read_at = NOW() WHERE conversation_id=$1 AND sender_id<>$2 AND read_at IS NULL`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
