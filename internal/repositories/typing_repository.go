package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront-messaging/internal/models"
)

// TypingRepository persists ephemeral typing signals.
type TypingRepository interface {
	UpsertTypingSignal(ctx context.Context, conversationID string, userID string) (models.TypingSignal, error)
	ListTypingSignals(ctx context.Context, conversationID string, since time.Time) ([]models.TypingSignal, error)
	ClearTypingSignal(ctx context.Context, conversationID string, userID string) error
}

// TypingRepo is a sqlx implementation of TypingRepository.
type TypingRepo struct {
	db *sqlx.DB
}

// NewTypingRepo constructs a TypingRepo.
func NewTypingRepo(db *sqlx.DB) *TypingRepo {
	return &TypingRepo{db: db}
}

// UpsertTypingSignal refreshes last_updated. started_at restarts when the
// previous burst had already gone stale.
func (r *TypingRepo) UpsertTypingSignal(ctx context.Context, conversationID string, userID string) (models.TypingSignal, error) {
	var sig models.TypingSignal
	err := r.db.GetContext(ctx, &sig, `INSERT INTO typing_signals (conversation_id, user_id, started_at, last_updated)
        VALUES ($1, $2, NOW(), NOW())
        ON CONFLICT (conversation_id, user_id) DO UPDATE SET
            started_at = CASE WHEN typing_signals.last_updated < NOW() - INTERVAL '10 seconds' THEN NOW() ELSE typing_signals.started_at END,
            last_updated = NOW()
        RETURNING conversation_id, user_id, started_at, last_updated`, conversationID, userID)
	return sig, err
}

// ListTypingSignals returns signals refreshed at or after since.
func (r *TypingRepo) ListTypingSignals(ctx context.Context, conversationID string, since time.Time) ([]models.TypingSignal, error) {
	signals := make([]models.TypingSignal, 0)
	err := r.db.SelectContext(ctx, &signals, `SELECT conversation_id, user_id, started_at, last_updated
        FROM typing_signals WHERE conversation_id=$1 AND last_updated >= $2 ORDER BY started_at ASC`, conversationID, since)
	return signals, err
}

// ClearTypingSignal removes the user's signal.
func (r *TypingRepo) ClearTypingSignal(ctx context.Context, conversationID string, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM typing_signals WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	return err
}
