package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"storefront-messaging/internal/models"
)

var (
	ErrConversationNotFound = fmt.Errorf("conversation %w", models.ErrNotFound)
	ErrSellerNotFound       = fmt.Errorf("seller %w", models.ErrNotFound)
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	CreateOrGetConversation(ctx context.Context, memberID string, in models.CreateConversationInput) (models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error)
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, member_id, seller_id, product_id, subject, created_at, updated_at, last_message_at`

// CreateOrGetConversation returns the conversation for the canonical
// (member, seller, product) key, creating it on first use. Concurrent callers
// converge on the same row through the unique index.
func (r *ConversationRepo) CreateOrGetConversation(ctx context.Context, memberID string, in models.CreateConversationInput) (models.Conversation, error) {
	var hasProfile bool
	if err := r.db.GetContext(ctx, &hasProfile, `SELECT EXISTS(SELECT 1 FROM members WHERE user_id=$1)`, memberID); err != nil {
		return models.Conversation{}, err
	}
	if !hasProfile {
		return models.Conversation{}, models.ErrMemberProfileNotFound
	}

	var productID *string
	if in.ProductID != "" {
		productID = &in.ProductID
	}

	var conv models.Conversation
	query := `INSERT INTO conversations (id, member_id, seller_id, product_id, product_key, subject)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (member_id, seller_id, product_key) DO UPDATE SET updated_at = conversations.updated_at
        RETURNING ` + conversationColumns
	err := r.db.GetContext(ctx, &conv, query, uuid.NewString(), memberID, in.SellerID, productID, in.ProductKey(), in.Subject)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return models.Conversation{}, ErrSellerNotFound
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

// IsParticipant reports whether the user is the buyer or the seller's owner.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM conversations c JOIN suppliers s ON s.id = c.seller_id
        WHERE c.id=$1 AND (c.member_id=$2 OR s.owner_user_id=$2))`, conversationID, userID)
	return exists, err
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

type conversationRow struct {
	ID                string         `db:"id"`
	MemberID          string         `db:"member_id"`
	SellerID          string         `db:"seller_id"`
	ProductID         sql.NullString `db:"product_id"`
	Subject           string         `db:"subject"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	LastMessageAt     sql.NullTime   `db:"last_message_at"`
	UnreadCount       int            `db:"unread_count"`
	SellerName        string         `db:"seller_name"`
	SellerLogoURL     string         `db:"seller_logo_url"`
	SellerOwnerUserID string         `db:"seller_owner_user_id"`
	SellerContactable bool           `db:"seller_contactable"`
	MemberName        string         `db:"member_name"`
	ProductName       sql.NullString `db:"product_name"`
	ProductImageURL   sql.NullString `db:"product_image_url"`
}

// ListConversations returns conversations where the user is the buyer or owns
// the seller, most recently active first, with summaries attached.
func (r *ConversationRepo) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `SELECT c.id, c.member_id, c.seller_id, c.product_id, c.subject, c.created_at, c.updated_at, c.last_message_at,
            (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.read_at IS NULL) AS unread_count,
            s.name AS seller_name, s.logo_url AS seller_logo_url, COALESCE(s.owner_user_id, '') AS seller_owner_user_id,
            s.contactable AS seller_contactable, mb.display_name AS member_name,
            p.name AS product_name, p.image_url AS product_image_url
        FROM conversations c
        JOIN suppliers s ON s.id = c.seller_id
        JOIN members mb ON mb.user_id = c.member_id
        LEFT JOIN products p ON p.id = c.product_id
        WHERE c.member_id=$1 OR s.owner_user_id=$1
        ORDER BY COALESCE(c.last_message_at, c.updated_at) DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Conversation, 0)
	for rows.Next() {
		var row conversationRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		result = append(result, row.toConversation())
	}
	return result, rows.Err()
}

func (row conversationRow) toConversation() models.Conversation {
	conv := models.Conversation{
		ID:          row.ID,
		MemberID:    row.MemberID,
		SellerID:    row.SellerID,
		Subject:     row.Subject,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		UnreadCount: row.UnreadCount,
		Seller: &models.SellerSummary{
			ID:          row.SellerID,
			Name:        row.SellerName,
			LogoURL:     row.SellerLogoURL,
			OwnerUserID: row.SellerOwnerUserID,
			Contactable: row.SellerContactable,
		},
		Member: &models.MemberSummary{UserID: row.MemberID, DisplayName: row.MemberName},
	}
	if row.LastMessageAt.Valid {
		at := row.LastMessageAt.Time
		conv.LastMessageAt = &at
	}
	if row.ProductID.Valid {
		id := row.ProductID.String
		conv.ProductID = &id
		conv.Product = &models.ProductSummary{ID: id, Name: row.ProductName.String, ImageURL: row.ProductImageURL.String}
	}
	return conv
}
