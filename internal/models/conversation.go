package models

import "time"

// Conversation is a buyer-seller thread, unique per (member, seller, product).
type Conversation struct {
	ID            string          `db:"id" json:"id"`
	MemberID      string          `db:"member_id" json:"member_id"`
	SellerID      string          `db:"seller_id" json:"seller_id"`
	ProductID     *string         `db:"product_id" json:"product_id,omitempty"`
	Subject       string          `db:"subject" json:"subject"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	LastMessageAt *time.Time      `db:"last_message_at" json:"last_message_at,omitempty"`
	UnreadCount   int             `db:"unread_count" json:"unread_count"`
	Product       *ProductSummary `db:"-" json:"product,omitempty"`
	Seller        *SellerSummary  `db:"-" json:"seller,omitempty"`
	Member        *MemberSummary  `db:"-" json:"member,omitempty"`
}

// ProductSummary is the denormalized product attached to a conversation.
type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// SellerSummary describes the seller side of a conversation. OwnerUserID is
// empty for unclaimed suppliers.
type SellerSummary struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	LogoURL     string `db:"logo_url" json:"logo_url,omitempty"`
	OwnerUserID string `db:"owner_user_id" json:"owner_user_id,omitempty"`
	Contactable bool   `db:"contactable" json:"contactable"`
}

// MemberSummary describes the buyer side of a conversation.
type MemberSummary struct {
	UserID      string `db:"user_id" json:"user_id"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// CreateConversationInput carries the canonical key plus the subject line.
type CreateConversationInput struct {
	SellerID  string `json:"seller_id" binding:"required"`
	ProductID string `json:"product_id,omitempty"`
	Subject   string `json:"subject" binding:"required"`
}

// ProductKey is the value stored in the uniqueness index; conversations
// without a product share the empty key.
func (in CreateConversationInput) ProductKey() string {
	return in.ProductID
}
