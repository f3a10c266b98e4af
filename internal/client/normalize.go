package client

import (
	"time"

	"storefront-messaging/internal/models"
)

// conversationRecord is the wire shape of a conversation. Older API versions
// send supplier_id/supplier instead of seller_id/seller, product.thumbnail
// instead of product.image_url, and may omit unread_count.
type conversationRecord struct {
	ID            string                `json:"id"`
	MemberID      string                `json:"member_id"`
	SellerID      string                `json:"seller_id"`
	SupplierID    string                `json:"supplier_id"`
	ProductID     *string               `json:"product_id"`
	Subject       string                `json:"subject"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	LastMessageAt *time.Time            `json:"last_message_at"`
	UnreadCount   *int                  `json:"unread_count"`
	Product       *productRecord        `json:"product"`
	Seller        *models.SellerSummary `json:"seller"`
	Supplier      *models.SellerSummary `json:"supplier"`
	Member        *models.MemberSummary `json:"member"`
}

type productRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	Thumbnail string `json:"thumbnail"`
}

func (r conversationRecord) normalize() models.Conversation {
	conv := models.Conversation{
		ID:            r.ID,
		MemberID:      r.MemberID,
		SellerID:      r.SellerID,
		ProductID:     r.ProductID,
		Subject:       r.Subject,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastMessageAt: r.LastMessageAt,
		Seller:        r.Seller,
		Member:        r.Member,
	}
	if conv.SellerID == "" {
		conv.SellerID = r.SupplierID
	}
	if conv.Seller == nil {
		conv.Seller = r.Supplier
	}
	if r.UnreadCount != nil {
		conv.UnreadCount = *r.UnreadCount
	}
	if r.Product != nil {
		image := r.Product.ImageURL
		if image == "" {
			image = r.Product.Thumbnail
		}
		conv.Product = &models.ProductSummary{ID: r.Product.ID, Name: r.Product.Name, ImageURL: image}
	}
	return conv
}

func normalizeConversations(records []conversationRecord) []models.Conversation {
	out := make([]models.Conversation, 0, len(records))
	for _, r := range records {
		out = append(out, r.normalize())
	}
	return out
}
