package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/ws"
)

// ConversationHandler manages conversation and message endpoints.
type ConversationHandler struct {
	convRepo    repositories.ConversationRepository
	messageRepo repositories.MessageRepository
	directory   repositories.DirectoryRepository
	hub         *ws.Hub
}

func NewConversationHandler(convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, directory repositories.DirectoryRepository, hub *ws.Hub) *ConversationHandler {
	return &ConversationHandler{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		directory:   directory,
		hub:         hub,
	}
}

type productView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// conversationView adds the legacy supplier and thumbnail aliases older
// clients still read.
type conversationView struct {
	models.Conversation
	SupplierID string                `json:"supplier_id"`
	Supplier   *models.SellerSummary `json:"supplier,omitempty"`
	Product    *productView          `json:"product,omitempty"`
}

func newConversationView(conv models.Conversation) conversationView {
	view := conversationView{Conversation: conv, SupplierID: conv.SellerID, Supplier: conv.Seller}
	if conv.Product != nil {
		view.Product = &productView{
			ID:        conv.Product.ID,
			Name:      conv.Product.Name,
			ImageURL:  conv.Product.ImageURL,
			Thumbnail: conv.Product.ImageURL,
		}
	}
	return view
}

// ListConversations returns the conversations the user takes part in, as
// buyer or as the claiming owner of the seller.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetString("userID")

	convs, err := h.convRepo.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err, "failed to load conversations")
		return
	}

	views := make([]conversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, newConversationView(conv))
	}
	respondOK(c, http.StatusOK, views)
}

// CreateConversation returns the existing conversation for the canonical key
// or creates it.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req models.CreateConversationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		badRequest(c, "subject is required")
		return
	}

	userID := c.GetString("userID")
	seller, err := h.directory.GetSeller(c.Request.Context(), req.SellerID)
	if err != nil {
		respondErr(c, err, "failed to load seller")
		return
	}
	if seller.OwnerUserID == userID {
		forbidden(c, "cannot contact your own store")
		return
	}
	if !seller.Contactable {
		forbidden(c, "seller is not accepting messages")
		return
	}

	conv, err := h.convRepo.CreateOrGetConversation(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err, "could not create conversation")
		return
	}
	respondOK(c, http.StatusOK, newConversationView(conv))
}

// requireParticipant writes the error response and returns false when the
// user may not access the conversation.
func (h *ConversationHandler) requireParticipant(c *gin.Context, conversationID string) bool {
	member, err := h.convRepo.IsParticipant(c.Request.Context(), conversationID, c.GetString("userID"))
	if err != nil {
		respondErr(c, err, "failed to verify membership")
		return false
	}
	if !member {
		forbidden(c, "not a conversation participant")
		return false
	}
	return true
}

// ListMessages returns a conversation's messages in order.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	conversationID := c.Param("id")
	if !h.requireParticipant(c, conversationID) {
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), conversationID)
	if err != nil {
		respondErr(c, err, "failed to load messages")
		return
	}
	respondOK(c, http.StatusOK, msgs)
}

// PostMessage stores a message and clears the sender's typing signal.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	conversationID := c.Param("id")
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "content is required")
		return
	}
	if !h.requireParticipant(c, conversationID) {
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), conversationID, c.GetString("userID"), req.Content)
	if err != nil {
		respondErr(c, err, "could not send message")
		return
	}

	filter := models.ConversationFilter(conversationID)
	h.hub.Notify(models.MessagesTable, filter)
	h.hub.Notify(models.TypingTable, filter)
	respondOK(c, http.StatusCreated, msg)
}

// MarkRead marks the other side's messages read. Already-read messages keep
// their original read time.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	conversationID := c.Param("id")
	if !h.requireParticipant(c, conversationID) {
		return
	}

	n, err := h.messageRepo.MarkConversationRead(c.Request.Context(), conversationID, c.GetString("userID"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondOK(c, http.StatusOK, gin.H{"updated": 0})
			return
		}
		respondErr(c, err, "failed to mark conversation read")
		return
	}
	h.hub.Notify(models.MessagesTable, models.ConversationFilter(conversationID))
	respondOK(c, http.StatusOK, gin.H{"updated": n})
}
