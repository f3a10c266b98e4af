package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/ws"
)

// defaultTypingLookback bounds a typing query without an explicit since.
const defaultTypingLookback = 10 * time.Second

// TypingHandler serves typing signals for a conversation.
type TypingHandler struct {
	convRepo   repositories.ConversationRepository
	typingRepo repositories.TypingRepository
	hub        *ws.Hub
	now        func() time.Time
}

func NewTypingHandler(convRepo repositories.ConversationRepository, typingRepo repositories.TypingRepository, hub *ws.Hub) *TypingHandler {
	return &TypingHandler{convRepo: convRepo, typingRepo: typingRepo, hub: hub, now: time.Now}
}

func (h *TypingHandler) participant(c *gin.Context, conversationID string) bool {
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

// ListTyping returns signals refreshed after since (RFC 3339).
func (h *TypingHandler) ListTyping(c *gin.Context) {
	conversationID := c.Param("id")
	since := h.now().Add(-defaultTypingLookback)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			badRequest(c, "invalid since")
			return
		}
		since = parsed
	}
	if !h.participant(c, conversationID) {
		return
	}

	signals, err := h.typingRepo.ListTypingSignals(c.Request.Context(), conversationID, since)
	if err != nil {
		respondErr(c, err, "failed to load typing signals")
		return
	}
	respondOK(c, http.StatusOK, signals)
}

// UpsertTyping refreshes the caller's signal and notifies subscribers.
func (h *TypingHandler) UpsertTyping(c *gin.Context) {
	conversationID := c.Param("id")
	if !h.participant(c, conversationID) {
		return
	}

	signal, err := h.typingRepo.UpsertTypingSignal(c.Request.Context(), conversationID, c.GetString("userID"))
	if err != nil {
		respondErr(c, err, "failed to record typing")
		return
	}
	h.hub.Notify(models.TypingTable, models.ConversationFilter(conversationID))
	respondOK(c, http.StatusOK, signal)
}

// ClearTyping removes the caller's signal.
func (h *TypingHandler) ClearTyping(c *gin.Context) {
	conversationID := c.Param("id")
	if !h.participant(c, conversationID) {
		return
	}

	if err := h.typingRepo.ClearTypingSignal(c.Request.Context(), conversationID, c.GetString("userID")); err != nil {
		respondErr(c, err, "failed to clear typing")
		return
	}
	h.hub.Notify(models.TypingTable, models.ConversationFilter(conversationID))
	respondOK(c, http.StatusOK, nil)
}
