package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/ws"
)

const maxEmojiBytes = 32

// ReactionHandler serves per-message emoji reactions.
type ReactionHandler struct {
	convRepo     repositories.ConversationRepository
	messageRepo  repositories.MessageRepository
	reactionRepo repositories.ReactionRepository
	hub          *ws.Hub
}

func NewReactionHandler(convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, reactionRepo repositories.ReactionRepository, hub *ws.Hub) *ReactionHandler {
	return &ReactionHandler{convRepo: convRepo, messageRepo: messageRepo, reactionRepo: reactionRepo, hub: hub}
}

// message loads the message and checks the caller can see it.
func (h *ReactionHandler) message(c *gin.Context) (models.Message, bool) {
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err, "failed to load message")
		return models.Message{}, false
	}
	member, err := h.convRepo.IsParticipant(c.Request.Context(), msg.ConversationID, c.GetString("userID"))
	if err != nil {
		respondErr(c, err, "failed to verify membership")
		return models.Message{}, false
	}
	if !member {
		forbidden(c, "not a conversation participant")
		return models.Message{}, false
	}
	return msg, true
}

func validEmoji(emoji string) bool {
	return emoji != "" && len(emoji) <= maxEmojiBytes && utf8.ValidString(emoji) && !strings.ContainsAny(emoji, " \t\n/")
}

// ListReactions returns the message's reactions grouped by emoji.
func (h *ReactionHandler) ListReactions(c *gin.Context) {
	msg, ok := h.message(c)
	if !ok {
		return
	}
	reactions, err := h.reactionRepo.ListReactions(c.Request.Context(), msg.ID)
	if err != nil {
		respondErr(c, err, "failed to load reactions")
		return
	}
	respondOK(c, http.StatusOK, reactions)
}

// AddReaction adds the caller to the emoji's set. Repeating it is a no-op.
func (h *ReactionHandler) AddReaction(c *gin.Context) {
	h.mutate(c, func(msg models.Message, emoji string) error {
		return h.reactionRepo.AddReaction(c.Request.Context(), msg.ID, emoji, c.GetString("userID"), c.GetString("userName"))
	})
}

// RemoveReaction removes the caller from the emoji's set.
func (h *ReactionHandler) RemoveReaction(c *gin.Context) {
	h.mutate(c, func(msg models.Message, emoji string) error {
		return h.reactionRepo.RemoveReaction(c.Request.Context(), msg.ID, emoji, c.GetString("userID"))
	})
}

func (h *ReactionHandler) mutate(c *gin.Context, apply func(models.Message, string) error) {
	emoji := c.Param("emoji")
	if !validEmoji(emoji) {
		badRequest(c, "invalid emoji")
		return
	}
	msg, ok := h.message(c)
	if !ok {
		return
	}
	if err := apply(msg, emoji); err != nil {
		respondErr(c, err, "failed to update reaction")
		return
	}

	reactions, err := h.reactionRepo.ListReactions(c.Request.Context(), msg.ID)
	if err != nil {
		respondErr(c, err, "failed to load reactions")
		return
	}
	h.hub.Notify(models.MessagesTable, models.ConversationFilter(msg.ConversationID))
	respondOK(c, http.StatusOK, reactions)
}
