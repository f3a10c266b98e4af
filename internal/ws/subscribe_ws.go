package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"storefront-messaging/internal/middleware"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

// ParticipantChecker reports conversation membership.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error)
}

var errForbiddenFilter = errors.New("filter not allowed")

// SubscribeHandler serves /ws/subscribe: one connection per table/filter
// pair, receiving a change event whenever matching rows change.
type SubscribeHandler struct {
	hub           *Hub
	sessions      middleware.SessionResolver
	conversations ParticipantChecker
}

func NewSubscribeHandler(hub *Hub, sessions middleware.SessionResolver, conversations ParticipantChecker) *SubscribeHandler {
	return &SubscribeHandler{hub: hub, sessions: sessions, conversations: conversations}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": gin.H{"code": code, "message": message}})
}

// Handle authenticates, authorizes the filter and upgrades the connection.
func (h *SubscribeHandler) Handle(c *gin.Context) {
	table := c.Query("table")
	filter := c.Query("filter")
	if table == "" || filter == "" {
		abort(c, http.StatusBadRequest, models.CodeInvalidRequest, "table and filter are required")
		return
	}

	ctx, span := otel.Tracer("storefront-messaging/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		abort(c, http.StatusUnauthorized, models.CodeUnauthorized, "missing token")
		return
	}
	user, err := h.sessions.ResolveSession(ctx, token)
	if err != nil {
		abort(c, http.StatusUnauthorized, models.CodeUnauthorized, "invalid token")
		return
	}

	if err := h.authorize(ctx, user.UserID, table, filter); err != nil {
		if errors.Is(err, errForbiddenFilter) {
			abort(c, http.StatusForbidden, models.CodeForbidden, "not authorized for subscription")
			return
		}
		abort(c, http.StatusInternalServerError, models.CodeInternal, "failed to verify subscription")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	meta := observability.RequestMetaFrom(c)
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      user.UserID,
		Table:       table,
		Filter:      filter,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	topic := Topic(table, filter)
	h.hub.Add(topic, conn, info)

	observability.IncWSActive(table)
	publishWSEvent(ctx, "ws_connect", info, "")

	// the connection outlives the request context
	go h.readLoop(context.WithoutCancel(ctx), topic, conn, info)
}

func (h *SubscribeHandler) readLoop(ctx context.Context, topic string, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Remove(topic, conn)
		observability.DecWSActive(info.Table)
		publishWSEvent(ctx, "ws_disconnect", info, closeReason)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishWSEvent(ctx, "ws_error", info, closeReason)
			}
			return
		}
	}
}

// authorize allows conversation-scoped tables for participants and the
// notifications table for the user's own rows.
func (h *SubscribeHandler) authorize(ctx context.Context, userID, table, filter string) error {
	switch table {
	case models.TypingTable, models.MessagesTable:
		conversationID, ok := strings.CutPrefix(filter, models.ConversationFilter(""))
		if !ok || conversationID == "" {
			return errForbiddenFilter
		}
		member, err := h.conversations.IsParticipant(ctx, conversationID, userID)
		if err != nil {
			return err
		}
		if !member {
			return errForbiddenFilter
		}
		return nil
	case models.NotificationsTable:
		if filter != models.UserFilter(userID) {
			return errForbiddenFilter
		}
		return nil
	}
	return errForbiddenFilter
}
