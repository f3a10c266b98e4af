package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

const writeTimeout = 5 * time.Second

// Topic names the room for one table/filter subscription.
func Topic(table, filter string) string {
	return table + ":" + filter
}

// Hub maintains active websocket subscriptions grouped by topic.
type Hub struct {
	rooms map[string]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]ConnInfo)}
}

// Add registers a connection under its topic.
func (h *Hub) Add(topic string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[topic]; !ok {
		h.rooms[topic] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[topic][conn] = info
}

// Remove unregisters a connection.
func (h *Hub) Remove(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[topic]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, topic)
		}
	}
}

// Count reports the subscribers on a topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}

// Notify tells every subscriber of table/filter to refetch.
func (h *Hub) Notify(table, filter string) {
	if h == nil {
		return
	}
	h.Broadcast(Topic(table, filter), models.NewChangeEvent(table, filter))
}

// Broadcast sends event to all connections on topic. Connections that fail
// to accept the write are dropped.
func (h *Hub) Broadcast(topic string, event models.ChangeEvent) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]ConnInfo, len(h.rooms[topic]))
	for conn, info := range h.rooms[topic] {
		targets[conn] = info
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("encode change event", "topic", topic, "error", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for conn, info := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("websocket write error", "topic", topic, "conn_id", info.ConnID, "error", err)
			conn.Close()
			h.Remove(topic, conn)
			publishWSEvent(context.Background(), "ws_error", info, err.Error())
			continue
		}
		observability.IncWSEvent(info.Table, "change")
	}
}

func publishWSEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	duration := int64(0)
	if name != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"table":       info.Table,
			"filter":      info.Filter,
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": duration,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	_ = observability.PublishEvent(ctx, wsRoutingKey(info.Table), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
	observability.IncWSEvent(info.Table, name)
}

func wsRoutingKey(table string) string {
	return "ws_events." + table
}
