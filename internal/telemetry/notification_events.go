package telemetry

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventNotificationDelivered   = "notification_delivered"
	EventNotificationInteraction = "notification_interaction"
)

// NotificationEvent is published when a client reports delivery of, or an
// interaction with, a notification.
type NotificationEvent struct {
	SchemaVersion  int    `json:"schema_version"`
	EventType      string `json:"event_type"`
	OccurredAt     string `json:"occurred_at"`
	Service        string `json:"service"`
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Action         string `json:"action,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// NotificationEmitter forwards notification telemetry to the broker.
type NotificationEmitter struct {
	publisher Publisher
	service   string
	now       func() time.Time
}

func NewNotificationEmitter(publisher Publisher, service string) *NotificationEmitter {
	return &NotificationEmitter{publisher: publisher, service: service, now: time.Now}
}

// Delivered reports a first delivery.
func (e *NotificationEmitter) Delivered(ctx context.Context, userID, notificationID, requestID string) {
	e.emit(ctx, NotificationEvent{
		EventType:      EventNotificationDelivered,
		NotificationID: notificationID,
		UserID:         userID,
		RequestID:      requestID,
	})
}

// Interaction reports an open, click or dismiss.
func (e *NotificationEmitter) Interaction(ctx context.Context, userID, notificationID, action, requestID string) {
	e.emit(ctx, NotificationEvent{
		EventType:      EventNotificationInteraction,
		NotificationID: notificationID,
		UserID:         userID,
		Action:         action,
		RequestID:      requestID,
	})
}

func (e *NotificationEmitter) emit(ctx context.Context, event NotificationEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	event.SchemaVersion = 1
	event.Service = e.service
	event.OccurredAt = e.now().UTC().Format(time.RFC3339Nano)

	routingKey := "notifications." + event.EventType
	if err := e.publisher.Publish(ctx, routingKey, event, map[string]string{"x-request-id": event.RequestID}); err != nil {
		slog.WarnContext(ctx, "notification event publish failed", "event", event.EventType, "notification_id", event.NotificationID, "error", err)
	}
}
