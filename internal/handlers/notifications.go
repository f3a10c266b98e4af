package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/telemetry"
	"storefront-messaging/internal/ws"
)

// NotificationHandler serves notifications, their groups, snoozing and
// client telemetry.
type NotificationHandler struct {
	notifRepo repositories.NotificationRepository
	groupRepo repositories.NotificationGroupRepository
	events    *telemetry.NotificationEmitter
	audit     *telemetry.AuditEmitter
	hub       *ws.Hub
	now       func() time.Time
}

func NewNotificationHandler(
	notifRepo repositories.NotificationRepository,
	groupRepo repositories.NotificationGroupRepository,
	events *telemetry.NotificationEmitter,
	audit *telemetry.AuditEmitter,
	hub *ws.Hub,
) *NotificationHandler {
	return &NotificationHandler{
		notifRepo: notifRepo,
		groupRepo: groupRepo,
		events:    events,
		audit:     audit,
		hub:       hub,
		now:       time.Now,
	}
}

// changed tells the user's other sessions to refetch.
func (h *NotificationHandler) changed(userID string) {
	h.hub.Notify(models.NotificationsTable, models.UserFilter(userID))
}

// ListNotifications returns the caller's notifications that are not snoozed
// at request time, filtered by type, read state and archived state.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var filter models.NotificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.notifRepo.ListNotifications(c.Request.Context(), c.GetString("userID"), filter, h.now())
	if err != nil {
		respondErr(c, err, "failed to load notifications")
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.notifRepo.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondErr(c, err, "failed to mark notification read")
		return
	}
	h.changed(userID)
	respondOK(c, http.StatusOK, nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("userID")
	n, err := h.notifRepo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err, "failed to mark notifications read")
		return
	}
	h.audit.Emit(c.Request.Context(), "INFO", "notifications marked read", requestIDFromContext(c), userIDFromContext(c))
	h.changed(userID)
	respondOK(c, http.StatusOK, gin.H{"updated": n})
}

func (h *NotificationHandler) Archive(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.notifRepo.Archive(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondErr(c, err, "failed to archive notification")
		return
	}
	h.changed(userID)
	respondOK(c, http.StatusOK, nil)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	id := c.Param("id")
	if err := h.notifRepo.Delete(c.Request.Context(), userID, id); err != nil {
		respondErr(c, err, "failed to delete notification")
		return
	}
	h.audit.Emit(c.Request.Context(), "INFO", "notification deleted: "+id, requestIDFromContext(c), userIDFromContext(c))
	h.changed(userID)
	respondOK(c, http.StatusOK, nil)
}

func (h *NotificationHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupRepo.ListGroups(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondErr(c, err, "failed to load notification groups")
		return
	}
	respondOK(c, http.StatusOK, groups)
}

// SetGroupExpanded persists the group's expanded flag.
func (h *NotificationHandler) SetGroupExpanded(c *gin.Context) {
	var req struct {
		Expanded *bool `json:"expanded" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	userID := c.GetString("userID")
	if err := h.groupRepo.SetExpanded(c.Request.Context(), userID, c.Param("id"), *req.Expanded); err != nil {
		respondErr(c, err, "failed to update notification group")
		return
	}
	h.changed(userID)
	respondOK(c, http.StatusOK, nil)
}

// MarkGroupRead marks every notification in the group read in one
// transaction.
func (h *NotificationHandler) MarkGroupRead(c *gin.Context) {
	userID := c.GetString("userID")
	n, err := h.groupRepo.MarkGroupRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondErr(c, err, "failed to mark notification group read")
		return
	}
	h.audit.Emit(c.Request.Context(), "INFO", "notification group marked read", requestIDFromContext(c), userIDFromContext(c))
	h.changed(userID)
	respondOK(c, http.StatusOK, gin.H{"updated": n})
}

func (h *NotificationHandler) ListSnoozed(c *gin.Context) {
	list, err := h.notifRepo.ListSnoozed(c.Request.Context(), c.GetString("userID"), h.now())
	if err != nil {
		respondErr(c, err, "failed to load snoozed notifications")
		return
	}
	respondOK(c, http.StatusOK, list)
}

// Snooze hides the notification until a future time. The latest snooze
// wins.
func (h *NotificationHandler) Snooze(c *gin.Context) {
	var req struct {
		Until time.Time `json:"until" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.Until.After(h.now()) {
		badRequest(c, "snooze time must be in the future")
		return
	}

	userID := c.GetString("userID")
	if err := h.notifRepo.Snooze(c.Request.Context(), userID, c.Param("id"), req.Until); err != nil {
		respondErr(c, err, "failed to snooze notification")
		return
	}
	h.changed(userID)
	respondOK(c, http.StatusOK, nil)
}

func (h *NotificationHandler) Unsnooze(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.notifRepo.Unsnooze(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondErr(c, err, "failed to unsnooze notification")
		return
	}
	h.changed(userID)
	respondOK(c, http.StatusOK, nil)
}

// TrackDelivery stamps first delivery and forwards the event to the broker.
func (h *NotificationHandler) TrackDelivery(c *gin.Context) {
	userID := c.GetString("userID")
	id := c.Param("id")
	if err := h.notifRepo.MarkDelivered(c.Request.Context(), userID, id); err != nil {
		respondErr(c, err, "failed to record delivery")
		return
	}
	h.events.Delivered(c.Request.Context(), userID, id, requestIDFromContext(c))
	respondOK(c, http.StatusAccepted, nil)
}

// TrackInteraction records an open, click or dismiss.
func (h *NotificationHandler) TrackInteraction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required,oneof=opened clicked dismissed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	userID := c.GetString("userID")
	id := c.Param("id")
	if err := h.notifRepo.RecordInteraction(c.Request.Context(), userID, id, req.Action); err != nil {
		respondErr(c, err, "failed to record interaction")
		return
	}
	h.events.Interaction(c.Request.Context(), userID, id, req.Action, requestIDFromContext(c))
	respondOK(c, http.StatusAccepted, nil)
}
