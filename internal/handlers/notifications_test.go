package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-messaging/internal/mocks"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/telemetry"
	"storefront-messaging/internal/ws"
)

var notifNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const auditKey = "audit.messaging"

type notificationDeps struct {
	notifs    *mocks.NotificationRepositoryMock
	groups    *mocks.NotificationGroupRepositoryMock
	publisher *mocks.PublisherMock
	auditPub  *mocks.PublisherMock
	audits    []telemetry.AuditEnvelope
	router    *gin.Engine
}

func setupNotificationRouter() *notificationDeps {
	d := &notificationDeps{
		notifs:    new(mocks.NotificationRepositoryMock),
		groups:    new(mocks.NotificationGroupRepositoryMock),
		publisher: new(mocks.PublisherMock),
		auditPub:  new(mocks.PublisherMock),
	}
	d.auditPub.On("Publish", mock.Anything, auditKey, mock.Anything, mock.Anything).Return(nil).Maybe().
		Run(func(args mock.Arguments) {
			d.audits = append(d.audits, args.Get(2).(telemetry.AuditEnvelope))
		})
	events := telemetry.NewNotificationEmitter(d.publisher, "storefront-messaging")
	audit := telemetry.NewAuditEmitter(d.auditPub, auditKey, "storefront-messaging", "test")
	handler := NewNotificationHandler(d.notifs, d.groups, events, audit, ws.NewHub())
	handler.now = func() time.Time { return notifNow }
	d.router = setupRouter(func(r *gin.Engine) {
		Set{Notifications: handler}.registerNotifications(r)
	})
	return d
}

func TestListNotificationsBindsFilter(t *testing.T) {
	d := setupNotificationRouter()
	read := false
	archived := true
	filter := models.NotificationFilter{Type: "order", Read: &read, Archived: &archived}
	d.notifs.On("ListNotifications", mock.Anything, "u1", filter, notifNow).Return([]models.Notification{{ID: "n1"}}, nil).Once()

	rec := serve(d.router, http.MethodGet, "/notifications?type=order&read=false&archived=true", "")

	require.Equal(t, http.StatusOK, rec.Code)
	d.notifs.AssertExpectations(t)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("MarkRead", mock.Anything, "u1", "n404").Return(repositories.ErrNotificationNotFound).Once()

	rec := serve(d.router, http.MethodPost, "/notifications/n404/read", "")

	requireErrorCode(t, rec, http.StatusNotFound, models.CodeNotFound)
}

func TestMarkAllRead(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("MarkAllRead", mock.Anything, "u1").Return(int64(5), nil).Once()

	rec := serve(d.router, http.MethodPost, "/notifications/read-all", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":5}`, string(decodeEnvelope(t, rec).Data))
}

func TestBulkAndDestructiveMutationsAreAudited(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("MarkAllRead", mock.Anything, "u1").Return(int64(2), nil).Once()
	d.notifs.On("Archive", mock.Anything, "u1", "n1").Return(nil).Once()
	d.notifs.On("Delete", mock.Anything, "u1", "n1").Return(nil).Once()

	require.Equal(t, http.StatusOK, serve(d.router, http.MethodPost, "/notifications/read-all", "").Code)
	require.Equal(t, http.StatusOK, serve(d.router, http.MethodPost, "/notifications/n1/archive", "").Code)
	require.Equal(t, http.StatusOK, serve(d.router, http.MethodDelete, "/notifications/n1", "").Code)

	require.Len(t, d.audits, 2)
	assert.Equal(t, "notifications marked read", d.audits[0].Payload.Text)
	assert.Equal(t, "notification deleted: n1", d.audits[1].Payload.Text)
	for _, env := range d.audits {
		assert.Equal(t, "audit_log", env.EventType)
		assert.Equal(t, "test", env.Environment)
		assert.NotEmpty(t, env.RequestID)
		require.NotNil(t, env.UserID)
		assert.Equal(t, "u1", *env.UserID)
	}
}

func TestFailedMutationIsNotAudited(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("Delete", mock.Anything, "u1", "n404").Return(repositories.ErrNotificationNotFound).Once()

	rec := serve(d.router, http.MethodDelete, "/notifications/n404", "")

	requireErrorCode(t, rec, http.StatusNotFound, models.CodeNotFound)
	assert.Empty(t, d.audits)
}

func TestArchiveAndDelete(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("Archive", mock.Anything, "u1", "n1").Return(nil).Once()
	d.notifs.On("Delete", mock.Anything, "u1", "n1").Return(nil).Once()

	require.Equal(t, http.StatusOK, serve(d.router, http.MethodPost, "/notifications/n1/archive", "").Code)
	require.Equal(t, http.StatusOK, serve(d.router, http.MethodDelete, "/notifications/n1", "").Code)
	d.notifs.AssertExpectations(t)
}

func TestSnoozeRejectsPast(t *testing.T) {
	d := setupNotificationRouter()

	rec := serve(d.router, http.MethodPost, "/notifications/n1/snooze", `{"until":"2026-03-01T11:00:00Z"}`)

	requireErrorCode(t, rec, http.StatusBadRequest, models.CodeInvalidRequest)
	d.notifs.AssertNotCalled(t, "Snooze", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSnoozeAndUnsnooze(t *testing.T) {
	d := setupNotificationRouter()
	until := notifNow.Add(2 * time.Hour)
	d.notifs.On("Snooze", mock.Anything, "u1", "n1", until).Return(nil).Once()
	d.notifs.On("Unsnooze", mock.Anything, "u1", "n1").Return(nil).Once()
	d.notifs.On("ListSnoozed", mock.Anything, "u1", notifNow).Return([]models.Notification{}, nil).Once()

	require.Equal(t, http.StatusOK, serve(d.router, http.MethodPost, "/notifications/n1/snooze", `{"until":"2026-03-01T14:00:00Z"}`).Code)
	require.Equal(t, http.StatusOK, serve(d.router, http.MethodGet, "/notifications/snoozed", "").Code)
	require.Equal(t, http.StatusOK, serve(d.router, http.MethodDelete, "/notifications/n1/snooze", "").Code)
	d.notifs.AssertExpectations(t)
}

func TestGroupEndpoints(t *testing.T) {
	d := setupNotificationRouter()
	d.groups.On("ListGroups", mock.Anything, "u1").Return([]models.NotificationGroup{{ID: "g1"}}, nil).Once()
	d.groups.On("SetExpanded", mock.Anything, "u1", "g1", false).Return(nil).Once()
	d.groups.On("MarkGroupRead", mock.Anything, "u1", "g1").Return(int64(4), nil).Once()

	require.Equal(t, http.StatusOK, serve(d.router, http.MethodGet, "/notification-groups", "").Code)
	require.Equal(t, http.StatusOK, serve(d.router, http.MethodPut, "/notification-groups/g1/expanded", `{"expanded":false}`).Code)
	rec := serve(d.router, http.MethodPost, "/notification-groups/g1/read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":4}`, string(decodeEnvelope(t, rec).Data))
	d.groups.AssertExpectations(t)
}

func TestSetGroupExpandedRequiresFlag(t *testing.T) {
	d := setupNotificationRouter()

	rec := serve(d.router, http.MethodPut, "/notification-groups/g1/expanded", `{}`)

	requireErrorCode(t, rec, http.StatusBadRequest, models.CodeInvalidRequest)
}

func TestTrackDeliveryPublishesEvent(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("MarkDelivered", mock.Anything, "u1", "n1").Return(nil).Once()
	d.publisher.On("Publish", mock.Anything, "notifications."+telemetry.EventNotificationDelivered, mock.MatchedBy(func(e telemetry.NotificationEvent) bool {
		return e.NotificationID == "n1" && e.UserID == "u1"
	}), mock.Anything).Return(nil).Once()

	rec := serve(d.router, http.MethodPost, "/notifications/n1/delivery", "")

	require.Equal(t, http.StatusAccepted, rec.Code)
	d.notifs.AssertExpectations(t)
	d.publisher.AssertExpectations(t)
}

func TestTrackInteractionValidatesAction(t *testing.T) {
	d := setupNotificationRouter()

	rec := serve(d.router, http.MethodPost, "/notifications/n1/interactions", `{"action":"liked"}`)

	requireErrorCode(t, rec, http.StatusBadRequest, models.CodeInvalidRequest)
	d.notifs.AssertNotCalled(t, "RecordInteraction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackInteraction(t *testing.T) {
	d := setupNotificationRouter()
	d.notifs.On("RecordInteraction", mock.Anything, "u1", "n1", models.InteractionClicked).Return(nil).Once()
	d.publisher.On("Publish", mock.Anything, "notifications."+telemetry.EventNotificationInteraction, mock.Anything, mock.Anything).Return(nil).Once()

	rec := serve(d.router, http.MethodPost, "/notifications/n1/interactions", `{"action":"clicked"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	d.publisher.AssertExpectations(t)
}
