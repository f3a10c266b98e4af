package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-messaging/internal/mocks"
	"storefront-messaging/internal/models"
)

func TestHubAddAndRemove(t *testing.T) {
	hub := NewHub()
	topic := Topic(models.TypingTable, models.ConversationFilter("c1"))

	hub.Add(topic, nil, ConnInfo{})
	require.Equal(t, 1, hub.Count(topic))

	hub.Remove(topic, nil)
	assert.Equal(t, 0, hub.Count(topic))
	assert.Empty(t, hub.rooms)
}

func TestNotifyOnNilHubIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Notify(models.TypingTable, "x") })
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	topic := Topic(models.TypingTable, models.ConversationFilter("c1"))
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(topic, conn, ConnInfo{ConnID: "c", Table: models.TypingTable})
		close(registered)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()
	<-registered

	hub.Notify(models.TypingTable, models.ConversationFilter("c1"))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event models.ChangeEvent
	require.NoError(t, client.ReadJSON(&event))
	assert.Equal(t, models.NewChangeEvent(models.TypingTable, models.ConversationFilter("c1")), event)
}

func TestSubscribeRequiresTableAndFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/subscribe", NewSubscribeHandler(NewHub(), nil, nil).Handle)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/subscribe?table=typing_signals", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func setupSubscribeServer(t *testing.T, hub *Hub) (*httptest.Server, *mocks.DirectoryRepositoryMock, *mocks.ConversationRepositoryMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := new(mocks.DirectoryRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	r := gin.New()
	r.GET("/ws/subscribe", NewSubscribeHandler(hub, sessions, convs).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sessions, convs
}

func TestSubscribeParticipantReceivesTypingChanges(t *testing.T) {
	hub := NewHub()
	srv, sessions, convs := setupSubscribeServer(t, hub)
	filter := models.ConversationFilter("c1")

	sessions.On("ResolveSession", mock.Anything, "tok").Return(models.CurrentUser{UserID: "u1"}, nil).Once()
	convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/subscribe?table=typing_signals&filter=conversation_id%3Deq.c1&token=tok"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	topic := Topic(models.TypingTable, filter)
	require.Eventually(t, func() bool { return hub.Count(topic) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(models.TypingTable, filter)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event models.ChangeEvent
	require.NoError(t, client.ReadJSON(&event))
	assert.Equal(t, "change", event.Type)
	sessions.AssertExpectations(t)
	convs.AssertExpectations(t)
}

func TestSubscribeRejectsNonParticipant(t *testing.T) {
	srv, sessions, convs := setupSubscribeServer(t, NewHub())

	sessions.On("ResolveSession", mock.Anything, "tok").Return(models.CurrentUser{UserID: "u2"}, nil).Once()
	convs.On("IsParticipant", mock.Anything, "c1", "u2").Return(false, nil).Once()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/subscribe?table=typing_signals&filter=conversation_id%3Deq.c1&token=tok"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSubscribeNotificationsOnlyForOwnUser(t *testing.T) {
	srv, sessions, _ := setupSubscribeServer(t, NewHub())

	sessions.On("ResolveSession", mock.Anything, "tok").Return(models.CurrentUser{UserID: "u1"}, nil).Once()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/subscribe?table=notifications&filter=user_id%3Deq.u9&token=tok"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSubscribeRejectsBadToken(t *testing.T) {
	srv, sessions, _ := setupSubscribeServer(t, NewHub())

	sessions.On("ResolveSession", mock.Anything, "bad").Return(nil, models.ErrNotFound).Once()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/subscribe?table=notifications&filter=user_id%3Deq.u1&token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
