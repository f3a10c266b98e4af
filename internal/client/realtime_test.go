package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-messaging/internal/models"
)

func TestRealtimeDeliversChangeEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	query := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query <- r.URL.RawQuery
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(models.ChangeEvent{Type: "ready"})
		_ = conn.WriteJSON(models.ChangeEvent{Type: "change", Table: models.TypingTable, Filter: models.ConversationFilter("c1")})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	changes := make(chan struct{}, 4)
	rt := NewRealtime(srv.URL, "tok")
	cancel, err := rt.Subscribe(context.Background(), models.TypingTable, models.ConversationFilter("c1"), func() {
		changes <- struct{}{}
	})
	require.NoError(t, err)

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change event delivered")
	}
	assert.Equal(t, "filter=conversation_id%3Deq.c1&table=typing_signals&token=tok", <-query)

	require.NoError(t, cancel())
	assert.NoError(t, cancel())
	assert.Len(t, changes, 0)
}

func TestRealtimeRejectsUnsupportedScheme(t *testing.T) {
	rt := NewRealtime("ftp://example.com", "tok")

	_, err := rt.Subscribe(context.Background(), models.TypingTable, "x", func() {})

	require.Error(t, err)
	assert.False(t, rt.init.Done())
}
