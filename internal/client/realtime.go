package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"storefront-messaging/internal/core/op"
	"storefront-messaging/internal/core/presence"
	"storefront-messaging/internal/models"
)

const handshakeTimeout = 10 * time.Second

var _ presence.Subscriber = (*Realtime)(nil)

// Realtime opens change subscriptions over the API's websocket endpoint.
// The endpoint is derived on first use; a failed derivation is retried on
// the next Subscribe.
type Realtime struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer

	init     op.InitToken
	endpoint string
}

func NewRealtime(baseURL, token string) *Realtime {
	return &Realtime{
		baseURL: baseURL,
		token:   token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (r *Realtime) resolve() error {
	u, err := url.Parse(strings.TrimRight(r.baseURL, "/"))
	if err != nil {
		return fmt.Errorf("parsing realtime url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return fmt.Errorf("unsupported realtime scheme %q", u.Scheme)
	}
	u.Path += "/ws/subscribe"
	r.endpoint = u.String()
	return nil
}

// Subscribe calls onChange for every change event on table/filter until the
// returned cancel func is called or ctx ends.
func (r *Realtime) Subscribe(ctx context.Context, table, filter string, onChange func()) (func() error, error) {
	if err := r.init.Do(r.resolve); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("table", table)
	query.Set("filter", filter)
	if r.token != "" {
		query.Set("token", r.token)
	}

	conn, resp, err := r.dialer.DialContext(ctx, r.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime handshake (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime handshake: %w", err)
	}

	sub := &subscription{conn: conn, closed: make(chan struct{})}
	go sub.read(table, onChange)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.close()
		case <-sub.closed:
		}
	}()
	return sub.close, nil
}

type subscription struct {
	conn   *websocket.Conn
	once   sync.Once
	closed chan struct{}
	err    error
}

func (s *subscription) close() error {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.err = s.conn.Close()
	})
	return s.err
}

func (s *subscription) read(table string, onChange func()) {
	defer s.close()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Debug("realtime subscription ended", "table", table, "error", err)
				}
			}
			return
		}
		var event models.ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Debug("realtime event decode failed", "table", table, "error", err)
			continue
		}
		if event.Type == "change" && onChange != nil {
			onChange()
		}
	}
}
