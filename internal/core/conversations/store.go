// Package conversations lists the signed-in user's conversations and opens
// new ones idempotently.
package conversations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"storefront-messaging/internal/core/cache"
	"storefront-messaging/internal/core/op"
	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

// ErrContactDenied is returned when the contact gate refuses; the gate has
// already told the user why.
var ErrContactDenied = errors.New("contact denied")

const (
	msgStarted         = "Conversation started."
	msgProfileRequired = "Complete your buyer profile before messaging sellers."
	msgStartFailed     = "We couldn't start the conversation. Please try again."
)

// Source is the data-fetch side of the store. Records are already normalized.
type Source interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, in models.CreateConversationInput) (string, error)
}

// Gate decides whether a conversation may be opened with a seller.
type Gate interface {
	CanContact(ctx context.Context, sellerID string) bool
}

// Key is the cache key for the conversation list.
var Key = cache.NewKey("conversations")

type Store struct {
	source Source
	gate   Gate
	cache  cache.Cache
	sink   toast.Sink
	runner *op.Runner
	flight singleflight.Group
}

func NewStore(source Source, gate Gate, c cache.Cache, sink toast.Sink, runner *op.Runner) *Store {
	if runner == nil {
		runner = op.NewRunner(sink)
	}
	return &Store{source: source, gate: gate, cache: c, sink: sink, runner: runner}
}

// ListConversations returns the cached or freshly fetched list. Fetch
// failures are logged and yield an empty list.
func (s *Store) ListConversations(ctx context.Context) []models.Conversation {
	list, err := cache.Load(ctx, s.cache, Key, s.source.ListConversations)
	if err != nil {
		slog.WarnContext(ctx, "list conversations failed", "error", err)
		observability.IncFetchFailure("conversations")
		return []models.Conversation{}
	}
	return list
}

// DefaultSubject is used when the caller supplies no subject.
func DefaultSubject(productID string) string {
	if productID != "" {
		return fmt.Sprintf("Inquiry about product %s", productID)
	}
	return "General inquiry"
}

// CreateOrGetConversation returns the id of the conversation for
// (current user, seller, product), creating it if needed. The contact gate
// runs first and a refusal never reaches the network. Concurrent identical
// calls share one request.
func (s *Store) CreateOrGetConversation(ctx context.Context, sellerID, productID, subject string) (string, error) {
	if !s.gate.CanContact(ctx, sellerID) {
		return "", ErrContactDenied
	}
	if subject == "" {
		subject = DefaultSubject(productID)
	}
	in := models.CreateConversationInput{SellerID: sellerID, ProductID: productID, Subject: subject}

	// The shared call outlives any single waiter; the runner bounds it.
	shared := context.WithoutCancel(ctx)
	id, err, _ := s.flight.Do(flightKey(in), func() (interface{}, error) {
		ctx := shared
		var id string
		err := s.runner.Run(ctx, "create_conversation", func(ctx context.Context) error {
			var err error
			id, err = s.source.CreateConversation(ctx, in)
			return err
		})
		if err != nil {
			s.reportCreateFailure(ctx, err)
			return "", err
		}
		cache.InvalidateAll(ctx, s.cache, Key)
		s.show(ctx, toast.Success(msgStarted))
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

func flightKey(in models.CreateConversationInput) string {
	return strings.Join([]string{in.SellerID, in.ProductID, in.Subject}, "\x00")
}

func (s *Store) reportCreateFailure(ctx context.Context, err error) {
	if errors.Is(err, models.ErrMemberProfileNotFound) {
		slog.InfoContext(ctx, "create conversation: member profile missing")
		s.show(ctx, toast.Error(msgProfileRequired))
		return
	}
	slog.WarnContext(ctx, "create conversation failed", "error", err)
	s.show(ctx, toast.Error(msgStartFailed))
}

func (s *Store) show(ctx context.Context, t toast.Toast) {
	if s.sink != nil {
		s.sink.Show(ctx, t)
	}
}
