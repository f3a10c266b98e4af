// Package reactions keeps per-message emoji reactions with optimistic
// toggling.
package reactions

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"storefront-messaging/internal/core/cache"
	"storefront-messaging/internal/core/op"
	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

// DefaultEmoji is used by AddReaction when no emoji is given.
const DefaultEmoji = "👍"

const (
	msgSignIn       = "Please sign in to react to messages."
	msgUpdateFailed = "We couldn't update your reaction. Please try again."
	msgLoadFailed   = "We couldn't load reactions for this message."
)

// Source persists reactions for the signed-in user.
type Source interface {
	ListReactions(ctx context.Context, messageID string) ([]models.Reaction, error)
	AddReaction(ctx context.Context, messageID, emoji string) error
	RemoveReaction(ctx context.Context, messageID, emoji string) error
}

// Identity reports the signed-in user.
type Identity interface {
	CurrentUser(ctx context.Context) (models.CurrentUser, error)
}

// Key is the cache key for one message's reactions.
func Key(messageID string) cache.Key {
	return cache.NewKey("reactions", messageID)
}

// Toggle adds userID to the emoji's set if absent and removes it otherwise.
// An emoji whose set becomes empty is dropped. The input is not modified.
func Toggle(current []models.Reaction, messageID, userID, userName, emoji string) (next []models.Reaction, added bool) {
	next = clone(current)
	for i := range next {
		if next[i].Emoji != emoji {
			continue
		}
		if _, ok := next[i].Users[userID]; ok {
			delete(next[i].Users, userID)
			next[i].Count = len(next[i].Users)
			if next[i].Count == 0 {
				next = append(next[:i], next[i+1:]...)
			}
			return next, false
		}
		next[i].Users[userID] = userName
		next[i].Count = len(next[i].Users)
		return next, true
	}
	next = append(next, models.Reaction{
		MessageID: messageID,
		Emoji:     emoji,
		Users:     map[string]string{userID: userName},
		Count:     1,
	})
	return next, true
}

// HasReacted reports whether userID is in the emoji's set.
func HasReacted(current []models.Reaction, userID, emoji string) bool {
	for _, r := range current {
		if r.Emoji == emoji {
			_, ok := r.Users[userID]
			return ok
		}
	}
	return false
}

func clone(in []models.Reaction) []models.Reaction {
	out := make([]models.Reaction, 0, len(in)+1)
	for _, r := range in {
		users := make(map[string]string, len(r.Users))
		for id, name := range r.Users {
			users[id] = name
		}
		r.Users = users
		out = append(out, r)
	}
	return out
}

type Ledger struct {
	source   Source
	identity Identity
	cache    cache.Cache
	sink     toast.Sink
	runner   *op.Runner

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(source Source, identity Identity, c cache.Cache, sink toast.Sink, runner *op.Runner) *Ledger {
	if runner == nil {
		runner = op.NewRunner(sink)
	}
	return &Ledger{
		source:   source,
		identity: identity,
		cache:    c,
		sink:     sink,
		runner:   runner,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Reactions returns the message's reactions, empty when they cannot be loaded.
func (l *Ledger) Reactions(ctx context.Context, messageID string) []models.Reaction {
	list, err := l.load(ctx, messageID)
	if err != nil {
		slog.WarnContext(ctx, "load reactions failed", "message_id", messageID, "error", err)
		observability.IncFetchFailure("reactions")
		return []models.Reaction{}
	}
	return list
}

// ToggleReaction flips the signed-in user's emoji on the message. The cache
// reflects the new state before the request is sent and is rolled back if
// the request fails. Toggles on one message are applied in call order.
func (l *Ledger) ToggleReaction(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	return l.mutate(ctx, messageID, emoji, false)
}

// AddReaction adds the emoji for the signed-in user unless already present.
func (l *Ledger) AddReaction(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	if emoji == "" {
		emoji = DefaultEmoji
	}
	return l.mutate(ctx, messageID, emoji, true)
}

func (l *Ledger) mutate(ctx context.Context, messageID, emoji string, addOnly bool) ([]models.Reaction, error) {
	user, err := l.identity.CurrentUser(ctx)
	if err != nil {
		l.show(ctx, toast.Error(msgSignIn))
		return nil, err
	}

	lock := l.lockFor(messageID)
	lock.Lock()
	defer lock.Unlock()

	current, err := l.load(ctx, messageID)
	if err != nil {
		l.show(ctx, toast.Error(msgLoadFailed))
		return nil, err
	}
	if addOnly && HasReacted(current, user.UserID, emoji) {
		return current, nil
	}

	next, added := Toggle(current, messageID, user.UserID, user.DisplayName, emoji)
	if err := l.cache.Set(ctx, Key(messageID), next); err != nil {
		slog.WarnContext(ctx, "optimistic reaction write failed", "message_id", messageID, "error", err)
	}

	err = l.runner.Run(ctx, "toggle_reaction", func(ctx context.Context) error {
		if added {
			return l.source.AddReaction(ctx, messageID, emoji)
		}
		return l.source.RemoveReaction(ctx, messageID, emoji)
	})
	if err != nil {
		if setErr := l.cache.Set(ctx, Key(messageID), current); setErr != nil {
			slog.WarnContext(ctx, "reaction rollback failed", "message_id", messageID, "error", errors.Join(err, setErr))
			cache.InvalidateAll(ctx, l.cache, Key(messageID))
		}
		slog.WarnContext(ctx, "reaction update failed", "message_id", messageID, "emoji", emoji, "error", err)
		l.show(ctx, toast.Error(msgUpdateFailed))
		return current, err
	}
	cache.InvalidateAll(ctx, l.cache, Key(messageID))
	return next, nil
}

func (l *Ledger) load(ctx context.Context, messageID string) ([]models.Reaction, error) {
	return cache.Load(ctx, l.cache, Key(messageID), func(ctx context.Context) ([]models.Reaction, error) {
		return l.source.ListReactions(ctx, messageID)
	})
}

func (l *Ledger) lockFor(messageID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[messageID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[messageID] = m
	}
	return m
}

func (l *Ledger) show(ctx context.Context, t toast.Toast) {
	if l.sink != nil {
		l.sink.Show(ctx, t)
	}
}
