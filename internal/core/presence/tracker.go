// Package presence tracks who else is typing in a conversation.
package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

const (
	DefaultWindow       = 10 * time.Second
	DefaultPollInterval = 3 * time.Second
	DefaultWriteEvery   = 2 * time.Second
	FallbackName        = "Someone"
)

// Source reads and writes typing signals.
type Source interface {
	ListTypingSignals(ctx context.Context, conversationID string, since time.Time) ([]models.TypingSignal, error)
	UpsertTypingSignal(ctx context.Context, conversationID string) error
}

// Subscriber delivers change notifications for a table and filter. The
// returned func cancels the subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, table, filter string, onChange func()) (func() error, error)
}

// Directory resolves display names. Unknown users yield models.ErrNotFound.
type Directory interface {
	MemberName(ctx context.Context, userID string) (string, error)
	ClaimedSupplierName(ctx context.Context, userID string) (string, error)
}

// Config tunes the tracker. Zero values take the defaults.
type Config struct {
	Window       time.Duration
	PollInterval time.Duration
	WriteEvery   time.Duration
}

// State is the set of other users currently typing.
type State struct {
	Typers         []models.TypingSignal `json:"typers"`
	FirstTyperName string                `json:"first_typer_name,omitempty"`
}

// Label renders the indicator text; empty when nobody is typing.
func (s State) Label() string {
	switch n := len(s.Typers); {
	case n == 0:
		return ""
	case n == 1:
		return fmt.Sprintf("%s is typing…", s.FirstTyperName)
	default:
		return fmt.Sprintf("%d people are typing…", n)
	}
}

func (s State) sameAs(other State) bool {
	if s.FirstTyperName != other.FirstTyperName || len(s.Typers) != len(other.Typers) {
		return false
	}
	for i := range s.Typers {
		if s.Typers[i].UserID != other.Typers[i].UserID {
			return false
		}
	}
	return true
}

// Active keeps signals from users other than viewerID refreshed within
// window of now, inclusive, ordered by when they started typing.
func Active(signals []models.TypingSignal, viewerID string, now time.Time, window time.Duration) []models.TypingSignal {
	out := make([]models.TypingSignal, 0, len(signals))
	for _, sig := range signals {
		if sig.UserID == viewerID {
			continue
		}
		if now.Sub(sig.LastUpdated) > window {
			continue
		}
		out = append(out, sig)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

type Tracker struct {
	source     Source
	subscriber Subscriber
	directory  Directory
	cfg        Config
	now        func() time.Time

	mu       sync.Mutex
	throttle map[string]*rate.Limiter
}

func NewTracker(source Source, subscriber Subscriber, directory Directory, cfg Config) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.WriteEvery <= 0 {
		cfg.WriteEvery = DefaultWriteEvery
	}
	return &Tracker{
		source:     source,
		subscriber: subscriber,
		directory:  directory,
		cfg:        cfg,
		now:        time.Now,
		throttle:   make(map[string]*rate.Limiter),
	}
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Typing records a keystroke burst by the local user. Calls closer together
// than the write interval are dropped.
func (t *Tracker) Typing(ctx context.Context, conversationID string) error {
	t.mu.Lock()
	l, ok := t.throttle[conversationID]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.cfg.WriteEvery), 1)
		t.throttle[conversationID] = l
	}
	t.mu.Unlock()
	if !l.Allow() {
		return nil
	}
	return t.source.UpsertTypingSignal(ctx, conversationID)
}

// Watch fetches immediately, then refreshes on every push event and on a
// fallback poll until Stop. onChange receives the first state and every
// change after it.
func (t *Tracker) Watch(ctx context.Context, conversationID, viewerID string, onChange func(State)) (*Watch, error) {
	if conversationID == "" {
		return nil, errors.New("presence: empty conversation id")
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &Watch{
		tracker:        t,
		conversationID: conversationID,
		viewerID:       viewerID,
		onChange:       onChange,
		alive:          true,
		cancel:         cancel,
		stopCh:         make(chan struct{}),
		done:           make(chan struct{}),
		kick:           make(chan struct{}, 1),
		names:          make(map[string]string),
	}

	w.refresh(ctx)

	if t.subscriber != nil {
		unsubscribe, err := t.subscriber.Subscribe(ctx, models.TypingTable, models.ConversationFilter(conversationID), w.trigger)
		if err != nil {
			slog.WarnContext(ctx, "typing subscription failed, polling only", "conversation_id", conversationID, "error", err)
		} else {
			w.unsubscribe = unsubscribe
		}
	}

	go w.run(ctx)
	return w, nil
}

// Watch is one live typing subscription.
type Watch struct {
	tracker        *Tracker
	conversationID string
	viewerID       string
	onChange       func(State)

	mu          sync.Mutex
	alive       bool
	delivered   bool
	state       State
	names       map[string]string
	unsubscribe func() error

	refreshMu sync.Mutex
	cancel    context.CancelFunc
	stopCh    chan struct{}
	done      chan struct{}
	kick      chan struct{}
}

// State returns the latest resolved state.
func (w *Watch) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done is closed once the refresh loop has exited.
func (w *Watch) Done() <-chan struct{} {
	return w.done
}

// Stop tears the watch down. It is idempotent; results that resolve after
// Stop are discarded.
func (w *Watch) Stop() {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return
	}
	w.alive = false
	unsubscribe := w.unsubscribe
	w.mu.Unlock()

	w.cancel()
	close(w.stopCh)
	if unsubscribe != nil {
		if err := unsubscribe(); err != nil {
			slog.Debug("typing unsubscribe failed", "conversation_id", w.conversationID, "error", err)
		}
	}
}

func (w *Watch) trigger() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Watch) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.tracker.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			observability.IncPoll("typing")
			w.refresh(ctx)
		case <-w.kick:
			w.refresh(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watch) isAlive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

func (w *Watch) refresh(ctx context.Context) {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()
	if !w.isAlive() {
		return
	}

	t := w.tracker
	now := t.now()
	signals, err := t.source.ListTypingSignals(ctx, w.conversationID, now.Add(-t.cfg.Window))
	if err != nil {
		slog.DebugContext(ctx, "typing refresh failed", "conversation_id", w.conversationID, "error", err)
		observability.IncFetchFailure("typing")
		return
	}

	state := State{Typers: Active(signals, w.viewerID, now, t.cfg.Window)}
	if len(state.Typers) > 0 {
		state.FirstTyperName = w.resolveName(ctx, state.Typers[0].UserID)
	}

	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return
	}
	notify := !w.delivered || !state.sameAs(w.state)
	w.state = state
	w.delivered = true
	w.mu.Unlock()

	if notify && w.onChange != nil {
		w.onChange(state)
	}
}

// resolveName tries the member directory, then claimed suppliers. Only
// definitive answers are memoized so a transient failure is retried.
func (w *Watch) resolveName(ctx context.Context, userID string) string {
	w.mu.Lock()
	name, ok := w.names[userID]
	w.mu.Unlock()
	if ok {
		return name
	}

	dir := w.tracker.directory
	if dir == nil {
		return FallbackName
	}
	definitive := true
	lookups := []func(context.Context, string) (string, error){dir.MemberName, dir.ClaimedSupplierName}
	for _, lookup := range lookups {
		n, err := lookup(ctx, userID)
		if err == nil && n != "" {
			name = n
			break
		}
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			definitive = false
			slog.DebugContext(ctx, "typing name lookup failed", "user_id", userID, "error", err)
		}
	}
	if name == "" {
		name = FallbackName
	}
	if definitive {
		w.mu.Lock()
		w.names[userID] = name
		w.mu.Unlock()
	}
	return name
}
