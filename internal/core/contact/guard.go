// Package contact decides whether the signed-in user may open a conversation
// with a seller.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/models"
)

type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonSelfContact     Reason = "self_contact"
	ReasonNotContactable  Reason = "not_contactable"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonUnavailable     Reason = "unavailable"
)

var reasonMessages = map[Reason]string{
	ReasonUnauthenticated: "Please sign in to contact sellers.",
	ReasonSelfContact:     "You can't start a conversation with your own store.",
	ReasonNotContactable:  "This seller isn't accepting messages right now.",
	ReasonRateLimited:     "You're contacting sellers too quickly. Please wait a moment and try again.",
	ReasonUnavailable:     "We couldn't verify this request. Please try again.",
}

// DeniedError explains why a contact attempt was refused.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("contact denied: %s", e.Reason)
}

// Message is the user-facing explanation.
func (e *DeniedError) Message() string {
	return reasonMessages[e.Reason]
}

// Session reports the signed-in user. An unauthenticated caller yields
// models.ErrUnauthorized.
type Session interface {
	CurrentUser(ctx context.Context) (models.CurrentUser, error)
}

// SellerDirectory resolves a seller's contact settings.
type SellerDirectory interface {
	GetSeller(ctx context.Context, sellerID string) (models.SellerSummary, error)
}

// Guard gates every conversation-creating action.
type Guard struct {
	session Session
	sellers SellerDirectory
	sink    toast.Sink
	limits  *limiterPool
}

type Option func(*Guard)

// WithRate sets the per-user contact budget.
func WithRate(perMinute float64, burst int) Option {
	return func(g *Guard) {
		g.limits = newLimiterPool(rate.Limit(perMinute/60), burst)
	}
}

func NewGuard(session Session, sellers SellerDirectory, sink toast.Sink, opts ...Option) *Guard {
	g := &Guard{
		session: session,
		sellers: sellers,
		sink:    sink,
		limits:  newLimiterPool(rate.Limit(6.0/60), 3),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns nil when contact is allowed and a *DeniedError otherwise.
// The rate budget is only spent by attempts that pass every other rule.
func (g *Guard) Check(ctx context.Context, sellerID string) error {
	user, err := g.session.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			return &DeniedError{Reason: ReasonUnauthenticated}
		}
		slog.WarnContext(ctx, "contact check: session lookup failed", "error", err)
		return &DeniedError{Reason: ReasonUnavailable}
	}
	if user.UserID == "" {
		return &DeniedError{Reason: ReasonUnauthenticated}
	}

	seller, err := g.sellers.GetSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &DeniedError{Reason: ReasonNotContactable}
		}
		slog.WarnContext(ctx, "contact check: seller lookup failed", "seller_id", sellerID, "error", err)
		return &DeniedError{Reason: ReasonUnavailable}
	}
	if seller.OwnerUserID != "" && seller.OwnerUserID == user.UserID {
		return &DeniedError{Reason: ReasonSelfContact}
	}
	if !seller.Contactable {
		return &DeniedError{Reason: ReasonNotContactable}
	}
	if !g.limits.Allow(user.UserID) {
		return &DeniedError{Reason: ReasonRateLimited}
	}
	return nil
}

// CanContact runs Check and shows exactly one error toast on denial. It never
// returns an error; callers abort quietly on false.
func (g *Guard) CanContact(ctx context.Context, sellerID string) bool {
	err := g.Check(ctx, sellerID)
	if err == nil {
		return true
	}
	var denied *DeniedError
	if !errors.As(err, &denied) {
		denied = &DeniedError{Reason: ReasonUnavailable}
	}
	slog.DebugContext(ctx, "contact denied", "seller_id", sellerID, "reason", denied.Reason)
	if g.sink != nil {
		g.sink.Show(ctx, toast.Error(denied.Message()))
	}
	return false
}

type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func newLimiterPool(limit rate.Limit, burst int) *limiterPool {
	if burst <= 0 {
		burst = 1
	}
	return &limiterPool{m: make(map[string]*rate.Limiter), limit: limit, burst: burst}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(p.limit, p.burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
