// Package op bounds user-initiated operations with a timeout and surfaces a
// one-time "still working" notice when they run long.
package op

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/observability"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultSlowAfter = 5 * time.Second
	SlowMessage      = "Still working…"
)

// ErrTimedOut wraps the error of an operation that hit its deadline.
var ErrTimedOut = errors.New("operation timed out")

// Options configures a single Run.
type Options struct {
	Timeout   time.Duration
	SlowAfter time.Duration
	OnSlow    func()
}

// Run calls fn with a context bounded by opts.Timeout. OnSlow fires at most
// once, only if fn is still running after SlowAfter.
func Run(ctx context.Context, opts Options, fn func(context.Context) error) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if opts.SlowAfter > 0 && opts.OnSlow != nil {
		timer := time.AfterFunc(opts.SlowAfter, opts.OnSlow)
		defer timer.Stop()
	}

	err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimedOut, err)
	}
	return err
}

// Runner applies shared Options to named operations and reports the slow
// notice through a toast sink.
type Runner struct {
	Timeout   time.Duration
	SlowAfter time.Duration
	Sink      toast.Sink
}

// NewRunner returns a Runner with the default bounds.
func NewRunner(sink toast.Sink) *Runner {
	return &Runner{Timeout: DefaultTimeout, SlowAfter: DefaultSlowAfter, Sink: sink}
}

// Run executes fn and records the outcome under name.
func (r *Runner) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	opts := Options{Timeout: r.Timeout, SlowAfter: r.SlowAfter}
	if r.Sink != nil {
		opts.OnSlow = func() { r.Sink.Show(ctx, toast.Info(SlowMessage)) }
	}
	err := Run(ctx, opts, fn)
	observability.ObserveMutation(name, err)
	return err
}

// InitToken guards a one-shot initialization. A failed attempt leaves the
// token unset so the next caller retries.
type InitToken struct {
	mu   sync.Mutex
	done bool
}

func (t *InitToken) Do(fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	t.done = true
	return nil
}

// Done reports whether initialization has succeeded.
func (t *InitToken) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
