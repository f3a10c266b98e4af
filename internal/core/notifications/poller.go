package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

// DefaultPollInterval is how often the poller refreshes the listing.
const DefaultPollInterval = 30 * time.Second

// Poller periodically refreshes one notification listing and hands the
// visible result to onUpdate.
type Poller struct {
	pipeline *Pipeline
	filter   models.NotificationFilter
	interval time.Duration
	onUpdate func([]models.Notification)
	logger   *slog.Logger

	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewPoller(p *Pipeline, filter models.NotificationFilter, interval time.Duration, onUpdate func([]models.Notification), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		pipeline: p,
		filter:   filter,
		interval: interval,
		onUpdate: onUpdate,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start refreshes once immediately and then on every tick.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	p.logger.Info("notification poller started", "interval", p.interval)

	p.wg.Add(1)
	go p.run(ctx)
}

// Stop cancels the loop and waits for it. Calling Stop twice is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("notification poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	observability.IncPoll("notifications")
	list, err := p.pipeline.Refresh(ctx, p.filter)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("notification poll failed", "error", err)
		}
		return
	}
	if p.onUpdate != nil {
		p.onUpdate(list)
	}
}
