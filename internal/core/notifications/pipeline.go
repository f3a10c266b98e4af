// Package notifications fetches, mutates and tracks the signed-in user's
// notifications. Reads go through the shared cache; mutations invalidate
// it. Snooze state is evaluated against the clock at read time.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"storefront-messaging/internal/core/cache"
	"storefront-messaging/internal/core/op"
	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

// DefaultTelemetryTimeout bounds each background tracking request.
const DefaultTelemetryTimeout = 10 * time.Second

// ErrSnoozeInPast is returned when a snooze deadline is not in the future.
var ErrSnoozeInPast = errors.New("snooze time must be in the future")

const (
	msgMarkReadFailed    = "We couldn't mark the notification as read."
	msgMarkAllFailed     = "We couldn't mark all notifications as read."
	msgArchiveFailed     = "We couldn't archive the notification."
	msgDeleteFailed      = "We couldn't delete the notification."
	msgGroupToggleFailed = "We couldn't update the notification group."
	msgGroupReadFailed   = "We couldn't mark the group as read."
	msgSnoozed           = "Notification snoozed."
	msgSnoozeFailed      = "We couldn't snooze the notification."
	msgSnoozePast        = "Choose a time in the future to snooze until."
	msgUnsnoozed         = "Notification restored."
	msgUnsnoozeFailed    = "We couldn't unsnooze the notification."
)

// Source is the data-fetch side of the pipeline.
type Source interface {
	GetNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	ArchiveNotification(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error

	GetNotificationGroups(ctx context.Context) ([]models.NotificationGroup, error)
	ToggleNotificationGroupExpanded(ctx context.Context, groupID string, expanded bool) error
	MarkNotificationGroupAsRead(ctx context.Context, groupID string) error

	GetSnoozedNotifications(ctx context.Context) ([]models.Notification, error)
	SnoozeNotification(ctx context.Context, id string, until time.Time) error
	UnsnoozeNotification(ctx context.Context, id string) error

	TrackNotificationDelivery(ctx context.Context, id string) error
	TrackNotificationInteraction(ctx context.Context, id, action string) error
}

var (
	// ListPrefix matches every filtered listing.
	ListPrefix = cache.NewKey("notifications")
	GroupsKey  = cache.NewKey("notification-groups")
	SnoozedKey = cache.NewKey("notifications-snoozed")
)

// ListKey is the cache key for one filtered listing.
func ListKey(f models.NotificationFilter) cache.Key {
	return cache.NewKey("notifications", f.Type, boolPart(f.Read), boolPart(f.Archived))
}

func boolPart(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// UnreadCount counts notifications that are unread, unarchived and not
// snoozed at now.
func UnreadCount(list []models.Notification, now time.Time) int {
	n := 0
	for _, item := range list {
		if item.UnreadAt(now) {
			n++
		}
	}
	return n
}

type Pipeline struct {
	source           Source
	cache            cache.Cache
	sink             toast.Sink
	runner           *op.Runner
	now              func() time.Time
	telemetryTimeout time.Duration

	mu        sync.Mutex
	delivered map[string]struct{}
	inflight  sync.WaitGroup
}

func NewPipeline(source Source, c cache.Cache, sink toast.Sink, runner *op.Runner) *Pipeline {
	if runner == nil {
		runner = op.NewRunner(sink)
	}
	return &Pipeline{
		source:           source,
		cache:            c,
		sink:             sink,
		runner:           runner,
		now:              time.Now,
		telemetryTimeout: DefaultTelemetryTimeout,
		delivered:        make(map[string]struct{}),
	}
}

// SetClock replaces the time source used for snooze checks.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// List returns the filtered listing, empty when it cannot be fetched.
func (p *Pipeline) List(ctx context.Context, filter models.NotificationFilter) []models.Notification {
	list, err := cache.Load(ctx, p.cache, ListKey(filter), func(ctx context.Context) ([]models.Notification, error) {
		return p.source.GetNotifications(ctx, filter)
	})
	if err != nil {
		slog.WarnContext(ctx, "list notifications failed", "error", err)
		observability.IncFetchFailure("notifications")
		return []models.Notification{}
	}
	return p.visible(list)
}

// Refresh refetches the listing, bypassing the cache, and stores the result.
func (p *Pipeline) Refresh(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	list, err := p.source.GetNotifications(ctx, filter)
	if err != nil {
		observability.IncFetchFailure("notifications")
		return nil, err
	}
	if err := p.cache.Set(ctx, ListKey(filter), list); err != nil {
		slog.WarnContext(ctx, "cache notifications failed", "error", err)
	}
	return p.visible(list), nil
}

// visible drops notifications that are snoozed at read time. A cached list
// may predate a snooze.
func (p *Pipeline) visible(list []models.Notification) []models.Notification {
	now := p.now()
	out := make([]models.Notification, 0, len(list))
	for _, n := range list {
		if n.SnoozedAt(now) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (p *Pipeline) MarkRead(ctx context.Context, id string) error {
	return p.mutate(ctx, "mark_notification_read", msgMarkReadFailed, "", func(ctx context.Context) error {
		return p.source.MarkNotificationRead(ctx, id)
	}, ListPrefix, GroupsKey)
}

func (p *Pipeline) MarkAllRead(ctx context.Context) error {
	return p.mutate(ctx, "mark_all_notifications_read", msgMarkAllFailed, "", p.source.MarkAllNotificationsRead, ListPrefix, GroupsKey)
}

func (p *Pipeline) Archive(ctx context.Context, id string) error {
	return p.mutate(ctx, "archive_notification", msgArchiveFailed, "", func(ctx context.Context) error {
		return p.source.ArchiveNotification(ctx, id)
	}, ListPrefix, GroupsKey)
}

func (p *Pipeline) Delete(ctx context.Context, id string) error {
	return p.mutate(ctx, "delete_notification", msgDeleteFailed, "", func(ctx context.Context) error {
		return p.source.DeleteNotification(ctx, id)
	}, ListPrefix, GroupsKey, SnoozedKey)
}

// Groups returns the user's notification groups, empty on failure.
func (p *Pipeline) Groups(ctx context.Context) []models.NotificationGroup {
	groups, err := cache.Load(ctx, p.cache, GroupsKey, p.source.GetNotificationGroups)
	if err != nil {
		slog.WarnContext(ctx, "list notification groups failed", "error", err)
		observability.IncFetchFailure("notification_groups")
		return []models.NotificationGroup{}
	}
	return groups
}

// ToggleGroupExpanded flips the group's persisted expanded flag, starting
// from the cached group listing.
func (p *Pipeline) ToggleGroupExpanded(ctx context.Context, groupID string) error {
	groups, err := cache.Load(ctx, p.cache, GroupsKey, p.source.GetNotificationGroups)
	if err != nil {
		slog.WarnContext(ctx, "toggle notification group: list groups failed", "error", err)
		p.show(ctx, toast.Error(msgGroupToggleFailed))
		return err
	}
	idx := slices.IndexFunc(groups, func(g models.NotificationGroup) bool { return g.ID == groupID })
	if idx < 0 {
		return fmt.Errorf("notification group %s: %w", groupID, models.ErrNotFound)
	}
	expanded := !groups[idx].Expanded
	return p.mutate(ctx, "toggle_notification_group", msgGroupToggleFailed, "", func(ctx context.Context) error {
		return p.source.ToggleNotificationGroupExpanded(ctx, groupID, expanded)
	}, GroupsKey)
}

// MarkGroupRead marks every notification in the group read in one request.
func (p *Pipeline) MarkGroupRead(ctx context.Context, groupID string) error {
	return p.mutate(ctx, "mark_notification_group_read", msgGroupReadFailed, "", func(ctx context.Context) error {
		return p.source.MarkNotificationGroupAsRead(ctx, groupID)
	}, ListPrefix, GroupsKey)
}

// Snoozed returns the user's snoozed notifications, empty on failure.
func (p *Pipeline) Snoozed(ctx context.Context) []models.Notification {
	list, err := cache.Load(ctx, p.cache, SnoozedKey, p.source.GetSnoozedNotifications)
	if err != nil {
		slog.WarnContext(ctx, "list snoozed notifications failed", "error", err)
		observability.IncFetchFailure("notifications_snoozed")
		return []models.Notification{}
	}
	return list
}

// Snooze hides the notification until the given time.
func (p *Pipeline) Snooze(ctx context.Context, id string, until time.Time) error {
	if !until.After(p.now()) {
		p.show(ctx, toast.Error(msgSnoozePast))
		return ErrSnoozeInPast
	}
	return p.mutate(ctx, "snooze_notification", msgSnoozeFailed, msgSnoozed, func(ctx context.Context) error {
		return p.source.SnoozeNotification(ctx, id, until)
	}, ListPrefix, SnoozedKey)
}

func (p *Pipeline) Unsnooze(ctx context.Context, id string) error {
	return p.mutate(ctx, "unsnooze_notification", msgUnsnoozeFailed, msgUnsnoozed, func(ctx context.Context) error {
		return p.source.UnsnoozeNotification(ctx, id)
	}, ListPrefix, SnoozedKey)
}

// IsSnoozed reports whether id is in the snoozed set and its deadline has
// not passed.
func (p *Pipeline) IsSnoozed(ctx context.Context, id string) bool {
	_, ok := p.snoozedUntil(ctx, id)
	return ok
}

// TimeUntilUnsnooze returns how long id stays snoozed; zero when it is not.
func (p *Pipeline) TimeUntilUnsnooze(ctx context.Context, id string) time.Duration {
	until, ok := p.snoozedUntil(ctx, id)
	if !ok {
		return 0
	}
	return until.Sub(p.now())
}

func (p *Pipeline) snoozedUntil(ctx context.Context, id string) (time.Time, bool) {
	now := p.now()
	for _, n := range p.Snoozed(ctx) {
		if n.ID == id && n.SnoozedAt(now) {
			return *n.SnoozeUntil, true
		}
	}
	return time.Time{}, false
}

// TrackDelivery reports the notification as delivered, once per id for the
// life of the pipeline. The request runs in the background; failures are
// logged and counted, never surfaced.
func (p *Pipeline) TrackDelivery(ctx context.Context, id string) {
	p.mu.Lock()
	if _, seen := p.delivered[id]; seen {
		p.mu.Unlock()
		return
	}
	p.delivered[id] = struct{}{}
	p.mu.Unlock()

	p.background(ctx, "delivery", id, func(ctx context.Context) error {
		return p.source.TrackNotificationDelivery(ctx, id)
	})
}

// TrackInteraction reports a user action on the notification in the
// background.
func (p *Pipeline) TrackInteraction(ctx context.Context, id, action string) {
	p.background(ctx, "interaction", id, func(ctx context.Context) error {
		return p.source.TrackNotificationInteraction(ctx, id, action)
	})
}

// Flush waits for background tracking requests to finish.
func (p *Pipeline) Flush() {
	p.inflight.Wait()
}

func (p *Pipeline) background(ctx context.Context, kind, id string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.telemetryTimeout)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer cancel()
		if err := fn(ctx); err != nil {
			slog.DebugContext(ctx, "notification tracking failed", "kind", kind, "notification_id", id, "error", err)
			observability.IncTelemetryFailure(kind)
		}
	}()
}

func (p *Pipeline) mutate(ctx context.Context, name, failMsg, okMsg string, fn func(context.Context) error, invalidate ...cache.Key) error {
	if err := p.runner.Run(ctx, name, fn); err != nil {
		slog.WarnContext(ctx, "notification mutation failed", "operation", name, "error", err)
		p.show(ctx, toast.Error(failMsg))
		return err
	}
	cache.InvalidateAll(ctx, p.cache, invalidate...)
	if okMsg != "" {
		p.show(ctx, toast.Success(okMsg))
	}
	return nil
}

func (p *Pipeline) show(ctx context.Context, t toast.Toast) {
	if p.sink != nil {
		p.sink.Show(ctx, t)
	}
}
