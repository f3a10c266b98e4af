package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-messaging/internal/core/cache"
	"storefront-messaging/internal/core/notifications"
	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/mocks"
	"storefront-messaging/internal/models"
)

var clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPipeline(src *mocks.NotificationSourceMock) (*notifications.Pipeline, *toast.Recorder) {
	rec := &toast.Recorder{}
	p := notifications.NewPipeline(src, cache.NewMemoryCache(), rec, nil)
	p.SetClock(func() time.Time { return clock })
	return p, rec
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestListHidesSnoozedAndCaches(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)
	filter := models.NotificationFilter{}

	src.On("GetNotifications", mock.Anything, filter).Return([]models.Notification{
		{ID: "n1"},
		{ID: "n2", SnoozeUntil: ptrTime(clock.Add(time.Hour))},
		{ID: "n3", SnoozeUntil: ptrTime(clock.Add(-time.Minute))},
	}, nil).Once()

	first := p.List(context.Background(), filter)
	second := p.List(context.Background(), filter)

	require.Len(t, first, 2)
	assert.Equal(t, "n1", first[0].ID)
	assert.Equal(t, "n3", first[1].ID)
	assert.Equal(t, first, second)
	src.AssertExpectations(t)
}

func TestListFailureIsEmptyAndNotCached(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, rec := newPipeline(src)
	filter := models.NotificationFilter{Type: "message"}

	src.On("GetNotifications", mock.Anything, filter).Return(([]models.Notification)(nil), assert.AnError).Once()
	src.On("GetNotifications", mock.Anything, filter).Return([]models.Notification{{ID: "n1"}}, nil).Once()

	assert.Empty(t, p.List(context.Background(), filter))
	assert.Len(t, p.List(context.Background(), filter), 1)
	assert.Empty(t, rec.Toasts())
	src.AssertExpectations(t)
}

func TestMarkReadInvalidatesEveryListing(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)
	unread := false
	all := models.NotificationFilter{}
	onlyUnread := models.NotificationFilter{Read: &unread}

	src.On("GetNotifications", mock.Anything, all).Return([]models.Notification{{ID: "n1"}}, nil).Twice()
	src.On("GetNotifications", mock.Anything, onlyUnread).Return([]models.Notification{{ID: "n1"}}, nil).Twice()
	src.On("MarkNotificationRead", mock.Anything, "n1").Return(nil).Once()

	p.List(context.Background(), all)
	p.List(context.Background(), onlyUnread)
	require.NoError(t, p.MarkRead(context.Background(), "n1"))
	p.List(context.Background(), all)
	p.List(context.Background(), onlyUnread)

	src.AssertExpectations(t)
}

func TestMutationFailureShowsToastWithoutRetry(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, rec := newPipeline(src)

	src.On("ArchiveNotification", mock.Anything, "n1").Return(assert.AnError).Once()

	err := p.Archive(context.Background(), "n1")

	require.Error(t, err)
	require.Len(t, rec.Toasts(), 1)
	assert.Equal(t, toast.LevelError, rec.Toasts()[0].Level)
	src.AssertExpectations(t)
}

func TestMarkGroupReadInvalidatesGroupsAndListings(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)
	filter := models.NotificationFilter{}

	src.On("GetNotifications", mock.Anything, filter).Return([]models.Notification{}, nil).Twice()
	src.On("GetNotificationGroups", mock.Anything).Return([]models.NotificationGroup{{ID: "g1", UnreadCount: 3}}, nil).Twice()
	src.On("MarkNotificationGroupAsRead", mock.Anything, "g1").Return(nil).Once()

	p.List(context.Background(), filter)
	p.Groups(context.Background())
	require.NoError(t, p.MarkGroupRead(context.Background(), "g1"))
	p.List(context.Background(), filter)
	p.Groups(context.Background())

	src.AssertExpectations(t)
}

func TestToggleGroupExpanded(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)
	ctx := context.Background()

	src.On("GetNotificationGroups", mock.Anything).Return([]models.NotificationGroup{{ID: "g1", Expanded: false}}, nil).Once()
	src.On("ToggleNotificationGroupExpanded", mock.Anything, "g1", true).Return(nil).Once()
	src.On("GetNotificationGroups", mock.Anything).Return([]models.NotificationGroup{{ID: "g1", Expanded: true}}, nil).Once()
	src.On("ToggleNotificationGroupExpanded", mock.Anything, "g1", false).Return(nil).Once()
	src.On("GetNotificationGroups", mock.Anything).Return([]models.NotificationGroup{{ID: "g1", Expanded: false}}, nil).Once()

	require.NoError(t, p.ToggleGroupExpanded(ctx, "g1"))
	require.NoError(t, p.ToggleGroupExpanded(ctx, "g1"))

	groups := p.Groups(ctx)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].Expanded)
	src.AssertExpectations(t)
}

func TestToggleUnknownGroupIsNotFound(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)

	src.On("GetNotificationGroups", mock.Anything).Return([]models.NotificationGroup{{ID: "g1"}}, nil).Once()

	err := p.ToggleGroupExpanded(context.Background(), "g2")

	require.ErrorIs(t, err, models.ErrNotFound)
	src.AssertNotCalled(t, "ToggleNotificationGroupExpanded", mock.Anything, mock.Anything, mock.Anything)
}

func TestSnoozeRejectsPastTime(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, rec := newPipeline(src)

	err := p.Snooze(context.Background(), "n1", clock)

	require.ErrorIs(t, err, notifications.ErrSnoozeInPast)
	require.Len(t, rec.Toasts(), 1)
	src.AssertNotCalled(t, "SnoozeNotification", mock.Anything, mock.Anything, mock.Anything)
}

func TestSnoozeStateFromSnoozedSet(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, rec := newPipeline(src)
	until := clock.Add(90 * time.Minute)

	src.On("SnoozeNotification", mock.Anything, "n1", until).Return(nil).Once()
	src.On("GetSnoozedNotifications", mock.Anything).Return([]models.Notification{
		{ID: "n1", SnoozeUntil: &until},
		{ID: "n2", SnoozeUntil: ptrTime(clock.Add(-time.Second))},
	}, nil).Once()

	require.NoError(t, p.Snooze(context.Background(), "n1", until))

	assert.True(t, p.IsSnoozed(context.Background(), "n1"))
	assert.False(t, p.IsSnoozed(context.Background(), "n2"))
	assert.False(t, p.IsSnoozed(context.Background(), "n3"))
	assert.Equal(t, 90*time.Minute, p.TimeUntilUnsnooze(context.Background(), "n1"))
	assert.Zero(t, p.TimeUntilUnsnooze(context.Background(), "n2"))
	require.Len(t, rec.Toasts(), 1)
	assert.Equal(t, toast.LevelSuccess, rec.Toasts()[0].Level)
	src.AssertExpectations(t)
}

func TestUnsnoozeInvalidatesSnoozedSet(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)
	until := clock.Add(time.Hour)

	src.On("GetSnoozedNotifications", mock.Anything).Return([]models.Notification{{ID: "n1", SnoozeUntil: &until}}, nil).Once()
	src.On("UnsnoozeNotification", mock.Anything, "n1").Return(nil).Once()
	src.On("GetSnoozedNotifications", mock.Anything).Return([]models.Notification{}, nil).Once()

	require.True(t, p.IsSnoozed(context.Background(), "n1"))
	require.NoError(t, p.Unsnooze(context.Background(), "n1"))
	assert.False(t, p.IsSnoozed(context.Background(), "n1"))
	src.AssertExpectations(t)
}

func TestTrackDeliveryOncePerID(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, _ := newPipeline(src)

	src.On("TrackNotificationDelivery", mock.Anything, "n1").Return(nil).Once()
	src.On("TrackNotificationDelivery", mock.Anything, "n2").Return(assert.AnError).Once()

	p.TrackDelivery(context.Background(), "n1")
	p.TrackDelivery(context.Background(), "n1")
	p.TrackDelivery(context.Background(), "n2")
	p.Flush()

	src.AssertExpectations(t)
}

func TestTrackInteractionSurvivesCanceledCaller(t *testing.T) {
	src := new(mocks.NotificationSourceMock)
	p, rec := newPipeline(src)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src.On("TrackNotificationInteraction", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), "n1", models.InteractionClicked).Return(assert.AnError).Once()

	p.TrackInteraction(ctx, "n1", models.InteractionClicked)
	p.Flush()

	assert.Empty(t, rec.Toasts())
	src.AssertExpectations(t)
}

func TestUnreadCount(t *testing.T) {
	list := []models.Notification{
		{ID: "unread"},
		{ID: "read", ReadAt: ptrTime(clock)},
		{ID: "archived", Archived: true},
		{ID: "snoozed", SnoozeUntil: ptrTime(clock.Add(time.Minute))},
		{ID: "snooze-expired", SnoozeUntil: ptrTime(clock.Add(-time.Minute))},
	}

	assert.Equal(t, 2, notifications.UnreadCount(list, clock))
}

func TestListKeyDistinguishesFilters(t *testing.T) {
	yes := true
	no := false

	assert.Equal(t, cache.Key{"notifications", "", "", ""}, notifications.ListKey(models.NotificationFilter{}))
	assert.Equal(t, cache.Key{"notifications", "order", "true", "false"}, notifications.ListKey(models.NotificationFilter{Type: "order", Read: &yes, Archived: &no}))
	assert.True(t, notifications.ListKey(models.NotificationFilter{}).HasPrefix(notifications.ListPrefix))
	assert.False(t, notifications.SnoozedKey.HasPrefix(notifications.ListPrefix))
}
