package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"storefront-messaging/internal/core/contact"
	"storefront-messaging/internal/core/conversations"
	"storefront-messaging/internal/core/notifications"
	"storefront-messaging/internal/core/presence"
	"storefront-messaging/internal/core/reactions"
	"storefront-messaging/internal/models"
)

type SessionMock struct {
	mock.Mock
}

func (m *SessionMock) CurrentUser(ctx context.Context) (models.CurrentUser, error) {
	args := m.Called(ctx)
	var user models.CurrentUser
	if val := args.Get(0); val != nil {
		user = val.(models.CurrentUser)
	}
	return user, args.Error(1)
}

type SellerDirectoryMock struct {
	mock.Mock
}

func (m *SellerDirectoryMock) GetSeller(ctx context.Context, sellerID string) (models.SellerSummary, error) {
	args := m.Called(ctx, sellerID)
	var seller models.SellerSummary
	if val := args.Get(0); val != nil {
		seller = val.(models.SellerSummary)
	}
	return seller, args.Error(1)
}

type ContactGateMock struct {
	mock.Mock
}

func (m *ContactGateMock) CanContact(ctx context.Context, sellerID string) bool {
	args := m.Called(ctx, sellerID)
	return args.Bool(0)
}

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) MemberName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *DirectoryMock) ClaimedSupplierName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type NotificationSourceMock struct {
	mock.Mock
}

func (m *NotificationSourceMock) GetNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	args := m.Called(ctx, filter)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationSourceMock) MarkNotificationRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NotificationSourceMock) MarkAllNotificationsRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *NotificationSourceMock) ArchiveNotification(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NotificationSourceMock) DeleteNotification(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NotificationSourceMock) GetNotificationGroups(ctx context.Context) ([]models.NotificationGroup, error) {
	args := m.Called(ctx)
	var list []models.NotificationGroup
	if val := args.Get(0); val != nil {
		list = val.([]models.NotificationGroup)
	}
	return list, args.Error(1)
}

func (m *NotificationSourceMock) ToggleNotificationGroupExpanded(ctx context.Context, groupID string, expanded bool) error {
	return m.Called(ctx, groupID, expanded).Error(0)
}

func (m *NotificationSourceMock) MarkNotificationGroupAsRead(ctx context.Context, groupID string) error {
	return m.Called(ctx, groupID).Error(0)
}

func (m *NotificationSourceMock) GetSnoozedNotifications(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationSourceMock) SnoozeNotification(ctx context.Context, id string, until time.Time) error {
	return m.Called(ctx, id, until).Error(0)
}

func (m *NotificationSourceMock) UnsnoozeNotification(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NotificationSourceMock) TrackNotificationDelivery(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NotificationSourceMock) TrackNotificationInteraction(ctx context.Context, id, action string) error {
	return m.Called(ctx, id, action).Error(0)
}

var (
	_ contact.Session         = (*SessionMock)(nil)
	_ reactions.Identity      = (*SessionMock)(nil)
	_ contact.SellerDirectory = (*SellerDirectoryMock)(nil)
	_ conversations.Gate      = (*ContactGateMock)(nil)
	_ presence.Directory      = (*DirectoryMock)(nil)
	_ notifications.Source    = (*NotificationSourceMock)(nil)
)
