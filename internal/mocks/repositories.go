package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGetConversation(ctx context.Context, memberID string, in models.CreateConversationInput) (models.Conversation, error) {
	args := m.Called(ctx, memberID, in)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID string, senderID string, content string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, conversationID string, readerID string) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

type TypingRepositoryMock struct {
	mock.Mock
}

func (m *TypingRepositoryMock) UpsertTypingSignal(ctx context.Context, conversationID string, userID string) (models.TypingSignal, error) {
	args := m.Called(ctx, conversationID, userID)
	var sig models.TypingSignal
	if val := args.Get(0); val != nil {
		sig = val.(models.TypingSignal)
	}
	return sig, args.Error(1)
}

func (m *TypingRepositoryMock) ListTypingSignals(ctx context.Context, conversationID string, since time.Time) ([]models.TypingSignal, error) {
	args := m.Called(ctx, conversationID, since)
	var list []models.TypingSignal
	if val := args.Get(0); val != nil {
		list = val.([]models.TypingSignal)
	}
	return list, args.Error(1)
}

func (m *TypingRepositoryMock) ClearTypingSignal(ctx context.Context, conversationID string, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) ListReactions(ctx context.Context, messageID string) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var list []models.Reaction
	if val := args.Get(0); val != nil {
		list = val.([]models.Reaction)
	}
	return list, args.Error(1)
}

func (m *ReactionRepositoryMock) AddReaction(ctx context.Context, messageID string, emoji string, userID string, userName string) error {
	args := m.Called(ctx, messageID, emoji, userID, userName)
	return args.Error(0)
}

func (m *ReactionRepositoryMock) RemoveReaction(ctx context.Context, messageID string, emoji string, userID string) error {
	args := m.Called(ctx, messageID, emoji, userID)
	return args.Error(0)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter, now time.Time) ([]models.Notification, error) {
	args := m.Called(ctx, userID, filter, now)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, userID string, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepositoryMock) Archive(ctx context.Context, userID string, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) Delete(ctx context.Context, userID string, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) ListSnoozed(ctx context.Context, userID string, now time.Time) ([]models.Notification, error) {
	args := m.Called(ctx, userID, now)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) Snooze(ctx context.Context, userID string, id string, until time.Time) error {
	args := m.Called(ctx, userID, id, until)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) Unsnooze(ctx context.Context, userID string, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkDelivered(ctx context.Context, userID string, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) RecordInteraction(ctx context.Context, userID string, id string, action string) error {
	args := m.Called(ctx, userID, id, action)
	return args.Error(0)
}

type NotificationGroupRepositoryMock struct {
	mock.Mock
}

func (m *NotificationGroupRepositoryMock) ListGroups(ctx context.Context, userID string) ([]models.NotificationGroup, error) {
	args := m.Called(ctx, userID)
	var list []models.NotificationGroup
	if val := args.Get(0); val != nil {
		list = val.([]models.NotificationGroup)
	}
	return list, args.Error(1)
}

func (m *NotificationGroupRepositoryMock) SetExpanded(ctx context.Context, userID string, groupID string, expanded bool) error {
	args := m.Called(ctx, userID, groupID, expanded)
	return args.Error(0)
}

func (m *NotificationGroupRepositoryMock) MarkGroupRead(ctx context.Context, userID string, groupID string) (int64, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Get(0).(int64), args.Error(1)
}

type DirectoryRepositoryMock struct {
	mock.Mock
}

func (m *DirectoryRepositoryMock) ResolveSession(ctx context.Context, token string) (models.CurrentUser, error) {
	args := m.Called(ctx, token)
	var user models.CurrentUser
	if val := args.Get(0); val != nil {
		user = val.(models.CurrentUser)
	}
	return user, args.Error(1)
}

func (m *DirectoryRepositoryMock) GetSeller(ctx context.Context, sellerID string) (models.SellerSummary, error) {
	args := m.Called(ctx, sellerID)
	var seller models.SellerSummary
	if val := args.Get(0); val != nil {
		seller = val.(models.SellerSummary)
	}
	return seller, args.Error(1)
}

func (m *DirectoryRepositoryMock) MemberName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *DirectoryRepositoryMock) ClaimedSupplierName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

var (
	_ repositories.ConversationRepository      = (*ConversationRepositoryMock)(nil)
	_ repositories.MessageRepository           = (*MessageRepositoryMock)(nil)
	_ repositories.TypingRepository            = (*TypingRepositoryMock)(nil)
	_ repositories.ReactionRepository          = (*ReactionRepositoryMock)(nil)
	_ repositories.NotificationRepository      = (*NotificationRepositoryMock)(nil)
	_ repositories.NotificationGroupRepository = (*NotificationGroupRepositoryMock)(nil)
	_ repositories.DirectoryRepository         = (*DirectoryRepositoryMock)(nil)
)
