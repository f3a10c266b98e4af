package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"storefront-messaging/internal/core/contact"
	"storefront-messaging/internal/core/conversations"
	"storefront-messaging/internal/core/notifications"
	"storefront-messaging/internal/core/presence"
	"storefront-messaging/internal/core/reactions"
	"storefront-messaging/internal/models"
)

var (
	_ contact.Session         = (*Client)(nil)
	_ contact.SellerDirectory = (*Client)(nil)
	_ conversations.Source    = (*Client)(nil)
	_ presence.Source         = (*Client)(nil)
	_ presence.Directory      = (*Client)(nil)
	_ reactions.Source        = (*Client)(nil)
	_ notifications.Source    = (*Client)(nil)
)

// CurrentUser resolves the token's user. A successful answer is kept for the
// life of the client; an unauthenticated answer is not.
func (c *Client) CurrentUser(ctx context.Context) (models.CurrentUser, error) {
	c.mu.Lock()
	if c.user != nil {
		user := *c.user
		c.mu.Unlock()
		return user, nil
	}
	c.mu.Unlock()

	if c.token == "" {
		return models.CurrentUser{}, models.ErrUnauthorized
	}
	var user models.CurrentUser
	if err := c.call(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return models.CurrentUser{}, err
	}

	c.mu.Lock()
	c.user = &user
	c.mu.Unlock()
	return user, nil
}

func (c *Client) GetSeller(ctx context.Context, sellerID string) (models.SellerSummary, error) {
	var seller models.SellerSummary
	err := c.call(ctx, http.MethodGet, "/sellers/"+url.PathEscape(sellerID), nil, nil, &seller)
	return seller, err
}

type nameResponse struct {
	Name string `json:"name"`
}

func (c *Client) MemberName(ctx context.Context, userID string) (string, error) {
	var out nameResponse
	err := c.call(ctx, http.MethodGet, "/directory/members/"+url.PathEscape(userID), nil, nil, &out)
	return out.Name, err
}

func (c *Client) ClaimedSupplierName(ctx context.Context, userID string) (string, error) {
	var out nameResponse
	err := c.call(ctx, http.MethodGet, "/directory/suppliers/"+url.PathEscape(userID), nil, nil, &out)
	return out.Name, err
}

func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var records []conversationRecord
	if err := c.call(ctx, http.MethodGet, "/conversations", nil, nil, &records); err != nil {
		return nil, err
	}
	return normalizeConversations(records), nil
}

func (c *Client) CreateConversation(ctx context.Context, in models.CreateConversationInput) (string, error) {
	var record conversationRecord
	if err := c.call(ctx, http.MethodPost, "/conversations", nil, in, &record); err != nil {
		return "", err
	}
	if record.ID == "" {
		return "", errors.New("create conversation: empty id in response")
	}
	return record.ID, nil
}

func (c *Client) ListTypingSignals(ctx context.Context, conversationID string, since time.Time) ([]models.TypingSignal, error) {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("since", since.UTC().Format(time.RFC3339Nano))
	}
	var out []models.TypingSignal
	err := c.call(ctx, http.MethodGet, "/conversations/"+url.PathEscape(conversationID)+"/typing", query, nil, &out)
	return out, err
}

func (c *Client) UpsertTypingSignal(ctx context.Context, conversationID string) error {
	return c.call(ctx, http.MethodPut, "/conversations/"+url.PathEscape(conversationID)+"/typing", nil, nil, nil)
}

func reactionPath(messageID, emoji string) string {
	return "/messages/" + url.PathEscape(messageID) + "/reactions/" + url.PathEscape(emoji)
}

func (c *Client) ListReactions(ctx context.Context, messageID string) ([]models.Reaction, error) {
	var out []models.Reaction
	err := c.call(ctx, http.MethodGet, "/messages/"+url.PathEscape(messageID)+"/reactions", nil, nil, &out)
	return out, err
}

func (c *Client) AddReaction(ctx context.Context, messageID, emoji string) error {
	return c.call(ctx, http.MethodPut, reactionPath(messageID, emoji), nil, nil, nil)
}

func (c *Client) RemoveReaction(ctx context.Context, messageID, emoji string) error {
	return c.call(ctx, http.MethodDelete, reactionPath(messageID, emoji), nil, nil, nil)
}

func filterQuery(f models.NotificationFilter) url.Values {
	query := url.Values{}
	if f.Type != "" {
		query.Set("type", f.Type)
	}
	if f.Read != nil {
		query.Set("read", strconv.FormatBool(*f.Read))
	}
	if f.Archived != nil {
		query.Set("archived", strconv.FormatBool(*f.Archived))
	}
	return query
}

func notificationPath(id, suffix string) string {
	return "/notifications/" + url.PathEscape(id) + suffix
}

func (c *Client) GetNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	var out []models.Notification
	err := c.call(ctx, http.MethodGet, "/notifications", filterQuery(filter), nil, &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, notificationPath(id, "/read"), nil, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/notifications/read-all", nil, nil, nil)
}

func (c *Client) ArchiveNotification(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, notificationPath(id, "/archive"), nil, nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, notificationPath(id, ""), nil, nil, nil)
}

func (c *Client) GetNotificationGroups(ctx context.Context) ([]models.NotificationGroup, error) {
	var out []models.NotificationGroup
	err := c.call(ctx, http.MethodGet, "/notification-groups", nil, nil, &out)
	return out, err
}

type expandedRequest struct {
	Expanded bool `json:"expanded"`
}

func (c *Client) ToggleNotificationGroupExpanded(ctx context.Context, groupID string, expanded bool) error {
	return c.call(ctx, http.MethodPut, "/notification-groups/"+url.PathEscape(groupID)+"/expanded", nil, expandedRequest{Expanded: expanded}, nil)
}

func (c *Client) MarkNotificationGroupAsRead(ctx context.Context, groupID string) error {
	return c.call(ctx, http.MethodPost, "/notification-groups/"+url.PathEscape(groupID)+"/read", nil, nil, nil)
}

func (c *Client) GetSnoozedNotifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := c.call(ctx, http.MethodGet, "/notifications/snoozed", nil, nil, &out)
	return out, err
}

type snoozeRequest struct {
	Until time.Time `json:"until"`
}

func (c *Client) SnoozeNotification(ctx context.Context, id string, until time.Time) error {
	return c.call(ctx, http.MethodPost, notificationPath(id, "/snooze"), nil, snoozeRequest{Until: until}, nil)
}

func (c *Client) UnsnoozeNotification(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, notificationPath(id, "/snooze"), nil, nil, nil)
}

func (c *Client) TrackNotificationDelivery(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, notificationPath(id, "/delivery"), nil, nil, nil)
}

type interactionRequest struct {
	Action string `json:"action"`
}

func (c *Client) TrackNotificationInteraction(ctx context.Context, id, action string) error {
	return c.call(ctx, http.MethodPost, notificationPath(id, "/interactions"), nil, interactionRequest{Action: action}, nil)
}
