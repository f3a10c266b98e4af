package models

import "time"

// Message is a single entry in a conversation.
type Message struct {
	ID             string     `db:"id" json:"id"`
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	SenderID       string     `db:"sender_id" json:"sender_id"`
	Content        string     `db:"content" json:"content"`
	ReadAt         *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ChangeEvent is pushed over websocket subscriptions. Subscribers refetch on
// receipt; the event itself carries no row data.
type ChangeEvent struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Filter string `json:"filter"`
}

// Realtime tables other than TypingTable.
const (
	MessagesTable      = "messages"
	NotificationsTable = "notifications"
)

// UserFilter builds the subscription filter for one user's rows.
func UserFilter(userID string) string {
	return "user_id=eq." + userID
}

// NewChangeEvent is the payload pushed to subscribers of table/filter.
func NewChangeEvent(table, filter string) ChangeEvent {
	return ChangeEvent{Type: "change", Table: table, Filter: filter}
}
