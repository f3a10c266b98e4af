package models

import "time"

// TypingSignal is the ephemeral "user is typing" row, one per
// (conversation, user), refreshed on every keystroke burst.
type TypingSignal struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	StartedAt      time.Time `db:"started_at" json:"started_at"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// TypingTable is the realtime subscription table for typing signals.
const TypingTable = "typing_signals"

// ConversationFilter builds the subscription filter for one conversation.
func ConversationFilter(conversationID string) string {
	return "conversation_id=eq." + conversationID
}
