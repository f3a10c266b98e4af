package models

// Reaction aggregates one emoji on one message. Users maps user id to the
// display name captured when the reaction was added; Count always equals
// len(Users).
type Reaction struct {
	MessageID string            `json:"message_id"`
	Emoji     string            `json:"emoji"`
	Users     map[string]string `json:"users"`
	Count     int               `json:"count"`
}

// ReactionRow is the storage shape, one row per (message, emoji, user).
type ReactionRow struct {
	MessageID string `db:"message_id"`
	Emoji     string `db:"emoji"`
	UserID    string `db:"user_id"`
	UserName  string `db:"user_name"`
}

// GroupReactions folds rows into per-emoji aggregates, preserving the order in
// which each emoji first appears.
func GroupReactions(messageID string, rows []ReactionRow) []Reaction {
	out := make([]Reaction, 0)
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.Emoji]
		if !ok {
			out = append(out, Reaction{MessageID: messageID, Emoji: row.Emoji, Users: map[string]string{}})
			i = len(out) - 1
			index[row.Emoji] = i
		}
		out[i].Users[row.UserID] = row.UserName
		out[i].Count = len(out[i].Users)
	}
	return out
}
