package models

// CurrentUser is the identity behind a session token.
type CurrentUser struct {
	UserID      string `db:"user_id" json:"user_id"`
	DisplayName string `db:"display_name" json:"display_name"`
}
