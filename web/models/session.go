package models

import "time"

// UserSession is the signed cookie payload. Guest sessions carry a generated
// user id and survive only as long as the in-memory store behind them.
type UserSession struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Guest       bool      `json:"guest"`
	IsAdmin     bool      `json:"is_admin"`
	ExpiresAt   time.Time `json:"expires_at"`
}
