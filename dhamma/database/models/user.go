package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an authenticated account. Balance is JDH points and never goes
// negative; every mutation runs through a conditional update.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64  `bun:"id,pk,autoincrement"`
	UserID      string `bun:"user_id,notnull,unique"`
	DisplayName string `bun:"display_name,notnull"`
	AvatarURL   string `bun:"avatar_url"`
	Balance     int64  `bun:"balance,notnull,default:0"`

	Joined    time.Time `bun:"joined,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
