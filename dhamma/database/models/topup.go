package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TopUpStatus string

const (
	TopUpStatusCompleted TopUpStatus = "completed"
)

// TopUp records one verified bank-slip credit. TransRef is the bank's unique
// transaction reference; the unique constraint is what makes resubmitting the
// same slip a no-op instead of a double credit.
type TopUp struct {
	bun.BaseModel `bun:"table:topups,alias:t"`

	ID       int64  `bun:"id,pk,autoincrement"`
	UserID   string `bun:"user_id,notnull"`
	TransRef string `bun:"trans_ref,notnull,unique"`

	// AmountTHB is the verified transferred amount, PackagePrice the package
	// the user selected. AmountTHB >= PackagePrice at verification time.
	AmountTHB    int64 `bun:"amount_thb,notnull"`
	PackagePrice int64 `bun:"package_price,notnull"`
	Points       int64 `bun:"points,notnull"`
	Bonus        int64 `bun:"bonus,notnull"`

	Status     TopUpStatus `bun:"status,notnull"`
	SlipKey    string      `bun:"slip_key"`
	VerifiedAt time.Time   `bun:"verified_at,notnull"`
	CreatedAt  time.Time   `bun:"created_at,notnull,default:current_timestamp"`
}

// Redemption logs a promo-code grant, one per user per code.
type Redemption struct {
	bun.BaseModel `bun:"table:redemptions,alias:r"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	Code      string    `bun:"code,notnull"`
	Points    int64     `bun:"points,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
