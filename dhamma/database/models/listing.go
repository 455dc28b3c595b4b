package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Listing offers one card instance for sale on the shared market. The
// underlying instance carries location=market while the listing exists; the
// unique instance_id constraint keeps a card from being listed twice.
type Listing struct {
	bun.BaseModel `bun:"table:listings,alias:l"`

	ID         int64  `bun:"id,pk,autoincrement"`
	InstanceID string `bun:"instance_id,notnull,unique"`

	// SellerID is empty for system-seeded listings; those pay out to nobody.
	SellerID   string `bun:"seller_id"`
	SellerName string `bun:"seller_name,notnull"`
	Price      int64  `bun:"price,notnull"`

	ListedAt  time.Time `bun:"listed_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
