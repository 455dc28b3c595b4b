package models

import (
	"time"

	"github.com/uptrace/bun"
)

type InstanceLocation string

const (
	LocationInventory InstanceLocation = "inventory"
	LocationMarket    InstanceLocation = "market"
)

// CardInstance is one concrete, ownable copy of a Card. The instance id is
// unique across the whole system; an instance lives in exactly one location at
// any time, either a user's inventory or the market.
type CardInstance struct {
	bun.BaseModel `bun:"table:card_instances,alias:ci"`

	InstanceID string `bun:"instance_id,pk"`
	CardID     string `bun:"card_id,notnull"`

	// Display fields copied from the archetype so the instance renders
	// without a catalog join.
	Term     string `bun:"term,notnull"`
	Meaning  string `bun:"meaning,notnull"`
	Details  string `bun:"details"`
	Category string `bun:"category,notnull"`
	Teaching string `bun:"teaching"`
	Rarity   Rarity `bun:"rarity,notnull"`

	SerialNumber string           `bun:"serial_number,notnull"`
	Variant      VisualVariant    `bun:"variant,notnull"`
	OwnerID      string           `bun:"owner_id,notnull"`
	Location     InstanceLocation `bun:"location,notnull,default:'inventory'"`
	AcquiredAt   time.Time        `bun:"acquired_at,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
