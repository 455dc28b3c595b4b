package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// Value orders rarities by worth, not by declaration order.
func (r Rarity) Value() int {
	switch r {
	case RarityLegendary:
		return 4
	case RarityEpic:
		return 3
	case RarityRare:
		return 2
	case RarityCommon:
		return 1
	}
	return 0
}

func (r Rarity) Valid() bool {
	return r.Value() > 0
}

// AllRarities lists every tier the catalog must cover.
var AllRarities = []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}

type VisualVariant string

const (
	VariantBasic       VisualVariant = "BASIC"
	VariantTextured    VisualVariant = "TEXTURED"
	VariantAnimated    VisualVariant = "ANIMATED"
	VariantHolographic VisualVariant = "HOLOGRAPHIC"
)

func (v VisualVariant) Valid() bool {
	switch v {
	case VariantBasic, VariantTextured, VariantAnimated, VariantHolographic:
		return true
	}
	return false
}

// Card is a master-pool archetype. Loaded once at startup, never mutated.
type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID       string `bun:"id,pk"`
	Term     string `bun:"term,notnull"`
	Meaning  string `bun:"meaning,notnull"`
	Details  string `bun:"details"`
	Category string `bun:"category,notnull"`
	Teaching string `bun:"teaching"`
	Rarity   Rarity `bun:"rarity,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
