package economy

import (
	"math"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
)

// Economy rules. Pure tables and functions, no mutable state. Percentages in
// the rarity table sum to 100; variant bands are cumulative thresholds over
// [0,1) walked first-match-wins so ties resolve toward the rarer outcome.

const (
	// DrawCost is the JDH price of one gacha pull.
	DrawCost int64 = 5000

	// StartingBalance is granted to every new account.
	StartingBalance int64 = 20000
)

// SellValues maps rarity to the base buy-back value in JDH.
var SellValues = map[models.Rarity]int64{
	models.RarityCommon:    1_000,
	models.RarityRare:      10_000,
	models.RarityEpic:      100_000,
	models.RarityLegendary: 2_000_000,
}

// VariantMultipliers scale the sell value; variants never affect drop odds of
// the archetype itself.
var VariantMultipliers = map[models.VisualVariant]float64{
	models.VariantBasic:       1.0,
	models.VariantTextured:    1.5,
	models.VariantAnimated:    2.0,
	models.VariantHolographic: 3.0,
}

// RarityBand is one entry of the cumulative drop table.
type RarityBand struct {
	Rarity models.Rarity
	// Weight is the drop percentage for this tier.
	Weight float64
}

// RarityDropTable is walked in rare-first order with cumulative thresholds;
// anything past the last band falls through to Common.
var RarityDropTable = []RarityBand{
	{models.RarityLegendary, 1},
	{models.RarityEpic, 9},
	{models.RarityRare, 30},
	{models.RarityCommon, 60},
}

// RollRarity resolves a uniform roll in [0,100) against the drop table.
func RollRarity(roll float64) models.Rarity {
	cumulative := 0.0
	for _, band := range RarityDropTable {
		cumulative += band.Weight
		if roll < cumulative {
			return band.Rarity
		}
	}
	return models.RarityCommon
}

// VariantBand is one entry of a conditional variant table.
type VariantBand struct {
	// Threshold is the cumulative upper bound over [0,1).
	Threshold float64
	Variant   models.VisualVariant
}

// VariantDropTables gives the variant distribution conditioned on rarity.
// Holographic odds rise with rarity; the final band always catches the rest.
var VariantDropTables = map[models.Rarity][]VariantBand{
	models.RarityLegendary: {
		{0.15, models.VariantHolographic},
		{0.40, models.VariantAnimated},
		{1.00, models.VariantTextured},
	},
	models.RarityEpic: {
		{0.05, models.VariantHolographic},
		{0.20, models.VariantAnimated},
		{0.50, models.VariantTextured},
		{1.00, models.VariantBasic},
	},
	models.RarityRare: {
		{0.02, models.VariantHolographic},
		{0.10, models.VariantAnimated},
		{0.30, models.VariantTextured},
		{1.00, models.VariantBasic},
	},
	models.RarityCommon: {
		{0.01, models.VariantHolographic},
		{0.10, models.VariantTextured},
		{1.00, models.VariantBasic},
	},
}

// RollVariant resolves a uniform roll in [0,1) against the rarity's table.
func RollVariant(rarity models.Rarity, roll float64) models.VisualVariant {
	for _, band := range VariantDropTables[rarity] {
		if roll < band.Threshold {
			return band.Variant
		}
	}
	return models.VariantBasic
}

// SellValue prices an instance for buy-back:
// floor(base value by rarity * variant multiplier).
func SellValue(rarity models.Rarity, variant models.VisualVariant) int64 {
	base := SellValues[rarity]
	mult, ok := VariantMultipliers[variant]
	if !ok {
		mult = 1.0
	}
	return int64(math.Floor(float64(base) * mult))
}
