package economy

import (
	"testing"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
)

func TestRollRarity(t *testing.T) {
	tests := []struct {
		name string
		roll float64
		want models.Rarity
	}{
		{"zero lands legendary", 0, models.RarityLegendary},
		{"just under legendary cutoff", 0.999, models.RarityLegendary},
		{"legendary cutoff falls to epic", 1, models.RarityEpic},
		{"mid epic band", 5, models.RarityEpic},
		{"epic cutoff falls to rare", 10, models.RarityRare},
		{"mid rare band", 25, models.RarityRare},
		{"rare cutoff falls to common", 40, models.RarityCommon},
		{"high roll is common", 99.999, models.RarityCommon},
		{"out of range falls through to common", 100, models.RarityCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RollRarity(tt.roll); got != tt.want {
				t.Errorf("RollRarity(%v) = %v, want %v", tt.roll, got, tt.want)
			}
		})
	}
}

func TestRarityDropTableSumsToHundred(t *testing.T) {
	sum := 0.0
	for _, band := range RarityDropTable {
		sum += band.Weight
	}
	if sum != 100 {
		t.Errorf("drop table weights sum to %v, want 100", sum)
	}
}

func TestRollVariant(t *testing.T) {
	tests := []struct {
		name   string
		rarity models.Rarity
		roll   float64
		want   models.VisualVariant
	}{
		{"legendary low roll is holo", models.RarityLegendary, 0, models.VariantHolographic},
		{"legendary holo cutoff is animated", models.RarityLegendary, 0.15, models.VariantAnimated},
		{"legendary high roll is textured", models.RarityLegendary, 0.99, models.VariantTextured},
		{"epic low roll is holo", models.RarityEpic, 0.01, models.VariantHolographic},
		{"epic high roll is basic", models.RarityEpic, 0.75, models.VariantBasic},
		{"rare animated band", models.RarityRare, 0.05, models.VariantAnimated},
		{"common low roll is holo", models.RarityCommon, 0.005, models.VariantHolographic},
		{"common textured band", models.RarityCommon, 0.05, models.VariantTextured},
		{"common high roll is basic", models.RarityCommon, 0.5, models.VariantBasic},
		{"unknown rarity degrades to basic", models.Rarity("BROKEN"), 0.5, models.VariantBasic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RollVariant(tt.rarity, tt.roll); got != tt.want {
				t.Errorf("RollVariant(%v, %v) = %v, want %v", tt.rarity, tt.roll, got, tt.want)
			}
		})
	}
}

func TestSellValue(t *testing.T) {
	tests := []struct {
		name    string
		rarity  models.Rarity
		variant models.VisualVariant
		want    int64
	}{
		{"common basic", models.RarityCommon, models.VariantBasic, 1_000},
		{"common textured", models.RarityCommon, models.VariantTextured, 1_500},
		{"rare animated", models.RarityRare, models.VariantAnimated, 20_000},
		{"epic holo", models.RarityEpic, models.VariantHolographic, 300_000},
		{"legendary holo", models.RarityLegendary, models.VariantHolographic, 6_000_000},
		{"legendary basic", models.RarityLegendary, models.VariantBasic, 2_000_000},
		{"unknown variant keeps base value", models.RarityRare, models.VisualVariant("BROKEN"), 10_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SellValue(tt.rarity, tt.variant); got != tt.want {
				t.Errorf("SellValue(%v, %v) = %d, want %d", tt.rarity, tt.variant, got, tt.want)
			}
		})
	}
}
