package services

import (
	"context"
	"testing"

	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
)

func seededCatalog(t *testing.T) *CatalogService {
	t.Helper()
	store := repositories.NewMemoryStore()
	if err := store.Seed(context.Background(), database.MasterCatalog()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return NewCatalogService(store)
}

func TestCheckCoverage(t *testing.T) {
	svc := seededCatalog(t)
	if err := svc.CheckCoverage(context.Background()); err != nil {
		t.Errorf("CheckCoverage() error = %v", err)
	}
}

func TestCheckCoverageMissingTier(t *testing.T) {
	store := repositories.NewMemoryStore()
	// Only commons, every other tier is a gap.
	err := store.Seed(context.Background(), []*models.Card{
		{ID: "c1", Term: "สติ", Meaning: "mindfulness", Category: "virtue", Rarity: models.RarityCommon},
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if err := NewCatalogService(store).CheckCoverage(context.Background()); err == nil {
		t.Error("CheckCoverage() = nil, want error for missing tiers")
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc := seededCatalog(t)

	all, err := svc.Search(ctx, "")
	if err != nil {
		t.Fatalf("Search(\"\") error = %v", err)
	}
	if len(all) != len(database.MasterCatalog()) {
		t.Errorf("Search(\"\") returned %d cards, want %d", len(all), len(database.MasterCatalog()))
	}

	results, err := svc.Search(ctx, "สติ")
	if err != nil {
		t.Fatalf("Search(สติ) error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search(สติ) returned nothing")
	}
	found := false
	for _, c := range results {
		if c.ID == "sati" {
			found = true
		}
	}
	if !found {
		t.Error("Search(สติ) did not return the sati card")
	}

	results, err = svc.Search(ctx, "mindfulness")
	if err != nil {
		t.Fatalf("Search(mindfulness) error = %v", err)
	}
	if len(results) == 0 {
		t.Error("Search by meaning returned nothing")
	}
}

func TestAllUsesCache(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	if err := store.Seed(ctx, database.MasterCatalog()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	svc := NewCatalogService(store)

	first, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	// New archetypes after the first load stay invisible until expiry.
	err = store.Seed(ctx, []*models.Card{
		{ID: "extra", Term: "x", Meaning: "x", Category: "x", Rarity: models.RarityCommon},
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	second, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("All() after reseed = %d cards, want cached %d", len(second), len(first))
	}
}
