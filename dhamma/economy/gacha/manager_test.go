package gacha

import (
	"context"
	"errors"
	"testing"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy"
)

// sequence returns an rng that replays the given values in order.
func sequence(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

func testCatalog() []*models.Card {
	return []*models.Card{
		{ID: "c1", Term: "สติ", Meaning: "mindfulness", Category: "virtue", Rarity: models.RarityCommon},
		{ID: "r1", Term: "อิทธิบาท 4", Meaning: "paths of accomplishment", Category: "practice", Rarity: models.RarityRare},
		{ID: "e1", Term: "อริยสัจ 4", Meaning: "noble truths", Category: "doctrine", Rarity: models.RarityEpic},
		{ID: "l1", Term: "นิพพาน", Meaning: "nibbana", Category: "doctrine", Rarity: models.RarityLegendary},
	}
}

func newTestStore(t *testing.T, userID string) *repositories.MemoryStore {
	t.Helper()
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	if err := store.Seed(ctx, testCatalog()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if _, _, err := store.GetOrCreate(ctx, userID, "Tester", "", nil); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	return store
}

func TestDraw(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "u1")

	// Rolls consumed per draw: rarity, pool index, variant, serial.
	mgr := NewManager(store, store).WithRNG(sequence(0.005, 0, 0.5, 0.5))

	inst, err := mgr.Draw(ctx, "u1")
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if inst.Rarity != models.RarityLegendary {
		t.Errorf("Draw() rarity = %v, want %v", inst.Rarity, models.RarityLegendary)
	}
	if inst.Variant != models.VariantTextured {
		t.Errorf("Draw() variant = %v, want %v", inst.Variant, models.VariantTextured)
	}
	if inst.OwnerID != "u1" || inst.Location != models.LocationInventory {
		t.Errorf("Draw() owner/location = %s/%s, want u1/inventory", inst.OwnerID, inst.Location)
	}
	if len(inst.SerialNumber) != 6 {
		t.Errorf("Draw() serial = %q, want 6 digits", inst.SerialNumber)
	}

	balance, err := store.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	want := economy.StartingBalance - economy.DrawCost
	if balance != want {
		t.Errorf("balance after draw = %d, want %d", balance, want)
	}

	inventory, err := store.GetInventory(ctx, "u1")
	if err != nil {
		t.Fatalf("GetInventory() error = %v", err)
	}
	if len(inventory) != 1 {
		t.Errorf("inventory size = %d, want 1", len(inventory))
	}
}

func TestDrawInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "u1")
	if err := store.SetBalance(ctx, "u1", economy.DrawCost-1); err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}

	mgr := NewManager(store, store).WithRNG(sequence(0.5))
	if _, err := mgr.Draw(ctx, "u1"); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("Draw() error = %v, want ErrInsufficientFunds", err)
	}

	// Nothing was minted and nothing was charged.
	inventory, _ := store.GetInventory(ctx, "u1")
	if len(inventory) != 0 {
		t.Errorf("inventory size after failed draw = %d, want 0", len(inventory))
	}
	balance, _ := store.GetBalance(ctx, "u1")
	if balance != economy.DrawCost-1 {
		t.Errorf("balance after failed draw = %d, want %d", balance, economy.DrawCost-1)
	}
}

func TestDrawCatalogExhausted(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	// Catalog with no legendary tier.
	if err := store.Seed(ctx, testCatalog()[:3]); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if _, _, err := store.GetOrCreate(ctx, "u1", "Tester", "", nil); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	mgr := NewManager(store, store).WithRNG(sequence(0))
	if _, err := mgr.Draw(ctx, "u1"); !errors.Is(err, economy.ErrCatalogExhausted) {
		t.Fatalf("Draw() error = %v, want ErrCatalogExhausted", err)
	}
}

func TestMintStarters(t *testing.T) {
	store := newTestStore(t, "u1")
	mgr := NewManager(store, store)

	starters := mgr.MintStarters("u1")
	if len(starters) != 2 {
		t.Fatalf("MintStarters() returned %d instances, want 2", len(starters))
	}

	wantVariants := map[string]models.VisualVariant{
		"sati":   models.VariantBasic,
		"sila-5": models.VariantTextured,
	}
	for _, inst := range starters {
		if inst.OwnerID != "u1" {
			t.Errorf("starter %s owner = %s, want u1", inst.CardID, inst.OwnerID)
		}
		want, ok := wantVariants[inst.CardID]
		if !ok {
			t.Errorf("unexpected starter card %s", inst.CardID)
			continue
		}
		if inst.Variant != want {
			t.Errorf("starter %s variant = %v, want %v", inst.CardID, inst.Variant, want)
		}
	}
}

func TestMintFor(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "u1")
	mgr := NewManager(store, store)

	inst, err := mgr.MintFor(ctx, "u1", "e1", models.VariantHolographic)
	if err != nil {
		t.Fatalf("MintFor() error = %v", err)
	}
	if inst.Rarity != models.RarityEpic || inst.Variant != models.VariantHolographic {
		t.Errorf("MintFor() = %v/%v, want EPIC/HOLOGRAPHIC", inst.Rarity, inst.Variant)
	}

	// Minting is free.
	balance, _ := store.GetBalance(ctx, "u1")
	if balance != economy.StartingBalance {
		t.Errorf("balance after mint = %d, want %d", balance, economy.StartingBalance)
	}

	if _, err := mgr.MintFor(ctx, "u1", "e1", models.VisualVariant("SPARKLY")); err == nil {
		t.Error("MintFor() with invalid variant, want error")
	}
	if _, err := mgr.MintFor(ctx, "u1", "missing", models.VariantBasic); err == nil {
		t.Error("MintFor() with unknown card, want error")
	}
}
