package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/economy"
)

func starterInstances() []*models.CardInstance {
	now := time.Now()
	return []*models.CardInstance{
		{InstanceID: "s1", CardID: "sati", Term: "สติ", Rarity: models.RarityCommon,
			Variant: models.VariantBasic, SerialNumber: "111111", AcquiredAt: now},
		{InstanceID: "s2", CardID: "sila-5", Term: "ศีล 5", Rarity: models.RarityCommon,
			Variant: models.VariantTextured, SerialNumber: "222222", AcquiredAt: now},
	}
}

func TestGetOrCreateBootstrapsAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user, created, err := store.GetOrCreate(ctx, "U1", "Tester", "", starterInstances())
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !created {
		t.Error("first GetOrCreate() did not create")
	}
	if user.Balance != economy.StartingBalance {
		t.Errorf("starting balance = %d, want %d", user.Balance, economy.StartingBalance)
	}

	inventory, err := store.GetInventory(ctx, "U1")
	if err != nil {
		t.Fatalf("GetInventory() error = %v", err)
	}
	if len(inventory) != 2 {
		t.Errorf("starter inventory = %d cards, want 2", len(inventory))
	}

	// Second sign-in returns the same account and grants nothing.
	again, created, err := store.GetOrCreate(ctx, "U1", "Renamed", "", starterInstances())
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if created {
		t.Error("second GetOrCreate() created again")
	}
	if again.DisplayName != "Tester" {
		t.Errorf("display name = %s, want original Tester", again.DisplayName)
	}
	inventory, err = store.GetInventory(ctx, "U1")
	if err != nil {
		t.Fatalf("GetInventory() error = %v", err)
	}
	if len(inventory) != 2 {
		t.Errorf("inventory after second sign-in = %d cards, want 2", len(inventory))
	}
}

func TestGetOrCreateConcurrentFirstSignIn(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Racing first sign-ins for the same account: exactly one bootstrap, one
	// set of starter cards.
	const signIns = 8
	var wg sync.WaitGroup
	createdCh := make(chan bool, signIns)
	for i := 0; i < signIns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.GetOrCreate(ctx, "U1", "Tester", "", starterInstances())
			if err != nil {
				t.Errorf("GetOrCreate() error = %v", err)
				return
			}
			createdCh <- created
		}()
	}
	wg.Wait()
	close(createdCh)

	creations := 0
	for created := range createdCh {
		if created {
			creations++
		}
	}
	if creations != 1 {
		t.Errorf("created reported %d times, want exactly 1", creations)
	}

	inventory, err := store.GetInventory(ctx, "U1")
	if err != nil {
		t.Fatalf("GetInventory() error = %v", err)
	}
	if len(inventory) != 2 {
		t.Errorf("inventory = %d cards, want one starter grant of 2", len(inventory))
	}
	balance, _ := store.GetBalance(ctx, "U1")
	if balance != economy.StartingBalance {
		t.Errorf("balance = %d, want %d", balance, economy.StartingBalance)
	}
}

func TestAddBalanceFloor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, _, err := store.GetOrCreate(ctx, "U1", "Tester", "", nil); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	if err := store.AddBalance(ctx, "U1", -economy.StartingBalance); err != nil {
		t.Fatalf("exact debit error = %v", err)
	}
	if err := store.AddBalance(ctx, "U1", -1); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Errorf("overdebit error = %v, want ErrInsufficientFunds", err)
	}
	balance, _ := store.GetBalance(ctx, "U1")
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestSellBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, _, err := store.GetOrCreate(ctx, "U1", "Tester", "", starterInstances()); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	// s2 is a textured common: 1000 * 1.5.
	value, err := store.SellBack(ctx, "U1", "s2")
	if err != nil {
		t.Fatalf("SellBack() error = %v", err)
	}
	if value != 1_500 {
		t.Errorf("SellBack() = %d, want 1500", value)
	}

	balance, _ := store.GetBalance(ctx, "U1")
	if balance != economy.StartingBalance+1_500 {
		t.Errorf("balance = %d, want %d", balance, economy.StartingBalance+1_500)
	}

	inventory, _ := store.GetInventory(ctx, "U1")
	if len(inventory) != 1 {
		t.Errorf("inventory = %d cards, want 1", len(inventory))
	}

	// Selling twice, or someone else's card, fails with ErrNotOwned.
	if _, err := store.SellBack(ctx, "U1", "s2"); !errors.Is(err, economy.ErrNotOwned) {
		t.Errorf("double sell error = %v, want ErrNotOwned", err)
	}
	if _, err := store.SellBack(ctx, "U2", "s1"); !errors.Is(err, economy.ErrNotOwned) {
		t.Errorf("foreign sell error = %v, want ErrNotOwned", err)
	}
}

func TestSellBackRejectsListedCard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, _, err := store.GetOrCreate(ctx, "U1", "Tester", "", starterInstances()); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if _, err := store.List(ctx, "U1", "Tester", "s1", 500); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if _, err := store.SellBack(ctx, "U1", "s1"); !errors.Is(err, economy.ErrNotOwned) {
		t.Errorf("sell of listed card error = %v, want ErrNotOwned", err)
	}
}

func TestGetInventoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, _, err := store.GetOrCreate(ctx, "U1", "Tester", "", nil); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		err := store.Mint(ctx, &models.CardInstance{
			InstanceID: id,
			CardID:     "sati",
			Rarity:     models.RarityCommon,
			Variant:    models.VariantBasic,
			OwnerID:    "U1",
			AcquiredAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Mint(%s) error = %v", id, err)
		}
	}

	inventory, err := store.GetInventory(ctx, "U1")
	if err != nil {
		t.Fatalf("GetInventory() error = %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, inst := range inventory {
		if inst.InstanceID != want[i] {
			t.Errorf("inventory[%d] = %s, want %s", i, inst.InstanceID, want[i])
		}
	}
}
