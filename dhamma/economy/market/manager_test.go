package market

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy"
)

func setupMarket(t *testing.T) (*repositories.MemoryStore, *Manager) {
	t.Helper()
	store := repositories.NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"seller", "buyer"} {
		_, _, err := store.GetOrCreate(ctx, id, id, "", nil)
		require.NoError(t, err)
	}
	return store, NewManager(store)
}

func mintCard(t *testing.T, store *repositories.MemoryStore, ownerID, instanceID string) {
	t.Helper()
	err := store.Mint(context.Background(), &models.CardInstance{
		InstanceID:   instanceID,
		CardID:       "sati",
		Term:         "สติ",
		Meaning:      "mindfulness",
		Category:     "virtue",
		Rarity:       models.RarityCommon,
		SerialNumber: "123456",
		Variant:      models.VariantBasic,
		OwnerID:      ownerID,
		AcquiredAt:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
}

func TestListValidatesPrice(t *testing.T) {
	_, mgr := setupMarket(t)
	ctx := context.Background()

	_, err := mgr.List(ctx, "seller", "seller", "i1", 0)
	assert.Error(t, err)

	_, err = mgr.List(ctx, "seller", "seller", "i1", -50)
	assert.Error(t, err)

	_, err = mgr.List(ctx, "seller", "seller", "i1", MaxAskPrice+1)
	assert.Error(t, err)
}

func TestListRequiresOwnership(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "seller", "i1")

	_, err := mgr.List(ctx, "buyer", "buyer", "i1", 500)
	assert.ErrorIs(t, err, economy.ErrNotOwned)

	// A listed card cannot be listed again.
	_, err = mgr.List(ctx, "seller", "seller", "i1", 500)
	require.NoError(t, err)
	_, err = mgr.List(ctx, "seller", "seller", "i1", 500)
	assert.ErrorIs(t, err, economy.ErrNotOwned)
}

func TestBuyTransfersCardAndFunds(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "seller", "i1")

	listing, err := mgr.List(ctx, "seller", "seller", "i1", 3_000)
	require.NoError(t, err)

	before := time.Now()
	entry, err := mgr.Buy(ctx, "buyer", listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer", entry.Instance.OwnerID)
	assert.Equal(t, models.LocationInventory, entry.Instance.Location)
	assert.False(t, entry.Instance.AcquiredAt.Before(before), "purchase must refresh acquisition time")

	buyerBalance, err := store.GetBalance(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, economy.StartingBalance-3_000, buyerBalance)

	sellerBalance, err := store.GetBalance(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, economy.StartingBalance+3_000, sellerBalance)

	// The listing is gone.
	feed, err := mgr.Feed(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = mgr.Buy(ctx, "buyer", listing.ID)
	assert.ErrorIs(t, err, economy.ErrAlreadySold)
}

func TestBuyInsufficientFunds(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "seller", "i1")

	listing, err := mgr.List(ctx, "seller", "seller", "i1", economy.StartingBalance+1)
	require.NoError(t, err)

	_, err = mgr.Buy(ctx, "buyer", listing.ID)
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)

	// The listing survives a failed purchase.
	feed, err := mgr.Feed(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}

func TestBuySystemListingPaysNobody(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "", "i1")

	// System-seeded listings carry an empty seller id.
	listing, err := store.List(ctx, "", "ตลาดหลวง", "i1", 1_000)
	require.NoError(t, err)

	_, err = mgr.Buy(ctx, "buyer", listing.ID)
	require.NoError(t, err)

	sellerBalance, err := store.GetBalance(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, economy.StartingBalance, sellerBalance)
}

func TestCancel(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "seller", "i1")

	listing, err := mgr.List(ctx, "seller", "seller", "i1", 500)
	require.NoError(t, err)

	// Only the seller may cancel.
	err = mgr.Cancel(ctx, "buyer", listing.ID)
	assert.ErrorIs(t, err, economy.ErrNotOwned)

	require.NoError(t, mgr.Cancel(ctx, "seller", listing.ID))

	inst, err := store.GetByInstanceID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, models.LocationInventory, inst.Location)
	assert.Equal(t, "seller", inst.OwnerID)

	// Cancelling moves no money.
	sellerBalance, err := store.GetBalance(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, economy.StartingBalance, sellerBalance)
	buyerBalance, err := store.GetBalance(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, economy.StartingBalance, buyerBalance)

	err = mgr.Cancel(ctx, "seller", listing.ID)
	assert.ErrorIs(t, err, economy.ErrListingNotFound)
}

// Listings, purchases and cancellations shuffle points between accounts but
// never create or destroy them.
func TestMarketConservesTotalBalance(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "seller", "i1")
	mintCard(t, store, "seller", "i2")

	total := func() int64 {
		var sum int64
		for _, id := range []string{"seller", "buyer"} {
			balance, err := store.GetBalance(ctx, id)
			require.NoError(t, err)
			sum += balance
		}
		return sum
	}
	start := total()

	l1, err := mgr.List(ctx, "seller", "seller", "i1", 4_000)
	require.NoError(t, err)
	assert.Equal(t, start, total(), "listing must not move money")

	l2, err := mgr.List(ctx, "seller", "seller", "i2", 2_500)
	require.NoError(t, err)

	_, err = mgr.Buy(ctx, "buyer", l1.ID)
	require.NoError(t, err)
	assert.Equal(t, start, total(), "purchase must only transfer money")

	require.NoError(t, mgr.Cancel(ctx, "seller", l2.ID))
	assert.Equal(t, start, total(), "cancellation must not move money")
}

func TestConcurrentBuyExactlyOneWins(t *testing.T) {
	store, mgr := setupMarket(t)
	ctx := context.Background()
	mintCard(t, store, "seller", "i1")

	const buyers = 8
	for i := 0; i < buyers; i++ {
		_, _, err := store.GetOrCreate(ctx, fmt.Sprintf("b%d", i), "Buyer", "", nil)
		require.NoError(t, err)
	}

	listing, err := mgr.List(ctx, "seller", "seller", "i1", 1_000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(buyerID string) {
			defer wg.Done()
			_, err := mgr.Buy(ctx, buyerID, listing.ID)
			results <- err
		}(fmt.Sprintf("b%d", i))
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, economy.ErrAlreadySold)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent buyer must win")

	sellerBalance, err := store.GetBalance(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, economy.StartingBalance+1_000, sellerBalance, "seller is paid exactly once")
}
