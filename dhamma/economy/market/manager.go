package market

import (
	"context"
	"fmt"

	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
)

// MaxAskPrice caps listings to keep fat-finger asks off the feed.
const MaxAskPrice int64 = 100_000_000

// Manager fronts the player-to-player market. The repository carries the
// atomicity; this layer validates input and shapes the feed.
type Manager struct {
	market repositories.MarketRepository
}

func NewManager(market repositories.MarketRepository) *Manager {
	return &Manager{market: market}
}

// List puts one of the seller's cards up for sale.
func (m *Manager) List(ctx context.Context, sellerID, sellerName, instanceID string, price int64) (*models.Listing, error) {
	if price <= 0 {
		return nil, fmt.Errorf("ask price must be positive, got %d", price)
	}
	if price > MaxAskPrice {
		return nil, fmt.Errorf("ask price %d exceeds maximum %d", price, MaxAskPrice)
	}
	return m.market.List(ctx, sellerID, sellerName, instanceID, price)
}

// Buy purchases a listing for the buyer. Buying one's own listing is allowed
// and nets to a cancel with extra steps; the repository keeps it atomic.
func (m *Manager) Buy(ctx context.Context, buyerID string, listingID int64) (*repositories.MarketEntry, error) {
	return m.market.Buy(ctx, buyerID, listingID)
}

// Cancel withdraws the seller's own listing.
func (m *Manager) Cancel(ctx context.Context, sellerID string, listingID int64) error {
	return m.market.Cancel(ctx, sellerID, listingID)
}

// Feed returns the newest listings for the public market page.
func (m *Manager) Feed(ctx context.Context) ([]*repositories.MarketEntry, error) {
	return m.market.GetActive(ctx, config.MarketFeedLimit)
}

// ListingsOf returns everything the seller currently has on the market.
func (m *Manager) ListingsOf(ctx context.Context, sellerID string) ([]*repositories.MarketEntry, error) {
	return m.market.GetBySeller(ctx, sellerID)
}
