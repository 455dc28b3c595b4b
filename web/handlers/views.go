package handlers

import (
	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy"
)

// JSON views for the frontend. Field names and the millisecond timestamps
// match what the web client consumes.

type cardView struct {
	ID       string `json:"id"`
	Term     string `json:"term"`
	Meaning  string `json:"meaning"`
	Details  string `json:"details"`
	Category string `json:"category"`
	Teaching string `json:"teaching"`
	Rarity   string `json:"rarity"`
}

type instanceView struct {
	cardView
	InstanceID    string `json:"instanceId"`
	AcquiredAt    int64  `json:"acquiredAt"`
	SerialNumber  string `json:"serialNumber"`
	VisualVariant string `json:"visualVariant"`
	SellValue     int64  `json:"sellValue"`
}

type marketItemView struct {
	instanceView
	ListingID  int64  `json:"listingId"`
	Price      int64  `json:"price"`
	SellerName string `json:"sellerName"`
	IsMine     bool   `json:"isMine"`
	ListedAt   int64  `json:"listedAt"`
}

type userView struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Balance     int64  `json:"points"`
	Guest       bool   `json:"guest"`
	IsAdmin     bool   `json:"isAdmin"`
}

func newCardView(card *models.Card) cardView {
	return cardView{
		ID:       card.ID,
		Term:     card.Term,
		Meaning:  card.Meaning,
		Details:  card.Details,
		Category: card.Category,
		Teaching: card.Teaching,
		Rarity:   string(card.Rarity),
	}
}

func newInstanceView(inst *models.CardInstance) instanceView {
	return instanceView{
		cardView: cardView{
			ID:       inst.CardID,
			Term:     inst.Term,
			Meaning:  inst.Meaning,
			Details:  inst.Details,
			Category: inst.Category,
			Teaching: inst.Teaching,
			Rarity:   string(inst.Rarity),
		},
		InstanceID:    inst.InstanceID,
		AcquiredAt:    inst.AcquiredAt.UnixMilli(),
		SerialNumber:  inst.SerialNumber,
		VisualVariant: string(inst.Variant),
		SellValue:     economy.SellValue(inst.Rarity, inst.Variant),
	}
}

func newMarketItemView(entry *repositories.MarketEntry, viewerID string) marketItemView {
	return marketItemView{
		instanceView: newInstanceView(entry.Instance),
		ListingID:    entry.Listing.ID,
		Price:        entry.Listing.Price,
		SellerName:   entry.Listing.SellerName,
		IsMine:       entry.Listing.SellerID != "" && entry.Listing.SellerID == viewerID,
		ListedAt:     entry.Listing.ListedAt.UnixMilli(),
	}
}

func newInstanceViews(instances []*models.CardInstance) []instanceView {
	views := make([]instanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, newInstanceView(inst))
	}
	return views
}

func newMarketItemViews(entries []*repositories.MarketEntry, viewerID string) []marketItemView {
	views := make([]marketItemView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newMarketItemView(entry, viewerID))
	}
	return views
}
