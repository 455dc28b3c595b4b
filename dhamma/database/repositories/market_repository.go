package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// maxBuyRetries bounds the optimistic retry loop around the serializable
// purchase transaction. Retries re-run the whole unit; a listing that is
// gone on re-read aborts with ErrAlreadySold instead of retrying further.
const maxBuyRetries = 3

// MarketEntry pairs a listing with its underlying card instance for display.
type MarketEntry struct {
	Listing  *models.Listing
	Instance *models.CardInstance
}

type MarketRepository interface {
	// List moves an owned instance onto the market: flips its location and
	// creates the listing in one transaction. economy.ErrNotOwned when the
	// instance is not in the seller's inventory.
	List(ctx context.Context, sellerID, sellerName, instanceID string, price int64) (*models.Listing, error)
	// Buy executes the purchase as an all-or-nothing unit: re-checks the
	// listing, debits the buyer, transfers the instance with a refreshed
	// acquisition timestamp, credits the seller (real accounts only) and
	// deletes the listing. Exactly one of N concurrent buyers succeeds.
	Buy(ctx context.Context, buyerID string, listingID int64) (*MarketEntry, error)
	// Cancel returns the instance to the seller's inventory and removes the
	// listing. economy.ErrListingNotFound when already purchased.
	Cancel(ctx context.Context, sellerID string, listingID int64) error
	GetByListingID(ctx context.Context, listingID int64) (*models.Listing, error)
	// GetActive returns the newest listings first, up to limit.
	GetActive(ctx context.Context, limit int) ([]*MarketEntry, error)
	GetBySeller(ctx context.Context, sellerID string) ([]*MarketEntry, error)
}

type marketRepository struct {
	db *bun.DB
}

func NewMarketRepository(db *bun.DB) MarketRepository {
	return &marketRepository{db: db}
}

func (r *marketRepository) List(ctx context.Context, sellerID, sellerName, instanceID string, price int64) (*models.Listing, error) {
	if price <= 0 {
		return nil, fmt.Errorf("ask price must be positive, got %d", price)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.NewUpdate().
		Model((*models.CardInstance)(nil)).
		Set("location = ?", models.LocationMarket).
		Set("updated_at = ?", time.Now()).
		Where("instance_id = ? AND owner_id = ? AND location = ?",
			instanceID, sellerID, models.LocationInventory).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to move instance to market: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
	}

	listing := &models.Listing{
		InstanceID: instanceID,
		SellerID:   sellerID,
		SellerName: sellerName,
		Price:      price,
		ListedAt:   time.Now(),
		CreatedAt:  time.Now(),
	}
	if _, err := tx.NewInsert().Model(listing).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Card listed",
		slog.String("type", "db"),
		slog.String("seller_id", sellerID),
		slog.String("instance_id", instanceID),
		slog.Int64("price", price))

	return listing, nil
}

func (r *marketRepository) Buy(ctx context.Context, buyerID string, listingID int64) (*MarketEntry, error) {
	var entry *MarketEntry
	var err error
	for attempt := 0; attempt < maxBuyRetries; attempt++ {
		entry, err = r.buyOnce(ctx, buyerID, listingID)
		if err == nil || !isSerializationFailure(err) {
			return entry, err
		}
		slog.Warn("Purchase transaction conflicted, retrying",
			slog.String("type", "db"),
			slog.Int64("listing_id", listingID),
			slog.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("purchase of listing %d kept conflicting: %w", listingID, err)
}

func (r *marketRepository) buyOnce(ctx context.Context, buyerID string, listingID int64) (*MarketEntry, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read inside the atomic unit. A vanished listing means another buyer
	// already won; never partially apply.
	listing := new(models.Listing)
	err = tx.NewSelect().
		Model(listing).
		Where("id = ?", listingID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %d: %w", listingID, economy.ErrAlreadySold)
		}
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}

	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance - ?", listing.Price).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND balance >= ?", buyerID, listing.Price).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to debit buyer: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("price %d: %w", listing.Price, economy.ErrInsufficientFunds)
	}

	// Identity and serial survive the transfer; only ownership, location and
	// the acquisition timestamp change.
	now := time.Now()
	result, err = tx.NewUpdate().
		Model((*models.CardInstance)(nil)).
		Set("owner_id = ?", buyerID).
		Set("location = ?", models.LocationInventory).
		Set("acquired_at = ?", now).
		Set("updated_at = ?", now).
		Where("instance_id = ? AND location = ?", listing.InstanceID, models.LocationMarket).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to transfer instance: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("instance %s not on market: %w", listing.InstanceID, economy.ErrAlreadySold)
	}

	if listing.SellerID != "" {
		if _, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("balance = balance + ?", listing.Price).
			Set("updated_at = ?", now).
			Where("user_id = ?", listing.SellerID).
			Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to credit seller: %w", err)
		}
	}

	if _, err := tx.NewDelete().
		Model((*models.Listing)(nil)).
		Where("id = ?", listingID).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete listing: %w", err)
	}

	inst := new(models.CardInstance)
	if err := tx.NewSelect().
		Model(inst).
		Where("instance_id = ?", listing.InstanceID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to read transferred instance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Purchase completed",
		slog.String("type", "db"),
		slog.String("buyer_id", buyerID),
		slog.String("seller_id", listing.SellerID),
		slog.String("instance_id", listing.InstanceID),
		slog.Int64("price", listing.Price))

	return &MarketEntry{Listing: listing, Instance: inst}, nil
}

func (r *marketRepository) Cancel(ctx context.Context, sellerID string, listingID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	listing := new(models.Listing)
	err = tx.NewSelect().
		Model(listing).
		Where("id = ?", listingID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("listing %d: %w", listingID, economy.ErrListingNotFound)
		}
		return fmt.Errorf("failed to lock listing: %w", err)
	}
	if listing.SellerID != sellerID {
		return fmt.Errorf("listing %d belongs to another seller: %w", listingID, economy.ErrNotOwned)
	}

	result, err := tx.NewUpdate().
		Model((*models.CardInstance)(nil)).
		Set("location = ?", models.LocationInventory).
		Set("updated_at = ?", time.Now()).
		Where("instance_id = ? AND location = ?", listing.InstanceID, models.LocationMarket).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to return instance: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("instance %s not on market: %w", listing.InstanceID, economy.ErrListingNotFound)
	}

	if _, err := tx.NewDelete().
		Model((*models.Listing)(nil)).
		Where("id = ?", listingID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	return tx.Commit()
}

func (r *marketRepository) GetByListingID(ctx context.Context, listingID int64) (*models.Listing, error) {
	listing := new(models.Listing)
	err := r.db.NewSelect().
		Model(listing).
		Where("id = ?", listingID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %d: %w", listingID, economy.ErrListingNotFound)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

func (r *marketRepository) GetActive(ctx context.Context, limit int) ([]*MarketEntry, error) {
	var listings []*models.Listing
	err := r.db.NewSelect().
		Model(&listings).
		Order("listed_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	return r.attachInstances(ctx, listings)
}

func (r *marketRepository) GetBySeller(ctx context.Context, sellerID string) ([]*MarketEntry, error) {
	var listings []*models.Listing
	err := r.db.NewSelect().
		Model(&listings).
		Where("seller_id = ?", sellerID).
		Order("listed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller listings: %w", err)
	}
	return r.attachInstances(ctx, listings)
}

func (r *marketRepository) attachInstances(ctx context.Context, listings []*models.Listing) ([]*MarketEntry, error) {
	if len(listings) == 0 {
		return nil, nil
	}

	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.InstanceID
	}

	var instances []*models.CardInstance
	err := r.db.NewSelect().
		Model(&instances).
		Where("instance_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get listed instances: %w", err)
	}

	byID := make(map[string]*models.CardInstance, len(instances))
	for _, inst := range instances {
		byID[inst.InstanceID] = inst
	}

	entries := make([]*MarketEntry, 0, len(listings))
	for _, l := range listings {
		inst, ok := byID[l.InstanceID]
		if !ok {
			// Listing without an instance row is a ledger violation; skip it
			// from the feed but make noise.
			slog.Error("Listing references missing instance",
				slog.String("type", "db"),
				slog.Int64("listing_id", l.ID),
				slog.String("instance_id", l.InstanceID))
			continue
		}
		entries = append(entries, &MarketEntry{Listing: l, Instance: inst})
	}
	return entries, nil
}

// isSerializationFailure reports whether the error is a Postgres
// serialization or deadlock abort, which the purchase loop may retry in full.
func isSerializationFailure(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		code := pgErr.Field('C')
		return code == "40001" || code == "40P01"
	}
	return false
}
