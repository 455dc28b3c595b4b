package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/economy"
)

// MemoryStore is a mutex-guarded, non-persistent implementation of every
// repository interface. Guest sessions run on it when the identity provider
// or the database is unavailable; tests use it as the engine's store. The
// single mutex gives the same all-or-nothing visibility the SQL transactions
// provide.
type MemoryStore struct {
	mu sync.Mutex

	users     map[string]*models.User
	cards     map[string]*models.Card
	instances map[string]*models.CardInstance
	listings  map[int64]*models.Listing
	topupRefs map[string]*models.TopUp
	redeemed  map[string]bool // userID + "\x00" + code

	nextListingID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		cards:         make(map[string]*models.Card),
		instances:     make(map[string]*models.CardInstance),
		listings:      make(map[int64]*models.Listing),
		topupRefs:     make(map[string]*models.TopUp),
		redeemed:      make(map[string]bool),
		nextListingID: 1,
	}
}

var (
	_ UserRepository     = (*MemoryStore)(nil)
	_ CardRepository     = (*MemoryStore)(nil)
	_ InstanceRepository = (*MemoryStore)(nil)
	_ MarketRepository   = (*MemoryStore)(nil)
	_ TopUpRepository    = (*MemoryStore)(nil)
)

// --- UserRepository ---

func (s *MemoryStore) GetOrCreate(_ context.Context, userID, displayName, avatarURL string, starters []*models.CardInstance) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return copyUser(u), false, nil
	}

	now := time.Now()
	u := &models.User{
		UserID:      userID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Balance:     economy.StartingBalance,
		Joined:      now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.users[userID] = u
	for _, inst := range starters {
		c := *inst
		c.OwnerID = userID
		c.Location = models.LocationInventory
		s.instances[c.InstanceID] = &c
	}
	return copyUser(u), true, nil
}

func (s *MemoryStore) GetByUserID(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetBalance(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s not found", userID)
	}
	return u.Balance, nil
}

func (s *MemoryStore) AddBalance(_ context.Context, userID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addBalanceLocked(userID, delta)
}

func (s *MemoryStore) addBalanceLocked(userID string, delta int64) error {
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	if u.Balance+delta < 0 {
		return fmt.Errorf("debit of %d rejected: %w", -delta, economy.ErrInsufficientFunds)
	}
	u.Balance += delta
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetBalance(_ context.Context, userID string, balance int64) error {
	if balance < 0 {
		return fmt.Errorf("balance must be non-negative: %w", economy.ErrInsufficientFunds)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.Balance = balance
	u.UpdatedAt = time.Now()
	return nil
}

// --- CardRepository ---

func (s *MemoryStore) GetAll(_ context.Context) ([]*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards := make([]*models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		cc := *c
		cards = append(cards, &cc)
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Rarity != cards[j].Rarity {
			return cards[i].Rarity.Value() < cards[j].Rarity.Value()
		}
		return cards[i].Term < cards[j].Term
	})
	return cards, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return nil, fmt.Errorf("card %s not found", id)
	}
	cc := *c
	return &cc, nil
}

func (s *MemoryStore) GetByRarity(_ context.Context, rarity models.Rarity) ([]*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cards []*models.Card
	for _, c := range s.cards {
		if c.Rarity == rarity {
			cc := *c
			cards = append(cards, &cc)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (s *MemoryStore) Seed(_ context.Context, cards []*models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cards {
		if _, ok := s.cards[c.ID]; ok {
			continue
		}
		cc := *c
		s.cards[c.ID] = &cc
	}
	return nil
}

// --- InstanceRepository ---

func (s *MemoryStore) CommitDraw(_ context.Context, inst *models.CardInstance, cost int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.instances[inst.InstanceID]; dup {
		return fmt.Errorf("instance %s already exists", inst.InstanceID)
	}
	if err := s.addBalanceLocked(inst.OwnerID, -cost); err != nil {
		return err
	}
	c := *inst
	c.Location = models.LocationInventory
	s.instances[c.InstanceID] = &c
	return nil
}

func (s *MemoryStore) Mint(_ context.Context, inst *models.CardInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.instances[inst.InstanceID]; dup {
		return fmt.Errorf("instance %s already exists", inst.InstanceID)
	}
	c := *inst
	c.Location = models.LocationInventory
	s.instances[c.InstanceID] = &c
	return nil
}

func (s *MemoryStore) GetByInstanceID(_ context.Context, instanceID string) (*models.CardInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[instanceID]
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
	}
	c := *inst
	return &c, nil
}

func (s *MemoryStore) GetInventory(_ context.Context, userID string) ([]*models.CardInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CardInstance
	for _, inst := range s.instances {
		if inst.OwnerID == userID && inst.Location == models.LocationInventory {
			c := *inst
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcquiredAt.After(out[j].AcquiredAt) })
	return out, nil
}

func (s *MemoryStore) SellBack(_ context.Context, userID, instanceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok || inst.OwnerID != userID || inst.Location != models.LocationInventory {
		return 0, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
	}

	value := economy.SellValue(inst.Rarity, inst.Variant)
	delete(s.instances, instanceID)
	if err := s.addBalanceLocked(userID, value); err != nil {
		// Credit cannot fail after the floor passed; restore for safety.
		s.instances[instanceID] = inst
		return 0, err
	}
	return value, nil
}

// --- MarketRepository ---

func (s *MemoryStore) List(_ context.Context, sellerID, sellerName, instanceID string, price int64) (*models.Listing, error) {
	if price <= 0 {
		return nil, fmt.Errorf("ask price must be positive, got %d", price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok || inst.OwnerID != sellerID || inst.Location != models.LocationInventory {
		return nil, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
	}

	inst.Location = models.LocationMarket
	inst.UpdatedAt = time.Now()

	listing := &models.Listing{
		ID:         s.nextListingID,
		InstanceID: instanceID,
		SellerID:   sellerID,
		SellerName: sellerName,
		Price:      price,
		ListedAt:   time.Now(),
		CreatedAt:  time.Now(),
	}
	s.nextListingID++
	s.listings[listing.ID] = listing

	l := *listing
	return &l, nil
}

func (s *MemoryStore) Buy(_ context.Context, buyerID string, listingID int64) (*MarketEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("listing %d: %w", listingID, economy.ErrAlreadySold)
	}

	buyer, ok := s.users[buyerID]
	if !ok {
		return nil, fmt.Errorf("user %s not found", buyerID)
	}
	if buyer.Balance < listing.Price {
		return nil, fmt.Errorf("price %d: %w", listing.Price, economy.ErrInsufficientFunds)
	}

	inst, ok := s.instances[listing.InstanceID]
	if !ok || inst.Location != models.LocationMarket {
		return nil, fmt.Errorf("instance %s not on market: %w", listing.InstanceID, economy.ErrAlreadySold)
	}

	now := time.Now()
	buyer.Balance -= listing.Price
	buyer.UpdatedAt = now
	if listing.SellerID != "" {
		if seller, ok := s.users[listing.SellerID]; ok {
			seller.Balance += listing.Price
			seller.UpdatedAt = now
		}
	}

	inst.OwnerID = buyerID
	inst.Location = models.LocationInventory
	inst.AcquiredAt = now
	inst.UpdatedAt = now
	delete(s.listings, listingID)

	l := *listing
	c := *inst
	return &MarketEntry{Listing: &l, Instance: &c}, nil
}

func (s *MemoryStore) Cancel(_ context.Context, sellerID string, listingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("listing %d: %w", listingID, economy.ErrListingNotFound)
	}
	if listing.SellerID != sellerID {
		return fmt.Errorf("listing %d belongs to another seller: %w", listingID, economy.ErrNotOwned)
	}

	inst, ok := s.instances[listing.InstanceID]
	if !ok || inst.Location != models.LocationMarket {
		return fmt.Errorf("instance %s not on market: %w", listing.InstanceID, economy.ErrListingNotFound)
	}

	inst.Location = models.LocationInventory
	inst.UpdatedAt = time.Now()
	delete(s.listings, listingID)
	return nil
}

func (s *MemoryStore) GetByListingID(_ context.Context, listingID int64) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("listing %d: %w", listingID, economy.ErrListingNotFound)
	}
	l := *listing
	return &l, nil
}

func (s *MemoryStore) GetActive(_ context.Context, limit int) ([]*MarketEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.entriesLocked(func(*models.Listing) bool { return true })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) GetBySeller(_ context.Context, sellerID string) ([]*MarketEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked(func(l *models.Listing) bool { return l.SellerID == sellerID }), nil
}

func (s *MemoryStore) entriesLocked(match func(*models.Listing) bool) []*MarketEntry {
	var entries []*MarketEntry
	for _, listing := range s.listings {
		if !match(listing) {
			continue
		}
		inst, ok := s.instances[listing.InstanceID]
		if !ok {
			continue
		}
		l := *listing
		c := *inst
		entries = append(entries, &MarketEntry{Listing: &l, Instance: &c})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Listing.ListedAt.After(entries[j].Listing.ListedAt)
	})
	return entries
}

// --- TopUpRepository ---

func (s *MemoryStore) ApplyVerified(_ context.Context, topup *models.TopUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.topupRefs[topup.TransRef]; dup {
		return fmt.Errorf("trans_ref %s: %w", topup.TransRef, economy.ErrDuplicateProof)
	}
	if err := s.addBalanceLocked(topup.UserID, topup.Points+topup.Bonus); err != nil {
		return err
	}
	topup.Status = models.TopUpStatusCompleted
	topup.CreatedAt = time.Now()
	t := *topup
	s.topupRefs[topup.TransRef] = &t
	return nil
}

func (s *MemoryStore) Redeem(_ context.Context, userID, code string, points int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + "\x00" + code
	if s.redeemed[key] {
		return fmt.Errorf("code %s: %w", code, economy.ErrDuplicateProof)
	}
	if err := s.addBalanceLocked(userID, points); err != nil {
		return err
	}
	s.redeemed[key] = true
	return nil
}

func (s *MemoryStore) GetByUser(_ context.Context, userID string) ([]*models.TopUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TopUp
	for _, t := range s.topupRefs {
		if t.UserID == userID {
			tt := *t
			out = append(out, &tt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}
