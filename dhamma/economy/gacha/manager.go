package gacha

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/google/uuid"
)

// Manager resolves gacha draws. All randomness happens here, before the
// repository commit, so a failed commit never consumes a roll result the user
// paid for.
type Manager struct {
	cards     repositories.CardRepository
	instances repositories.InstanceRepository
	rng       func() float64
}

func NewManager(cards repositories.CardRepository, instances repositories.InstanceRepository) *Manager {
	return &Manager{
		cards:     cards,
		instances: instances,
		rng:       rand.Float64,
	}
}

// WithRNG swaps the randomness source. Tests pass a deterministic sequence.
func (m *Manager) WithRNG(rng func() float64) *Manager {
	m.rng = rng
	return m
}

// Draw performs one paid pull for the user: rolls rarity, picks an archetype
// of that tier, rolls the visual variant, then atomically charges the draw
// cost and mints the instance. economy.ErrInsufficientFunds when the user
// cannot cover the cost; nothing is charged on any failure.
func (m *Manager) Draw(ctx context.Context, userID string) (*models.CardInstance, error) {
	rarity := economy.RollRarity(m.rng() * 100)

	pool, err := m.cards.GetByRarity(ctx, rarity)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool for %s: %w", rarity, err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("rarity %s: %w", rarity, economy.ErrCatalogExhausted)
	}

	card := pool[m.index(len(pool))]
	variant := economy.RollVariant(rarity, m.rng())

	inst := m.buildInstance(card, variant, userID)
	if err := m.instances.CommitDraw(ctx, inst, economy.DrawCost); err != nil {
		return nil, err
	}

	slog.Info("Draw resolved",
		slog.String("user_id", userID),
		slog.String("card_id", card.ID),
		slog.String("rarity", string(rarity)),
		slog.String("variant", string(variant)))

	return inst, nil
}

// MintStarters builds the two welcome instances for a fresh account. They are
// not persisted here; GetOrCreate inserts them inside the bootstrap
// transaction.
func (m *Manager) MintStarters(userID string) []*models.CardInstance {
	byID := make(map[string]*models.Card)
	for _, c := range database.MasterCatalog() {
		byID[c.ID] = c
	}

	starters := make([]*models.CardInstance, 0, len(database.StarterSpecs))
	for _, spec := range database.StarterSpecs {
		card, ok := byID[spec.CardID]
		if !ok {
			continue
		}
		inst := m.buildInstance(card, spec.Variant, userID)
		starters = append(starters, inst)
	}
	return starters
}

// MintFor creates an arbitrary instance, bypassing cost and drop tables.
// Admin tooling only.
func (m *Manager) MintFor(ctx context.Context, userID, cardID string, variant models.VisualVariant) (*models.CardInstance, error) {
	card, err := m.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !variant.Valid() {
		return nil, fmt.Errorf("invalid variant %q", variant)
	}

	inst := m.buildInstance(card, variant, userID)
	if err := m.instances.Mint(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (m *Manager) buildInstance(card *models.Card, variant models.VisualVariant, userID string) *models.CardInstance {
	now := time.Now()
	return &models.CardInstance{
		InstanceID:   uuid.NewString(),
		CardID:       card.ID,
		Term:         card.Term,
		Meaning:      card.Meaning,
		Details:      card.Details,
		Category:     card.Category,
		Teaching:     card.Teaching,
		Rarity:       card.Rarity,
		SerialNumber: m.serial(),
		Variant:      variant,
		OwnerID:      userID,
		Location:     models.LocationInventory,
		AcquiredAt:   now,
	}
}

// serial draws a 6-digit print number. Serials are display flavor and not
// required to be unique; the instance id is the identity.
func (m *Manager) serial() string {
	span := float64(config.SerialMax - config.SerialMin + 1)
	return fmt.Sprintf("%06d", config.SerialMin+int(m.rng()*span))
}

func (m *Manager) index(n int) int {
	i := int(m.rng() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
