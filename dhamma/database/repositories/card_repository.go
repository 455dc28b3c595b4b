package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/uptrace/bun"
)

type CardRepository interface {
	GetAll(ctx context.Context) ([]*models.Card, error)
	GetByID(ctx context.Context, id string) (*models.Card, error)
	GetByRarity(ctx context.Context, rarity models.Rarity) ([]*models.Card, error)
	// Seed loads the embedded master pool. Existing rows win; the catalog is
	// immutable after startup.
	Seed(ctx context.Context, cards []*models.Card) error
}

type cardRepository struct {
	db *bun.DB
}

func NewCardRepository(db *bun.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) GetAll(ctx context.Context) ([]*models.Card, error) {
	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Order("rarity ASC", "term ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	return cards, nil
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	card := new(models.Card)
	err := r.db.NewSelect().
		Model(card).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s not found", id)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (r *cardRepository) GetByRarity(ctx context.Context, rarity models.Rarity) ([]*models.Card, error) {
	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("rarity = ?", rarity).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards by rarity: %w", err)
	}
	return cards, nil
}

func (r *cardRepository) Seed(ctx context.Context, cards []*models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().
		Model(&cards).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}
