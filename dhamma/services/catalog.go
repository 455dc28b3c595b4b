package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
)

const catalogCacheKey = "catalog:all"

// cardSearchItems implements fuzzy.Source over the catalog.
type cardSearchItems []*models.Card

func (c cardSearchItems) String(i int) string {
	card := c[i]
	return card.Term + " " + card.Meaning + " " + card.Category
}

func (c cardSearchItems) Len() int { return len(c) }

type cachedCatalog struct {
	cards   []*models.Card
	fetched time.Time
}

// CatalogService serves the immutable master pool with an in-process cache.
type CatalogService struct {
	cards repositories.CardRepository
	cache *lru.Cache
}

func NewCatalogService(cards repositories.CardRepository) *CatalogService {
	cache, _ := lru.New(config.CacheSize)
	return &CatalogService{cards: cards, cache: cache}
}

// All returns the full catalog, cached for config.CacheExpiration.
func (s *CatalogService) All(ctx context.Context) ([]*models.Card, error) {
	if v, ok := s.cache.Get(catalogCacheKey); ok {
		entry := v.(cachedCatalog)
		if time.Since(entry.fetched) < config.CacheExpiration {
			return entry.cards, nil
		}
	}

	cards, err := s.cards.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Add(catalogCacheKey, cachedCatalog{cards: cards, fetched: time.Now()})
	return cards, nil
}

// Get returns one archetype by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Card, error) {
	return s.cards.GetByID(ctx, id)
}

// Search fuzzy-matches the query against term, meaning and category. Empty
// query returns the whole catalog.
func (s *CatalogService) Search(ctx context.Context, query string) ([]*models.Card, error) {
	cards, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return cards, nil
	}

	matches := fuzzy.FindFrom(query, cardSearchItems(cards))
	if len(matches) > config.MaxSearchResults {
		matches = matches[:config.MaxSearchResults]
	}

	results := make([]*models.Card, 0, len(matches))
	for _, m := range matches {
		results = append(results, cards[m.Index])
	}
	return results, nil
}

// CheckCoverage verifies every rarity tier has at least one archetype. Run at
// startup; a gap would make draws of that tier impossible.
func (s *CatalogService) CheckCoverage(ctx context.Context) error {
	cards, err := s.All(ctx)
	if err != nil {
		return err
	}

	seen := make(map[models.Rarity]bool)
	for _, c := range cards {
		seen[c.Rarity] = true
	}
	for _, r := range models.AllRarities {
		if !seen[r] {
			return fmt.Errorf("catalog has no %s archetype", r)
		}
	}
	return nil
}
