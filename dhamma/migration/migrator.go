package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
)

const defaultBatchSize = 1000

// Migrator imports player data from the legacy MongoDB deployment into
// Postgres. The card catalog is expected to be seeded before MigrateAll runs;
// owned cards referencing unknown archetypes are skipped and counted.
type Migrator struct {
	pgDB    *bun.DB
	mongoDB *mongo.Database

	batchSize int
	collNames map[string]string

	stats Stats
}

// Stats tracks per-collection row counts for the final report.
type Stats struct {
	Accounts   int
	Instances  int
	Listings   int
	TopUps     int
	Skipped    int
	StartTime  time.Time
	FinishTime time.Time
}

func NewMigrator(pgDB *bun.DB, mongoDB *mongo.Database) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   mongoDB,
		batchSize: defaultBatchSize,
		collNames: map[string]string{
			"accounts":   "users",
			"ownedcards": "ownedcards",
			"topups":     "topups",
		},
	}
}

// SetBatchSize overrides the default insert batch size.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetCollectionName overrides a legacy collection name for a given kind.
func (m *Migrator) SetCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

// MigrateAll loads the three legacy collections concurrently, then inserts in
// dependency order: accounts first, then card instances with their listings,
// then top-up history.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.stats.StartTime = time.Now()
	slog.Info("Starting legacy migration",
		slog.String("type", "db"),
		slog.String("source", m.mongoDB.Name()))

	catalog, err := m.loadCatalog(ctx)
	if err != nil {
		return err
	}
	if len(catalog) == 0 {
		return fmt.Errorf("cards table is empty, seed the catalog before migrating")
	}

	var (
		accounts []MongoAccount
		owned    []MongoOwnedCard
		topups   []MongoTopUp
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = loadCollection[MongoAccount](gctx, m.coll("accounts"))
		return err
	})
	g.Go(func() error {
		var err error
		owned, err = loadCollection[MongoOwnedCard](gctx, m.coll("ownedcards"))
		return err
	})
	g.Go(func() error {
		var err error
		topups, err = loadCollection[MongoTopUp](gctx, m.coll("topups"))
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load legacy collections: %w", err)
	}

	slog.Info("Legacy collections loaded",
		slog.String("type", "db"),
		slog.Int("accounts", len(accounts)),
		slog.Int("owned_cards", len(owned)),
		slog.Int("topups", len(topups)))

	if err := m.migrateAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("account migration failed: %w", err)
	}
	if err := m.migrateOwnedCards(ctx, owned, catalog); err != nil {
		return fmt.Errorf("owned-card migration failed: %w", err)
	}
	if err := m.migrateTopUps(ctx, topups); err != nil {
		return fmt.Errorf("top-up migration failed: %w", err)
	}

	m.stats.FinishTime = time.Now()
	m.logReport()
	return nil
}

func (m *Migrator) coll(kind string) *mongo.Collection {
	return m.mongoDB.Collection(m.collNames[kind])
}

func loadCollection[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

func (m *Migrator) loadCatalog(ctx context.Context) (map[string]*models.Card, error) {
	var cards []*models.Card
	if err := m.pgDB.NewSelect().Model(&cards).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load card catalog: %w", err)
	}
	byID := make(map[string]*models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	return byID, nil
}

func (m *Migrator) migrateAccounts(ctx context.Context, accounts []MongoAccount) error {
	// Deduplicate on LINE id, keeping the latest record.
	byID := make(map[string]*models.User, len(accounts))
	for _, acc := range accounts {
		if acc.LineID == "" {
			m.stats.Skipped++
			continue
		}
		byID[acc.LineID] = convertAccount(acc)
	}

	users := make([]*models.User, 0, len(byID))
	for _, u := range byID {
		users = append(users, u)
	}

	for start := 0; start < len(users); start += m.batchSize {
		end := min(start+m.batchSize, len(users))
		batch := users[start:end]
		_, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT (user_id) DO UPDATE").
			Set("display_name = EXCLUDED.display_name").
			Set("avatar_url = EXCLUDED.avatar_url").
			Set("balance = EXCLUDED.balance").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("batch insert users: %w", err)
		}
		m.stats.Accounts += len(batch)
		slog.Info("Inserted account batch",
			slog.String("type", "db"),
			slog.String("progress", fmt.Sprintf("%d/%d", end, len(users))))
	}
	return nil
}

func (m *Migrator) migrateOwnedCards(ctx context.Context, owned []MongoOwnedCard, catalog map[string]*models.Card) error {
	var instances []*models.CardInstance
	var listings []*models.Listing

	flush := func() error {
		if len(instances) > 0 {
			if _, err := m.pgDB.NewInsert().
				Model(&instances).
				On("CONFLICT (instance_id) DO NOTHING").
				Exec(ctx); err != nil {
				return fmt.Errorf("batch insert instances: %w", err)
			}
			m.stats.Instances += len(instances)
			instances = instances[:0]
		}
		if len(listings) > 0 {
			if _, err := m.pgDB.NewInsert().
				Model(&listings).
				On("CONFLICT (instance_id) DO NOTHING").
				Exec(ctx); err != nil {
				return fmt.Errorf("batch insert listings: %w", err)
			}
			m.stats.Listings += len(listings)
			listings = listings[:0]
		}
		return nil
	}

	for _, oc := range owned {
		card, ok := catalog[oc.CardID]
		if !ok {
			m.stats.Skipped++
			slog.Warn("Skipping owned card with unknown archetype",
				slog.String("type", "db"),
				slog.String("card_id", oc.CardID),
				slog.String("user_id", oc.UserID))
			continue
		}
		inst, listing := convertOwnedCard(oc, card)
		instances = append(instances, inst)
		if listing != nil {
			listings = append(listings, listing)
		}
		if len(instances) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (m *Migrator) migrateTopUps(ctx context.Context, topups []MongoTopUp) error {
	records := make([]*models.TopUp, 0, len(topups))
	for _, t := range topups {
		if t.UserID == "" {
			m.stats.Skipped++
			continue
		}
		records = append(records, convertTopUp(t))
	}

	for start := 0; start < len(records); start += m.batchSize {
		end := min(start+m.batchSize, len(records))
		batch := records[start:end]
		_, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT (trans_ref) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("batch insert topups: %w", err)
		}
		m.stats.TopUps += len(batch)
	}
	return nil
}

func (m *Migrator) logReport() {
	slog.Info("Legacy migration completed",
		slog.String("type", "db"),
		slog.Int("accounts", m.stats.Accounts),
		slog.Int("instances", m.stats.Instances),
		slog.Int("listings", m.stats.Listings),
		slog.Int("topups", m.stats.TopUps),
		slog.Int("skipped", m.stats.Skipped),
		slog.Duration("took", m.stats.FinishTime.Sub(m.stats.StartTime)))
}
