package dhamma

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
)

func New(cfg *Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App owns the stores every other layer runs on. DB stays nil in memory
// mode.
type App struct {
	Cfg     *Config
	Version string
	Commit  string

	DB *database.DB

	Users     repositories.UserRepository
	Cards     repositories.CardRepository
	Instances repositories.InstanceRepository
	Market    repositories.MarketRepository
	TopUps    repositories.TopUpRepository
}

// SetupStores connects Postgres and wires the repositories. When the
// database is unreachable the app degrades to a volatile in-memory store so
// guest play keeps working; every write is lost on restart in that mode.
func (a *App) SetupStores(ctx context.Context) error {
	db, err := database.New(ctx, a.Cfg.DB)
	if err != nil {
		slog.Warn("Database unreachable, falling back to in-memory store",
			slog.Any("error", err))
		return a.setupMemoryStores(ctx)
	}

	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	a.DB = db
	a.Users = repositories.NewUserRepository(db.BunDB())
	a.Cards = repositories.NewCardRepository(db.BunDB())
	a.Instances = repositories.NewInstanceRepository(db.BunDB())
	a.Market = repositories.NewMarketRepository(db.BunDB())
	a.TopUps = repositories.NewTopUpRepository(db.BunDB())

	slog.Info("Stores initialized",
		slog.String("database", a.Cfg.DB.Database))
	return nil
}

func (a *App) setupMemoryStores(ctx context.Context) error {
	store := repositories.NewMemoryStore()
	if err := store.Seed(ctx, database.MasterCatalog()); err != nil {
		return fmt.Errorf("failed to seed in-memory catalog: %w", err)
	}

	a.Users = store
	a.Cards = store
	a.Instances = store
	a.Market = store
	a.TopUps = store

	slog.Warn("Running on in-memory store, all data is volatile")
	return nil
}

// MemoryMode reports whether the app runs without persistence.
func (a *App) MemoryMode() bool {
	return a.DB == nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
