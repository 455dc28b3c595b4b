package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dhammagenesis/gacha/dhamma"
	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/dhammagenesis/gacha/dhamma/logger"
	"github.com/dhammagenesis/gacha/dhamma/migration"
)

// Imports player data from the legacy MongoDB deployment into Postgres. The
// target schema and card catalog are created first, so this can run against a
// fresh database.
func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	configPath := flag.String("config", "config.toml", "path to config")
	mongoURI := flag.String("mongo-uri", "", "legacy MongoDB URI (overrides config)")
	mongoName := flag.String("mongo-db", "", "legacy MongoDB database name (overrides config)")
	batchSize := flag.Int("batch", 0, "insert batch size")
	flag.Parse()

	cfg, err := dhamma.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	uri := cfg.Mongo.URI
	if *mongoURI != "" {
		uri = *mongoURI
	}
	name := cfg.Mongo.Database
	if *mongoName != "" {
		name = *mongoName
	}
	if uri == "" || name == "" {
		slog.Error("Legacy MongoDB URI and database name are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to Postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(1)
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		slog.Error("Failed to connect to legacy MongoDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(connectCtx, nil); err != nil {
		slog.Error("Legacy MongoDB unreachable", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := migration.NewMigrator(db.BunDB(), client.Database(name))
	if *batchSize > 0 {
		migrator.SetBatchSize(*batchSize)
	}

	if err := migrator.MigrateAll(ctx); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}
}
