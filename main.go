package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhammagenesis/gacha/dhamma"
	"github.com/dhammagenesis/gacha/dhamma/economy/gacha"
	"github.com/dhammagenesis/gacha/dhamma/economy/market"
	"github.com/dhammagenesis/gacha/dhamma/economy/topup"
	"github.com/dhammagenesis/gacha/dhamma/logger"
	"github.com/dhammagenesis/gacha/dhamma/services"
	"github.com/dhammagenesis/gacha/web"
	"github.com/dhammagenesis/gacha/web/handlers"
	webservices "github.com/dhammagenesis/gacha/web/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Dhamma Gacha API",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	production := flag.Bool("production", false, "enable production cookie settings")
	flag.Parse()

	cfg, err := dhamma.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer setupCancel()

	app := dhamma.New(cfg, version, commit)
	if err := app.SetupStores(setupCtx); err != nil {
		slog.Error("Failed to set up stores", slog.Any("error", err))
		os.Exit(-1)
	}
	defer app.Close()

	catalogService := services.NewCatalogService(app.Cards)
	if err := catalogService.CheckCoverage(setupCtx); err != nil {
		slog.Error("Card catalog check failed", slog.Any("error", err))
		os.Exit(-1)
	}

	var archiver topup.SlipArchiver
	if cfg.Spaces.Key != "" {
		spacesService, err := services.NewSpacesService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.SlipRoot,
		)
		if err != nil {
			slog.Error("Failed to initialize Spaces client", slog.Any("error", err))
			os.Exit(-1)
		}
		archiver = spacesService
	} else {
		slog.Warn("Spaces not configured, payment slips will not be archived")
	}

	webApp := &handlers.WebApp{
		Config:    cfg,
		DB:        app.DB,
		Users:     app.Users,
		Instances: app.Instances,
		Gacha:     gacha.NewManager(app.Cards, app.Instances),
		Market:    market.NewManager(app.Market),
		TopUp: topup.NewManager(
			app.TopUps,
			services.NewEasySlipVerifier(cfg.EasySlip.Endpoint, cfg.EasySlip.Token),
			archiver,
		),
		Catalog:   catalogService,
		PromptPay: services.NewPromptPayService(cfg.PromptPay.MerchantID),
		LineOAuth: services.NewLineOAuthService(cfg.Line.ChannelID, cfg.Line.ChannelSecret, cfg.Line.RedirectURL),
		Sessions:  webservices.NewSessionService(cfg.Web.SessionSecret, *production),
		Version:   version,
		Commit:    commit,
	}

	server := web.NewServer(webApp)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	go func() {
		slog.Info("Starting web server", slog.String("addr", addr))
		if err := server.Listen(addr); err != nil {
			slog.Error("Web server stopped", slog.Any("error", err))
			os.Exit(-1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", slog.Any("error", err))
	}
	slog.Info("Shutdown complete")
}
