package web

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/web/handlers"
	"github.com/dhammagenesis/gacha/web/middleware"
)

// NewServer builds the Fiber app with all middleware and routes wired.
func NewServer(webApp *handlers.WebApp) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Dhamma Gacha API",
		ServerHeader: "Dhamma",
		BodyLimit:    config.MaxRequestSize,
		ReadTimeout:  config.RequestTimeout,
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(webApp.Config.Web.CORSOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,Cookie",
		AllowCredentials: true,
	}))
	app.Use(middleware.LoggingMiddleware())

	setupRoutes(app, webApp)

	return app
}

func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Dhamma Gacha API",
			"version": webApp.Version,
			"status":  "running",
		})
	})

	api := app.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Authentication
	auth := api.Group("/auth")
	auth.Post("/line", middleware.AuthRateLimit(), handlers.LineLogin(webApp))
	auth.Post("/guest", middleware.AuthRateLimit(), handlers.GuestLogin(webApp))
	auth.Post("/logout", handlers.Logout(webApp))

	// Public catalog and market feed; viewer context is optional.
	api.Get("/catalog", handlers.CatalogList(webApp))
	api.Get("/gacha/rates", handlers.DrawRates(webApp))
	api.Get("/market", middleware.OptionalAuth(webApp.Sessions), handlers.MarketFeed(webApp))

	// Everything below requires a session. In memory mode only guest
	// sessions pass; authenticated accounts must not touch volatile state.
	authed := api.Group("",
		middleware.AuthRequired(webApp.Sessions),
		middleware.RequireDurableStore(webApp.MemoryMode()))

	authed.Get("/me", handlers.Me(webApp))
	authed.Get("/inventory", handlers.Inventory(webApp))
	authed.Post("/inventory/:instanceId/sell", handlers.SellBack(webApp))

	authed.Post("/gacha/draw", handlers.Draw(webApp))

	authed.Get("/market/mine", handlers.MyListings(webApp))
	authed.Post("/market", handlers.CreateListing(webApp))
	authed.Post("/market/:listingId/buy", handlers.BuyListing(webApp))
	authed.Delete("/market/:listingId", handlers.CancelListing(webApp))

	authed.Get("/topup/packages", handlers.TopUpPackages(webApp))
	authed.Post("/topup/verify-slip", middleware.SlipRateLimit(), handlers.VerifySlip(webApp))
	authed.Post("/topup/redeem", handlers.RedeemCode(webApp))
	authed.Get("/topup/history", handlers.TopUpHistory(webApp))

	// Admin operations
	admin := authed.Group("/admin", middleware.AdminRequired())
	admin.Get("/stats", handlers.AdminStats(webApp))
	admin.Post("/mint", handlers.AdminMint(webApp))
	admin.Post("/balance", handlers.AdminSetBalance(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
		)
		return c.Status(404).JSON(fiber.Map{
			"error":   "Not Found",
			"message": fmt.Sprintf("The requested endpoint %s does not exist", c.Path()),
		})
	})
}
