package handlers

import (
	"github.com/dhammagenesis/gacha/dhamma"
	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy/gacha"
	"github.com/dhammagenesis/gacha/dhamma/economy/market"
	"github.com/dhammagenesis/gacha/dhamma/economy/topup"
	"github.com/dhammagenesis/gacha/dhamma/services"
	webmodels "github.com/dhammagenesis/gacha/web/models"
	webservices "github.com/dhammagenesis/gacha/web/services"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

// WebApp bundles everything the handlers need. DB is nil when the server runs
// on the in-memory fallback store.
type WebApp struct {
	Config *dhamma.Config
	DB     *database.DB

	Users     repositories.UserRepository
	Instances repositories.InstanceRepository

	Gacha   *gacha.Manager
	Market  *market.Manager
	TopUp   *topup.Manager
	Catalog *services.CatalogService

	PromptPay *services.PromptPayService
	LineOAuth *services.LineOAuthService
	Sessions  *webservices.SessionService

	Version string
	Commit  string
}

// MemoryMode reports whether the server runs without persistence.
func (w *WebApp) MemoryMode() bool {
	return w.DB == nil
}

// IsAdminUser checks the configured admin list.
func (w *WebApp) IsAdminUser(userID string) bool {
	for _, id := range w.Config.Web.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (w *WebApp) session(c *fiber.Ctx) (*webmodels.UserSession, bool) {
	return utils.ExtractUserSession(c)
}

// HealthCheck reports server and dependency status.
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := webmodels.NewHealthCheck(webApp.Version)

		if webApp.MemoryMode() {
			health.AddComponent("database", "degraded", "running on in-memory store")
		} else if err := webApp.DB.Ping(c.Context()); err != nil {
			health.AddComponent("database", "unhealthy", err.Error())
		} else {
			health.AddComponent("database", "healthy", "")
		}

		if webApp.LineOAuth.Enabled() {
			health.AddComponent("line_login", "healthy", "")
		} else {
			health.AddComponent("line_login", "degraded", "not configured, guest login only")
		}

		return utils.SendSuccess(c, health, "")
	}
}
