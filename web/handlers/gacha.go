package handlers

import (
	"errors"

	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

// Draw performs one paid gacha pull.
func Draw(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		inst, err := webApp.Gacha.Draw(c.Context(), session.UserID)
		if err != nil {
			switch {
			case errors.Is(err, economy.ErrInsufficientFunds):
				return utils.SendPaymentRequired(c, "Not enough points for a draw")
			case errors.Is(err, economy.ErrCatalogExhausted):
				return utils.SendInternalServerError(c, "Card catalog is misconfigured")
			default:
				return utils.SendInternalServerError(c, "Draw failed")
			}
		}

		balance, err := webApp.Users.GetBalance(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read balance")
		}

		return utils.SendSuccess(c, fiber.Map{
			"card":   newInstanceView(inst),
			"points": balance,
			"cost":   economy.DrawCost,
		}, "Draw complete")
	}
}

// DrawRates exposes the drop tables so the client can render odds honestly.
func DrawRates(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rates := make(map[string]float64, len(economy.RarityDropTable))
		for _, band := range economy.RarityDropTable {
			rates[string(band.Rarity)] = band.Weight
		}
		return utils.SendSuccess(c, fiber.Map{
			"cost":  economy.DrawCost,
			"rates": rates,
		}, "")
	}
}
