package handlers

import (
	"errors"

	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

// Inventory lists the caller's cards, newest acquisitions first.
func Inventory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		instances, err := webApp.Instances.GetInventory(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load inventory")
		}

		return utils.SendSuccess(c, newInstanceViews(instances), "")
	}
}

// SellBack destroys an owned card and credits its sell value.
func SellBack(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		instanceID := c.Params("instanceId")
		if instanceID == "" {
			return utils.SendBadRequest(c, "Instance id required", nil)
		}

		value, err := webApp.Instances.SellBack(c.Context(), session.UserID, instanceID)
		if err != nil {
			if errors.Is(err, economy.ErrNotOwned) {
				return utils.SendNotFound(c, "Card not found in your inventory")
			}
			return utils.SendInternalServerError(c, "Sell failed")
		}

		balance, err := webApp.Users.GetBalance(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read balance")
		}

		return utils.SendSuccess(c, fiber.Map{
			"value":  value,
			"points": balance,
		}, "Card sold")
	}
}
