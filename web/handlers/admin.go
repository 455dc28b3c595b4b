package handlers

import (
	"log/slog"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

type mintRequest struct {
	UserID  string `json:"userId"`
	CardID  string `json:"cardId"`
	Variant string `json:"variant"`
}

type setBalanceRequest struct {
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
}

// AdminMint creates an arbitrary card instance in a user's inventory,
// bypassing cost and drop tables.
func AdminMint(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := webApp.session(c)

		var req mintRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.UserID == "" || req.CardID == "" {
			return utils.SendBadRequest(c, "userId and cardId required", nil)
		}
		variant := models.VisualVariant(req.Variant)
		if req.Variant == "" {
			variant = models.VariantBasic
		}

		inst, err := webApp.Gacha.MintFor(c.Context(), req.UserID, req.CardID, variant)
		if err != nil {
			return utils.SendBadRequest(c, err.Error(), nil)
		}

		slog.Info("Admin minted card",
			slog.String("admin_id", session.UserID),
			slog.String("user_id", req.UserID),
			slog.String("card_id", req.CardID),
			slog.String("variant", string(variant)))

		return utils.SendCreated(c, newInstanceView(inst), "Card minted")
	}
}

// AdminStats reports catalog composition per rarity tier.
func AdminStats(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cards, err := webApp.Catalog.All(c.Context())
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load catalog")
		}

		byRarity := make(map[string]int)
		for _, card := range cards {
			byRarity[string(card.Rarity)]++
		}

		return utils.SendSuccess(c, fiber.Map{
			"totalCards": len(cards),
			"byRarity":   byRarity,
			"memoryMode": webApp.MemoryMode(),
		}, "")
	}
}

// AdminSetBalance overwrites a user's balance.
func AdminSetBalance(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := webApp.session(c)

		var req setBalanceRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.UserID == "" {
			return utils.SendBadRequest(c, "userId required", nil)
		}
		if req.Balance < 0 {
			return utils.SendBadRequest(c, "Balance must be non-negative", nil)
		}

		if err := webApp.Users.SetBalance(c.Context(), req.UserID, req.Balance); err != nil {
			return utils.SendBadRequest(c, err.Error(), nil)
		}

		slog.Info("Admin set balance",
			slog.String("admin_id", session.UserID),
			slog.String("user_id", req.UserID),
			slog.Int64("balance", req.Balance))

		return utils.SendSuccess(c, fiber.Map{
			"userId":  req.UserID,
			"balance": req.Balance,
		}, "Balance updated")
	}
}
