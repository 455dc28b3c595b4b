package handlers

import (
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

// CatalogList returns the master pool, optionally fuzzy-filtered by ?q=.
func CatalogList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")

		cards, err := webApp.Catalog.Search(c.Context(), query)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load catalog")
		}

		views := make([]cardView, 0, len(cards))
		for _, card := range cards {
			views = append(views, newCardView(card))
		}
		return utils.SendSuccess(c, views, "")
	}
}
