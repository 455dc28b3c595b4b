package handlers

import (
	"errors"
	"strconv"

	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

type listRequest struct {
	InstanceID string `json:"instanceId"`
	Price      int64  `json:"price"`
}

// MarketFeed returns the newest active listings.
func MarketFeed(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var viewerID string
		if session, ok := webApp.session(c); ok {
			viewerID = session.UserID
		}

		entries, err := webApp.Market.Feed(c.Context())
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load market")
		}

		return utils.SendSuccess(c, newMarketItemViews(entries, viewerID), "")
	}
}

// MyListings returns the caller's own active listings.
func MyListings(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		entries, err := webApp.Market.ListingsOf(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load listings")
		}

		return utils.SendSuccess(c, newMarketItemViews(entries, session.UserID), "")
	}
}

// CreateListing puts one of the caller's cards up for sale.
func CreateListing(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		var req listRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.InstanceID == "" {
			return utils.SendBadRequest(c, "Instance id required", nil)
		}

		listing, err := webApp.Market.List(c.Context(),
			session.UserID, session.DisplayName, req.InstanceID, req.Price)
		if err != nil {
			if errors.Is(err, economy.ErrNotOwned) {
				return utils.SendNotFound(c, "Card not found in your inventory")
			}
			return utils.SendBadRequest(c, err.Error(), nil)
		}

		return utils.SendCreated(c, fiber.Map{
			"listingId": listing.ID,
			"price":     listing.Price,
			"listedAt":  listing.ListedAt.UnixMilli(),
		}, "Card listed")
	}
}

// BuyListing purchases a listing. Exactly one of N concurrent buyers wins;
// the rest get a conflict.
func BuyListing(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		listingID, err := strconv.ParseInt(c.Params("listingId"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "Invalid listing id", nil)
		}

		entry, err := webApp.Market.Buy(c.Context(), session.UserID, listingID)
		if err != nil {
			switch {
			case errors.Is(err, economy.ErrAlreadySold), errors.Is(err, economy.ErrListingNotFound):
				return utils.SendConflict(c, "This card was already sold", nil)
			case errors.Is(err, economy.ErrInsufficientFunds):
				return utils.SendPaymentRequired(c, "Not enough points for this purchase")
			default:
				return utils.SendInternalServerError(c, "Purchase failed")
			}
		}

		balance, err := webApp.Users.GetBalance(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read balance")
		}

		return utils.SendSuccess(c, fiber.Map{
			"card":   newInstanceView(entry.Instance),
			"price":  entry.Listing.Price,
			"points": balance,
		}, "Purchase complete")
	}
}

// CancelListing withdraws the caller's own listing.
func CancelListing(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		listingID, err := strconv.ParseInt(c.Params("listingId"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "Invalid listing id", nil)
		}

		if err := webApp.Market.Cancel(c.Context(), session.UserID, listingID); err != nil {
			switch {
			case errors.Is(err, economy.ErrListingNotFound):
				return utils.SendConflict(c, "This listing no longer exists", nil)
			case errors.Is(err, economy.ErrNotOwned):
				return utils.SendForbidden(c, "You can only cancel your own listings")
			default:
				return utils.SendInternalServerError(c, "Cancel failed")
			}
		}

		return utils.SendSuccess(c, nil, "Listing cancelled")
	}
}
