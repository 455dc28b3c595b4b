package middleware

import (
	"log/slog"

	"github.com/dhammagenesis/gacha/web/services"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

// AuthRequired ensures the request carries a valid session.
func AuthRequired(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.GetSession(c)
		if err != nil {
			slog.Debug("Auth required: no valid session", slog.String("error", err.Error()))
			return utils.SendUnauthorized(c, "Authentication required")
		}
		if session.UserID == "" {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		c.Locals("user", session)
		return c.Next()
	}
}

// AdminRequired ensures the session belongs to a configured admin. Must run
// after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractUserSession(c)
		if !ok {
			slog.Warn("Admin required: no user in context")
			return utils.SendForbidden(c, "Access denied")
		}

		if !session.IsAdmin {
			slog.Warn("Admin required: user lacks admin privileges",
				slog.String("user_id", session.UserID))
			return utils.SendForbidden(c, "Admin access required")
		}

		return c.Next()
	}
}

// RequireDurableStore blocks authenticated sessions while the server runs on
// the in-memory fallback store. Guests may keep playing against volatile
// state; a real account must never spend or gain currency that disappears on
// restart. Must run after AuthRequired.
func RequireDurableStore(memoryMode bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !memoryMode {
			return c.Next()
		}
		session, ok := utils.ExtractUserSession(c)
		if ok && !session.Guest {
			slog.Warn("Rejected authenticated request in memory mode",
				slog.String("user_id", session.UserID),
				slog.String("path", c.Path()))
			return utils.SendError(c, fiber.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE",
				"Persistent storage is unavailable, authenticated play is disabled", nil)
		}
		return c.Next()
	}
}

// OptionalAuth adds the session to the context when present but never fails.
func OptionalAuth(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session, err := sessions.GetSession(c); err == nil && session.UserID != "" {
			c.Locals("user", session)
		}
		return c.Next()
	}
}
