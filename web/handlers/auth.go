package handlers

import (
	"fmt"
	"log/slog"

	"github.com/dhammagenesis/gacha/dhamma/economy"
	webmodels "github.com/dhammagenesis/gacha/web/models"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type lineLoginRequest struct {
	Code string `json:"code"`
}

type guestLoginRequest struct {
	DisplayName string `json:"displayName"`
}

// LineLogin exchanges a LINE authorization code for a session. The account is
// created on first login with the starting balance and starter cards.
func LineLogin(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Real accounts never play against the volatile store; losing paid
		// balances on restart is worse than refusing the login.
		if webApp.MemoryMode() {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE",
				economy.ErrPersistenceUnavailable.Error()+", sign in as guest to keep playing", nil)
		}
		if !webApp.LineOAuth.Enabled() {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "LINE_DISABLED",
				"LINE login is not configured", nil)
		}

		var req lineLoginRequest
		if err := c.BodyParser(&req); err != nil || req.Code == "" {
			return utils.SendBadRequest(c, "Authorization code missing", nil)
		}

		profile, err := webApp.LineOAuth.ExchangeCode(c.Context(), req.Code)
		if err != nil {
			slog.Warn("LINE login failed", slog.Any("error", err))
			return utils.SendBadRequest(c, "Failed to authenticate with LINE", nil)
		}

		return createAccountSession(webApp, c,
			profile.UserID, profile.DisplayName, profile.PictureURL, false)
	}
}

// GuestLogin issues a throwaway account with a generated id. Guests get the
// same bootstrap grant and play against whatever store the server runs on.
func GuestLogin(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req guestLoginRequest
		_ = c.BodyParser(&req)

		displayName := req.DisplayName
		if displayName == "" {
			displayName = "Guest"
		}

		userID := "guest_" + uuid.NewString()
		return createAccountSession(webApp, c, userID, displayName, "", true)
	}
}

func createAccountSession(webApp *WebApp, c *fiber.Ctx, userID, displayName, avatarURL string, guest bool) error {
	starters := webApp.Gacha.MintStarters(userID)
	user, created, err := webApp.Users.GetOrCreate(c.Context(), userID, displayName, avatarURL, starters)
	if err != nil {
		slog.Error("Account bootstrap failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to initialize account")
	}
	if created {
		slog.Info("Account created",
			slog.String("user_id", userID),
			slog.Bool("guest", guest),
			slog.Int("starter_cards", len(starters)))
	}

	session := &webmodels.UserSession{
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Guest:       guest,
		IsAdmin:     webApp.IsAdminUser(user.UserID),
	}
	if err := webApp.Sessions.CreateSession(c, session); err != nil {
		return utils.SendInternalServerError(c, "Failed to create session")
	}

	return utils.SendSuccess(c, userView{
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Balance:     user.Balance,
		Guest:       guest,
		IsAdmin:     session.IsAdmin,
	}, "Logged in")
}

// Logout destroys the session cookie.
func Logout(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		webApp.Sessions.DestroySession(c)
		return utils.SendSuccess(c, nil, "Logged out")
	}
}

// Me returns the current account with its live balance.
func Me(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		user, err := webApp.Users.GetByUserID(c.Context(), session.UserID)
		if err != nil {
			return utils.SendNotFound(c, fmt.Sprintf("Account %s not found", session.UserID))
		}

		return utils.SendSuccess(c, userView{
			UserID:      user.UserID,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
			Balance:     user.Balance,
			Guest:       session.Guest,
			IsAdmin:     session.IsAdmin,
		}, "")
	}
}
