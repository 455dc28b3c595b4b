package handlers

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/dhammagenesis/gacha/dhamma/economy/topup"
	"github.com/dhammagenesis/gacha/web/utils"
	"github.com/gofiber/fiber/v2"
)

type verifySlipRequest struct {
	// Image is the slip photo, base64-encoded (optionally a data URL).
	Image string `json:"image"`
	// Amount is the THB price of the selected package.
	Amount int64 `json:"amount"`
}

type redeemRequest struct {
	Code string `json:"code"`
}

type packageView struct {
	PriceTHB int64  `json:"priceThb"`
	Points   int64  `json:"points"`
	Bonus    int64  `json:"bonus"`
	QRCode   string `json:"qrCode,omitempty"`
}

// TopUpPackages lists the purchasable tiers with their PromptPay QR codes.
func TopUpPackages(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		views := make([]packageView, 0, len(topup.Packages))
		for _, p := range topup.Packages {
			view := packageView{
				PriceTHB: p.PriceTHB,
				Points:   p.Points,
				Bonus:    p.Bonus,
			}
			if webApp.PromptPay.MerchantID() != "" {
				view.QRCode = webApp.PromptPay.QRCodeURL(p.PriceTHB)
			}
			views = append(views, view)
		}
		return utils.SendSuccess(c, views, "")
	}
}

// VerifySlip validates a payment slip and credits the package once.
func VerifySlip(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		var req verifySlipRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.Image == "" {
			return utils.SendBadRequest(c, "No image provided", nil)
		}

		image, err := decodeSlipImage(req.Image)
		if err != nil {
			return utils.SendBadRequest(c, "Slip image is not valid base64", nil)
		}

		record, err := webApp.TopUp.VerifyAndCredit(c.Context(), session.UserID, req.Amount, image, "slip.jpg")
		if err != nil {
			switch {
			case errors.Is(err, economy.ErrDuplicateProof):
				return utils.SendConflict(c, "This slip was already used", nil)
			case errors.Is(err, economy.ErrVerificationFailed):
				return utils.SendBadRequest(c, err.Error(), nil)
			default:
				return utils.SendInternalServerError(c, "Top-up failed")
			}
		}

		balance, err := webApp.Users.GetBalance(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read balance")
		}

		return utils.SendSuccess(c, fiber.Map{
			"transRef": record.TransRef,
			"amount":   record.AmountTHB,
			"credited": record.Points + record.Bonus,
			"points":   balance,
		}, "Top-up complete")
	}
}

// RedeemCode grants a promo-code reward once per account.
func RedeemCode(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		var req redeemRequest
		if err := c.BodyParser(&req); err != nil || req.Code == "" {
			return utils.SendBadRequest(c, "Code required", nil)
		}

		points, err := webApp.TopUp.RedeemCode(c.Context(), session.UserID, strings.ToUpper(strings.TrimSpace(req.Code)))
		if err != nil {
			switch {
			case errors.Is(err, economy.ErrDuplicateProof):
				return utils.SendConflict(c, "You already redeemed this code", nil)
			case errors.Is(err, economy.ErrVerificationFailed):
				return utils.SendBadRequest(c, "Unknown code", nil)
			default:
				return utils.SendInternalServerError(c, "Redeem failed")
			}
		}

		balance, err := webApp.Users.GetBalance(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read balance")
		}

		return utils.SendSuccess(c, fiber.Map{
			"credited": points,
			"points":   balance,
		}, "Code redeemed")
	}
}

// TopUpHistory lists the caller's completed top-ups, newest first.
func TopUpHistory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := webApp.session(c)
		if !ok {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		records, err := webApp.TopUp.History(c.Context(), session.UserID)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load history")
		}

		type topUpView struct {
			TransRef   string `json:"transRef"`
			AmountTHB  int64  `json:"amountThb"`
			Credited   int64  `json:"credited"`
			VerifiedAt int64  `json:"verifiedAt"`
		}
		views := make([]topUpView, 0, len(records))
		for _, r := range records {
			views = append(views, topUpView{
				TransRef:   r.TransRef,
				AmountTHB:  r.AmountTHB,
				Credited:   r.Points + r.Bonus,
				VerifiedAt: r.VerifiedAt.UnixMilli(),
			})
		}
		return utils.SendSuccess(c, views, "")
	}
}

// decodeSlipImage accepts plain base64 or a data URL.
func decodeSlipImage(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}
