package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/web/models"
	"github.com/gofiber/fiber/v2"
)

// SessionService issues and validates HMAC-signed session cookies. Stateless:
// the cookie carries the whole session, the server only holds the key.
type SessionService struct {
	key        []byte
	production bool
}

func NewSessionService(sessionSecret string, production bool) *SessionService {
	return &SessionService{
		key:        []byte(sessionSecret),
		production: production,
	}
}

// CreateSession signs the session and sets the cookie.
func (s *SessionService) CreateSession(c *fiber.Ctx, userSession *models.UserSession) error {
	if userSession.ExpiresAt.IsZero() {
		userSession.ExpiresAt = time.Now().Add(config.SessionTimeout)
	}

	sessionData, err := json.Marshal(userSession)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	signedSession, err := s.Sign(sessionData)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     config.SessionCookieName,
		Value:    signedSession,
		Path:     "/",
		MaxAge:   int(config.SessionTimeout / time.Second),
		Secure:   s.production,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	slog.Info("Session created",
		slog.String("user_id", userSession.UserID),
		slog.Bool("guest", userSession.Guest),
		slog.Bool("is_admin", userSession.IsAdmin))

	return nil
}

// GetSession retrieves and validates the session from the request cookie.
func (s *SessionService) GetSession(c *fiber.Ctx) (*models.UserSession, error) {
	sessionCookie := c.Cookies(config.SessionCookieName)
	if sessionCookie == "" {
		return nil, fmt.Errorf("no session cookie found")
	}

	sessionData, err := s.VerifyAndDecode(sessionCookie)
	if err != nil {
		return nil, fmt.Errorf("invalid session signature: %w", err)
	}

	var userSession models.UserSession
	if err := json.Unmarshal(sessionData, &userSession); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(userSession.ExpiresAt) {
		s.DestroySession(c)
		return nil, fmt.Errorf("session expired")
	}

	return &userSession, nil
}

// DestroySession removes the session cookie.
func (s *SessionService) DestroySession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.production,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// Sign signs data with HMAC-SHA256 and base64-encodes data+signature.
func (s *SessionService) Sign(data []byte) (string, error) {
	if len(s.key) == 0 {
		return "", fmt.Errorf("session secret not configured")
	}

	h := hmac.New(sha256.New, s.key)
	h.Write(data)
	signature := h.Sum(nil)

	combined := append(data, signature...)
	return base64.URLEncoding.EncodeToString(combined), nil
}

// VerifyAndDecode checks the signature and returns the original data.
func (s *SessionService) VerifyAndDecode(encodedData string) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, fmt.Errorf("session secret not configured")
	}

	combined, err := base64.URLEncoding.DecodeString(encodedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	if len(combined) < sha256.Size {
		return nil, fmt.Errorf("invalid data length")
	}

	data := combined[:len(combined)-sha256.Size]
	receivedSignature := combined[len(combined)-sha256.Size:]

	h := hmac.New(sha256.New, s.key)
	h.Write(data)
	expectedSignature := h.Sum(nil)

	if !hmac.Equal(receivedSignature, expectedSignature) {
		return nil, fmt.Errorf("signature verification failed")
	}

	return data, nil
}
