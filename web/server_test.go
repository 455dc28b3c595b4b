package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dhammagenesis/gacha/dhamma"
	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/dhammagenesis/gacha/dhamma/economy/gacha"
	"github.com/dhammagenesis/gacha/dhamma/economy/market"
	"github.com/dhammagenesis/gacha/dhamma/economy/topup"
	"github.com/dhammagenesis/gacha/dhamma/services"
	"github.com/dhammagenesis/gacha/web/handlers"
	webmodels "github.com/dhammagenesis/gacha/web/models"
	webservices "github.com/dhammagenesis/gacha/web/services"
)

// memoryModeServer builds the full app on the in-memory fallback store, the
// configuration the server degrades to when Postgres is unreachable.
func memoryModeServer(t *testing.T) (*fiber.App, *repositories.MemoryStore, *webservices.SessionService) {
	t.Helper()

	store := repositories.NewMemoryStore()
	if err := store.Seed(context.Background(), database.MasterCatalog()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	cfg := &dhamma.Config{}
	cfg.Web.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Web.SessionSecret = "test-secret"

	sessions := webservices.NewSessionService(cfg.Web.SessionSecret, false)
	webApp := &handlers.WebApp{
		Config:    cfg,
		DB:        nil, // memory mode
		Users:     store,
		Instances: store,
		Gacha:     gacha.NewManager(store, store),
		Market:    market.NewManager(store),
		TopUp:     topup.NewManager(store, nil, nil),
		Catalog:   services.NewCatalogService(store),
		PromptPay: services.NewPromptPayService(""),
		LineOAuth: services.NewLineOAuthService("channel", "secret", "http://localhost/cb"),
		Sessions:  sessions,
		Version:   "test",
	}
	return NewServer(webApp), store, sessions
}

func sessionCookie(t *testing.T, sessions *webservices.SessionService, userID string, guest bool) string {
	t.Helper()
	data, err := json.Marshal(&webmodels.UserSession{
		UserID:      userID,
		DisplayName: "Tester",
		Guest:       guest,
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("marshal session error = %v", err)
	}
	token, err := sessions.Sign(data)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return config.SessionCookieName + "=" + token
}

func TestMemoryModeRejectsLineLogin(t *testing.T) {
	app, _, _ := memoryModeServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/line",
		strings.NewReader(`{"code":"abc"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("LINE login in memory mode: status = %d, want 503", resp.StatusCode)
	}

	var body webmodels.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body error = %v", err)
	}
	if body.Error == nil || body.Error.Code != "PERSISTENCE_UNAVAILABLE" {
		t.Errorf("error = %+v, want code PERSISTENCE_UNAVAILABLE", body.Error)
	}
}

func TestMemoryModeRejectsAuthenticatedPlay(t *testing.T) {
	app, store, sessions := memoryModeServer(t)
	ctx := context.Background()

	// An account that signed in before the database went away.
	if _, _, err := store.GetOrCreate(ctx, "U_line", "Tester", "", nil); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/gacha/draw", nil)
	req.Header.Set("Cookie", sessionCookie(t, sessions, "U_line", false))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("authenticated draw in memory mode: status = %d, want 503", resp.StatusCode)
	}

	// Nothing was spent and nothing was minted on the volatile store.
	balance, err := store.GetBalance(ctx, "U_line")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != economy.StartingBalance {
		t.Errorf("balance = %d, want untouched %d", balance, economy.StartingBalance)
	}
	inventory, _ := store.GetInventory(ctx, "U_line")
	if len(inventory) != 0 {
		t.Errorf("inventory = %d cards, want 0", len(inventory))
	}
}

func TestMemoryModeAllowsGuestPlay(t *testing.T) {
	app, store, sessions := memoryModeServer(t)
	ctx := context.Background()

	if _, _, err := store.GetOrCreate(ctx, "guest_abc", "Guest", "", nil); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/gacha/draw", nil)
	req.Header.Set("Cookie", sessionCookie(t, sessions, "guest_abc", true))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest draw in memory mode: status = %d, want 200", resp.StatusCode)
	}

	balance, err := store.GetBalance(ctx, "guest_abc")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != economy.StartingBalance-economy.DrawCost {
		t.Errorf("balance = %d, want %d", balance, economy.StartingBalance-economy.DrawCost)
	}
}
