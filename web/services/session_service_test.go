package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dhammagenesis/gacha/web/models"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	svc := NewSessionService("test-secret", false)

	session := &models.UserSession{
		UserID:      "U123",
		DisplayName: "Tester",
		Guest:       false,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	token, err := svc.Sign(data)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	decoded, err := svc.VerifyAndDecode(token)
	if err != nil {
		t.Fatalf("VerifyAndDecode() error = %v", err)
	}

	var got models.UserSession
	if err := json.Unmarshal(decoded, &got); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if got.UserID != session.UserID || got.DisplayName != session.DisplayName {
		t.Errorf("round trip = %+v, want %+v", got, session)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc := NewSessionService("test-secret", false)

	token, err := svc.Sign([]byte(`{"user_id":"U123"}`))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	// Flip a character inside the token.
	tampered := strings.Replace(token, token[5:6], pick(token[5:6]), 1)
	if _, err := svc.VerifyAndDecode(tampered); err == nil {
		t.Error("VerifyAndDecode() accepted a tampered token")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	token, err := NewSessionService("secret-a", false).Sign([]byte("payload"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if _, err := NewSessionService("secret-b", false).VerifyAndDecode(token); err == nil {
		t.Error("VerifyAndDecode() accepted a token signed with another key")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewSessionService("test-secret", false)

	if _, err := svc.VerifyAndDecode("not-base64!!!"); err == nil {
		t.Error("VerifyAndDecode() accepted invalid base64")
	}
	if _, err := svc.VerifyAndDecode("c2hvcnQ="); err == nil {
		t.Error("VerifyAndDecode() accepted data shorter than a signature")
	}
}

func TestSignRequiresKey(t *testing.T) {
	svc := NewSessionService("", false)
	if _, err := svc.Sign([]byte("payload")); err == nil {
		t.Error("Sign() with empty secret, want error")
	}
}

// pick returns a different character than the one given.
func pick(s string) string {
	if s == "A" {
		return "B"
	}
	return "A"
}
