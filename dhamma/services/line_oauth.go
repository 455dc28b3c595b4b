package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	lineTokenURL   = "https://api.line.me/oauth2/v2.1/token"
	lineProfileURL = "https://api.line.me/v2/profile"
)

// LineProfile is the subset of the LINE profile the app keeps.
type LineProfile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// LineOAuthService exchanges LINE Login authorization codes for user
// profiles. Enabled reports whether credentials are configured; without them
// the server only issues guest sessions.
type LineOAuthService struct {
	channelID     string
	channelSecret string
	redirectURL   string
	client        *http.Client
}

func NewLineOAuthService(channelID, channelSecret, redirectURL string) *LineOAuthService {
	return &LineOAuthService{
		channelID:     channelID,
		channelSecret: channelSecret,
		redirectURL:   redirectURL,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *LineOAuthService) Enabled() bool {
	return s.channelID != "" && s.channelSecret != ""
}

// ExchangeCode runs the full login handshake: code for access token, then
// token for profile.
func (s *LineOAuthService) ExchangeCode(ctx context.Context, code string) (*LineProfile, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.redirectURL)
	form.Set("client_id", s.channelID)
	form.Set("client_secret", s.channelSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lineTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("no access token in response (status %d)", resp.StatusCode)
	}

	return s.fetchProfile(ctx, token.AccessToken)
}

func (s *LineOAuthService) fetchProfile(ctx context.Context, accessToken string) (*LineProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lineProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	var profile LineProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	if profile.UserID == "" {
		return nil, fmt.Errorf("profile response has no user id (status %d)", resp.StatusCode)
	}
	return &profile, nil
}
