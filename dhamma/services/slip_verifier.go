package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/config"
	"github.com/dhammagenesis/gacha/dhamma/economy/topup"
)

const defaultEasySlipURL = "https://developer.easyslip.com/api/v1/verify"

// EasySlipVerifier checks bank transfer slips against the EasySlip API.
type EasySlipVerifier struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ topup.SlipVerifier = (*EasySlipVerifier)(nil)

func NewEasySlipVerifier(endpoint, token string) *EasySlipVerifier {
	if endpoint == "" {
		endpoint = defaultEasySlipURL
	}
	return &EasySlipVerifier{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: config.SlipVerifyTimeout},
	}
}

type easySlipRequest struct {
	Image string `json:"image"`
}

type easySlipResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Success  bool    `json:"success"`
		TransRef string  `json:"transRef"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date"`
	} `json:"data"`
}

// Verify sends the slip image to EasySlip and returns the bank's view of the
// transfer. The image is posted base64-encoded; the filename is only used in
// error context.
func (v *EasySlipVerifier) Verify(ctx context.Context, image []byte, filename string) (*topup.SlipResult, error) {
	payload, err := json.Marshal(easySlipRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode slip request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build slip request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slip verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var body easySlipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode slip response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !body.Data.Success {
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("slip %s rejected: %s", filename, msg)
	}

	result := &topup.SlipResult{
		TransRef:  body.Data.TransRef,
		AmountTHB: int64(body.Data.Amount),
	}
	if body.Data.Date != "" {
		if ts, err := time.Parse(time.RFC3339, body.Data.Date); err == nil {
			result.Timestamp = ts
		}
	}
	return result, nil
}
