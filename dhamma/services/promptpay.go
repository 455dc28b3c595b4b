package services

import "fmt"

// PromptPayService builds QR code image URLs for top-up payments via the
// promptpay.io render API.
type PromptPayService struct {
	merchantID string
}

func NewPromptPayService(merchantID string) *PromptPayService {
	return &PromptPayService{merchantID: merchantID}
}

func (s *PromptPayService) MerchantID() string {
	return s.merchantID
}

// QRCodeURL returns a scannable QR image for the given THB amount.
func (s *PromptPayService) QRCodeURL(amountTHB int64) string {
	return fmt.Sprintf("https://promptpay.io/%s/%d.png", s.merchantID, amountTHB)
}
