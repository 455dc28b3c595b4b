package topup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/database/repositories"
	"github.com/dhammagenesis/gacha/dhamma/economy"
)

// Package is one purchasable top-up tier, priced in THB.
type Package struct {
	PriceTHB int64 `json:"price_thb"`
	Points   int64 `json:"points"`
	Bonus    int64 `json:"bonus"`
}

// Packages lists the tiers in ascending price order.
var Packages = []Package{
	{PriceTHB: 50, Points: 5_000, Bonus: 0},
	{PriceTHB: 100, Points: 11_000, Bonus: 1_000},
	{PriceTHB: 300, Points: 35_000, Bonus: 5_000},
	{PriceTHB: 500, Points: 60_000, Bonus: 10_000},
	{PriceTHB: 1000, Points: 130_000, Bonus: 30_000},
}

// RedeemCodes maps promo codes to their JDH reward. Each code works once per
// account.
var RedeemCodes = map[string]int64{
	"SATHU99": 999,
}

// SlipResult is the verified content of a bank transfer slip.
type SlipResult struct {
	TransRef  string
	AmountTHB int64
	Timestamp time.Time
}

// SlipVerifier checks a payment slip image against the bank. Implemented by
// the EasySlip client; tests substitute a stub.
type SlipVerifier interface {
	Verify(ctx context.Context, image []byte, filename string) (*SlipResult, error)
}

// SlipArchiver stores the raw slip image for audit. Archive failure is logged
// but never blocks a credit.
type SlipArchiver interface {
	Archive(ctx context.Context, transRef string, image []byte) (string, error)
}

type Manager struct {
	topups   repositories.TopUpRepository
	verifier SlipVerifier
	archiver SlipArchiver
}

func NewManager(topups repositories.TopUpRepository, verifier SlipVerifier, archiver SlipArchiver) *Manager {
	return &Manager{topups: topups, verifier: verifier, archiver: archiver}
}

// PackageByPrice looks up a tier by its THB price.
func PackageByPrice(priceTHB int64) (Package, bool) {
	for _, p := range Packages {
		if p.PriceTHB == priceTHB {
			return p, true
		}
	}
	return Package{}, false
}

// VerifyAndCredit runs the full top-up flow: verify the slip with the bank,
// check the transferred amount covers the selected package, then credit
// points + bonus exactly once keyed on the bank's transaction reference.
// economy.ErrDuplicateProof when the same slip is submitted again.
func (m *Manager) VerifyAndCredit(ctx context.Context, userID string, packagePrice int64, image []byte, filename string) (*models.TopUp, error) {
	pkg, ok := PackageByPrice(packagePrice)
	if !ok {
		return nil, fmt.Errorf("unknown top-up package %d THB", packagePrice)
	}

	result, err := m.verifier.Verify(ctx, image, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", economy.ErrVerificationFailed, err)
	}
	if result.TransRef == "" {
		return nil, fmt.Errorf("%w: slip has no transaction reference", economy.ErrVerificationFailed)
	}
	if result.AmountTHB < pkg.PriceTHB {
		return nil, fmt.Errorf("%w: transferred %d THB, package costs %d THB",
			economy.ErrVerificationFailed, result.AmountTHB, pkg.PriceTHB)
	}

	var slipKey string
	if m.archiver != nil {
		slipKey, err = m.archiver.Archive(ctx, result.TransRef, image)
		if err != nil {
			slog.Warn("Slip archive failed, crediting anyway",
				slog.String("trans_ref", result.TransRef),
				slog.Any("error", err))
			slipKey = ""
		}
	}

	verifiedAt := result.Timestamp
	if verifiedAt.IsZero() {
		verifiedAt = time.Now()
	}

	record := &models.TopUp{
		UserID:       userID,
		TransRef:     result.TransRef,
		AmountTHB:    result.AmountTHB,
		PackagePrice: pkg.PriceTHB,
		Points:       pkg.Points,
		Bonus:        pkg.Bonus,
		SlipKey:      slipKey,
		VerifiedAt:   verifiedAt,
	}
	if err := m.topups.ApplyVerified(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RedeemCode grants a promo reward once per user per code. Unknown codes fail
// verification; reused codes fail with economy.ErrDuplicateProof.
func (m *Manager) RedeemCode(ctx context.Context, userID, code string) (int64, error) {
	points, ok := RedeemCodes[code]
	if !ok {
		return 0, fmt.Errorf("%w: unknown code", economy.ErrVerificationFailed)
	}
	if err := m.topups.Redeem(ctx, userID, code, points); err != nil {
		return 0, err
	}
	return points, nil
}

// History returns the user's completed top-ups, newest first.
func (m *Manager) History(ctx context.Context, userID string) ([]*models.TopUp, error) {
	return m.topups.GetByUser(ctx, userID)
}
