package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type TopUpRepository interface {
	// ApplyVerified records the verified slip and credits points + bonus in
	// one transaction. The unique trans_ref makes this idempotent: a
	// resubmitted slip fails with economy.ErrDuplicateProof and credits
	// nothing.
	ApplyVerified(ctx context.Context, topup *models.TopUp) error
	// Redeem grants a promo-code reward once per user per code.
	Redeem(ctx context.Context, userID, code string, points int64) error
	GetByUser(ctx context.Context, userID string) ([]*models.TopUp, error)
}

type topUpRepository struct {
	db *bun.DB
}

func NewTopUpRepository(db *bun.DB) TopUpRepository {
	return &topUpRepository{db: db}
}

func (r *topUpRepository) ApplyVerified(ctx context.Context, topup *models.TopUp) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	topup.Status = models.TopUpStatusCompleted
	topup.CreatedAt = time.Now()
	if _, err := tx.NewInsert().Model(topup).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("trans_ref %s: %w", topup.TransRef, economy.ErrDuplicateProof)
		}
		return fmt.Errorf("failed to record top-up: %w", err)
	}

	total := topup.Points + topup.Bonus
	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", total).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", topup.UserID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit top-up: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %s not found", topup.UserID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Top-up credited",
		slog.String("type", "db"),
		slog.String("user_id", topup.UserID),
		slog.String("trans_ref", topup.TransRef),
		slog.Int64("points", total))

	return nil
}

func (r *topUpRepository) Redeem(ctx context.Context, userID, code string, points int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.NewSelect().
		Model((*models.Redemption)(nil)).
		Where("user_id = ? AND code = ?", userID, code).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check redemption: %w", err)
	}
	if exists {
		return fmt.Errorf("code %s: %w", code, economy.ErrDuplicateProof)
	}

	if _, err := tx.NewInsert().
		Model(&models.Redemption{
			UserID:    userID,
			Code:      code,
			Points:    points,
			CreatedAt: time.Now(),
		}).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to record redemption: %w", err)
	}

	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", points).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit redemption: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}

	return tx.Commit()
}

func (r *topUpRepository) GetByUser(ctx context.Context, userID string) ([]*models.TopUp, error) {
	var topups []*models.TopUp
	err := r.db.NewSelect().
		Model(&topups).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get top-ups: %w", err)
	}
	return topups, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
