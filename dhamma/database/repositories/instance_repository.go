package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/dhammagenesis/gacha/dhamma/economy"
	"github.com/uptrace/bun"
)

type InstanceRepository interface {
	// CommitDraw applies a finished draw in one atomic step: deduct the draw
	// cost from the owner's balance and insert the freshly minted instance.
	// The randomness already happened outside; this only commits.
	CommitDraw(ctx context.Context, inst *models.CardInstance, cost int64) error
	// Mint inserts an instance without charging anyone (starters, admin).
	Mint(ctx context.Context, inst *models.CardInstance) error
	GetByInstanceID(ctx context.Context, instanceID string) (*models.CardInstance, error)
	GetInventory(ctx context.Context, userID string) ([]*models.CardInstance, error)
	// SellBack destroys an owned instance and credits its sell value in one
	// transaction. Returns the credited amount.
	SellBack(ctx context.Context, userID, instanceID string) (int64, error)
}

type instanceRepository struct {
	db *bun.DB
}

func NewInstanceRepository(db *bun.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) CommitDraw(ctx context.Context, inst *models.CardInstance, cost int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance - ?", cost).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND balance >= ?", inst.OwnerID, cost).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to deduct draw cost: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("draw cost %d: %w", cost, economy.ErrInsufficientFunds)
	}

	now := time.Now()
	inst.Location = models.LocationInventory
	inst.CreatedAt = now
	inst.UpdatedAt = now
	if _, err := tx.NewInsert().Model(inst).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert drawn instance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Draw committed",
		slog.String("type", "db"),
		slog.String("user_id", inst.OwnerID),
		slog.String("instance_id", inst.InstanceID),
		slog.String("rarity", string(inst.Rarity)),
		slog.String("variant", string(inst.Variant)))

	return nil
}

func (r *instanceRepository) Mint(ctx context.Context, inst *models.CardInstance) error {
	now := time.Now()
	inst.Location = models.LocationInventory
	inst.CreatedAt = now
	inst.UpdatedAt = now
	if _, err := r.db.NewInsert().Model(inst).Exec(ctx); err != nil {
		return fmt.Errorf("failed to mint instance: %w", err)
	}
	return nil
}

func (r *instanceRepository) GetByInstanceID(ctx context.Context, instanceID string) (*models.CardInstance, error) {
	inst := new(models.CardInstance)
	err := r.db.NewSelect().
		Model(inst).
		Where("instance_id = ?", instanceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

func (r *instanceRepository) GetInventory(ctx context.Context, userID string) ([]*models.CardInstance, error) {
	var instances []*models.CardInstance
	err := r.db.NewSelect().
		Model(&instances).
		Where("owner_id = ? AND location = ?", userID, models.LocationInventory).
		Order("acquired_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return instances, nil
}

func (r *instanceRepository) SellBack(ctx context.Context, userID, instanceID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	inst := new(models.CardInstance)
	err = tx.NewSelect().
		Model(inst).
		Where("instance_id = ?", instanceID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
		}
		return 0, fmt.Errorf("failed to lock instance: %w", err)
	}
	if inst.OwnerID != userID || inst.Location != models.LocationInventory {
		return 0, fmt.Errorf("instance %s: %w", instanceID, economy.ErrNotOwned)
	}

	value := economy.SellValue(inst.Rarity, inst.Variant)

	result, err := tx.NewDelete().
		Model((*models.CardInstance)(nil)).
		Where("instance_id = ?", instanceID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to consume instance: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return 0, fmt.Errorf("instance %s vanished mid-sale", instanceID)
	}

	if _, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", value).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to credit sell value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return value, nil
}
