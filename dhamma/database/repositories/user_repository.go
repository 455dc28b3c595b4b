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

type UserRepository interface {
	// GetOrCreate returns the account for userID, bootstrapping a new one
	// with the starting balance and starter inventory on first sign-in.
	GetOrCreate(ctx context.Context, userID, displayName, avatarURL string, starters []*models.CardInstance) (*models.User, bool, error)
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	// AddBalance applies an atomic credit (delta > 0) or debit (delta < 0).
	// A debit that would drive the balance negative fails with
	// economy.ErrInsufficientFunds and changes nothing.
	AddBalance(ctx context.Context, userID string, delta int64) error
	SetBalance(ctx context.Context, userID string, balance int64) error
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetOrCreate(ctx context.Context, userID, displayName, avatarURL string, starters []*models.CardInstance) (*models.User, bool, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now()
	user = &models.User{
		UserID:      userID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Balance:     economy.StartingBalance,
		Joined:      now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.NewInsert().
		Model(user).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	// A concurrent first sign-in may have won the insert. The loser must not
	// grant a second set of starter cards.
	if affected, _ := result.RowsAffected(); affected == 0 {
		existing := new(models.User)
		if err := tx.NewSelect().
			Model(existing).
			Where("user_id = ?", userID).
			Scan(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to get user: %w", err)
		}
		return existing, false, nil
	}

	for _, inst := range starters {
		inst.OwnerID = userID
		inst.Location = models.LocationInventory
		inst.CreatedAt = now
		inst.UpdatedAt = now
		if _, err := tx.NewInsert().Model(inst).Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to grant starter card: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("New account bootstrapped",
		slog.String("type", "db"),
		slog.String("user_id", userID),
		slog.Int64("starting_balance", user.Balance),
		slog.Int("starter_cards", len(starters)))

	return user, true, nil
}

func (r *userRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.NewSelect().
		Model((*models.User)(nil)).
		Column("balance").
		Where("user_id = ?", userID).
		Scan(ctx, &balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (r *userRepository) AddBalance(ctx context.Context, userID string, delta int64) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND balance + ? >= 0", userID, delta).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		// Distinguish a missing account from a floor violation.
		exists, err := r.db.NewSelect().
			Model((*models.User)(nil)).
			Where("user_id = ?", userID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return fmt.Errorf("user %s not found", userID)
		}
		return fmt.Errorf("debit of %d rejected: %w", -delta, economy.ErrInsufficientFunds)
	}
	return nil
}

func (r *userRepository) SetBalance(ctx context.Context, userID string, balance int64) error {
	if balance < 0 {
		return fmt.Errorf("balance must be non-negative: %w", economy.ErrInsufficientFunds)
	}
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = ?", balance).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}
