package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/models"
	"github.com/walletwise/walletwise/internal/shared/db"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// UserDirectory reads the account feature's users table.
type UserDirectory struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUserDirectory(db *gorm.DB, logger logger.Interface) *UserDirectory {
	return &UserDirectory{
		db:     db,
		logger: logger,
	}
}

var _ user.Directory = (*UserDirectory)(nil)

func (d *UserDirectory) Exists(ctx context.Context, userID uint) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, d.db)
	if err := tx.Model(&models.UserModel{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		d.logger.Errorw("failed to check user existence", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return count > 0, nil
}

func (d *UserDirectory) GetIdentity(ctx context.Context, userID uint) (*user.Identity, error) {
	var model models.UserModel

	tx := db.GetTxFromContext(ctx, d.db)
	if err := tx.Select("id", "email", "name").First(&model, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		d.logger.Errorw("failed to get user identity", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user identity: %w", err)
	}

	return &user.Identity{
		ID:    model.ID,
		Email: model.Email,
		Name:  model.Name,
	}, nil
}

// LockForUpdate locks the user row for the rest of the caller's transaction.
func (d *UserDirectory) LockForUpdate(ctx context.Context, userID uint) error {
	var model models.UserModel

	tx := db.GetTxFromContext(ctx, d.db)
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&model, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.ErrUserNotFound
		}
		d.logger.Errorw("failed to lock user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to lock user: %w", err)
	}

	return nil
}
