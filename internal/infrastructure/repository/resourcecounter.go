package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/domain/quota"
	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/db"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// ResourceCounter counts wallets and debts owned by the wallet and debt
// features. It reads their tables directly and never writes to them.
type ResourceCounter struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewResourceCounter(db *gorm.DB, logger logger.Interface) *ResourceCounter {
	return &ResourceCounter{
		db:     db,
		logger: logger,
	}
}

var (
	_ quota.WalletCounter = (*ResourceCounter)(nil)
	_ quota.DebtCounter   = (*ResourceCounter)(nil)
)

func (c *ResourceCounter) CountWallets(ctx context.Context, userID uint) (int64, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, c.db)
	if err := tx.Table(constants.TableWallets).
		Scopes(db.NotDeleted()).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		c.logger.Errorw("failed to count wallets", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count wallets: %w", err)
	}

	return count, nil
}

func (c *ResourceCounter) CountActiveDebts(ctx context.Context, userID uint) (int64, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, c.db)
	if err := tx.Table(constants.TableDebts).
		Scopes(db.NotDeleted()).
		Where("user_id = ? AND status IN ?", userID, quota.NonTerminalDebtStatuses).
		Count(&count).Error; err != nil {
		c.logger.Errorw("failed to count active debts", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count active debts: %w", err)
	}

	return count, nil
}
