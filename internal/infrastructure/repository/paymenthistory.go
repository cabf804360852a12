package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/domain/payment"
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/models"
	"github.com/walletwise/walletwise/internal/shared/db"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// PaymentHistory answers trial-eligibility questions from the payments table.
type PaymentHistory struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPaymentHistory(db *gorm.DB, logger logger.Interface) *PaymentHistory {
	return &PaymentHistory{
		db:     db,
		logger: logger,
	}
}

var _ payment.History = (*PaymentHistory)(nil)

func (h *PaymentHistory) HasSuccessfulPayment(ctx context.Context, userID uint) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, h.db)
	if err := tx.Model(&models.PaymentModel{}).
		Where("user_id = ? AND status = ?", userID, payment.StatusPaid).
		Count(&count).Error; err != nil {
		h.logger.Errorw("failed to check payment history", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check payment history: %w", err)
	}

	return count > 0, nil
}
