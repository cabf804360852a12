package models

import (
	"time"

	"github.com/walletwise/walletwise/internal/shared/constants"
)

// PaymentModel is the subset of the payments table consulted for trial
// eligibility.
type PaymentModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;index:idx_payment_user_status,priority:1"`
	Status    string `gorm:"not null;size:20;index:idx_payment_user_status,priority:2"`
	Amount    int64  `gorm:"not null"`
	Currency  string `gorm:"not null;size:3"`
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PaymentModel) TableName() string {
	return constants.TablePayments
}
