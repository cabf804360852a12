package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/shared/constants"
)

// WalletModel carries the wallet columns needed to count a user's wallets.
type WalletModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null;size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (WalletModel) TableName() string {
	return constants.TableWallets
}

// DebtModel carries the debt columns needed to count a user's active debts.
type DebtModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;index:idx_debt_user_status,priority:1"`
	Status    string `gorm:"not null;size:20;index:idx_debt_user_status,priority:2"`
	Amount    int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (DebtModel) TableName() string {
	return constants.TableDebts
}
