package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/shared/constants"
)

// UserModel is the subset of the account feature's users table read by
// the subscription engine.
type UserModel struct {
	ID        uint   `gorm:"primarykey"`
	Email     string `gorm:"uniqueIndex;not null;size:255"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string {
	return constants.TableUsers
}
