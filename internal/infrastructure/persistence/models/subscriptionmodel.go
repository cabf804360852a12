package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/walletwise/walletwise/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions.
// Records are append-only history; the active record is derived at read time.
type SubscriptionModel struct {
	ID                uint       `gorm:"primarykey"`
	SID               string     `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	UserID            uint       `gorm:"not null;index:idx_user_started,priority:1"`
	Provider          *string    `gorm:"size:50"`
	ProviderReference *string    `gorm:"size:255"`
	Plan              string     `gorm:"not null;size:20"`
	Status            string     `gorm:"not null;size:20;index:idx_status_ended,priority:1"`
	StartedAt         time.Time  `gorm:"not null;index:idx_user_started,priority:2"`
	EndedAt           *time.Time `gorm:"index:idx_status_ended,priority:2"`
	Metadata          datatypes.JSON
	Version           int `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}
