package db

import (
	"gorm.io/gorm"
)

// NotDeleted is a GORM scope that filters out soft-deleted records.
// Use it for Table() queries, which skip gorm's automatic soft delete filter.
//
// Example usage:
//
//	db.Table("wallets").Scopes(db.NotDeleted()).Where("user_id = ?", userID).Count(&count)
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL")
	}
}
