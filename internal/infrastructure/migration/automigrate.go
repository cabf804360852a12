package migration

import (
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the models created by the auto strategy. Users,
// payments, wallets and debts belong to other features; they are included
// so a development database is complete.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.SubscriptionModel{},
		&models.PaymentModel{},
		&models.WalletModel{},
		&models.DebtModel{},
	}
}
