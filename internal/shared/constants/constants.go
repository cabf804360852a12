package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderXRequestID = "X-Request-ID"
	HeaderXUserID    = "X-User-ID"

	// Context keys
	ContextKeyUserID = "user_id"

	// Pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Database table names
	TableUsers         = "users"
	TableSubscriptions = "subscriptions"
	TablePayments      = "payments"
	TableWallets       = "wallets"
	TableDebts         = "debts"

	// Redis key prefixes
	RedisKeyPrefix           = "walletwise:"
	RedisQuotaCounterPrefix  = RedisKeyPrefix + "quota:"
	SubscriptionEventChannel = RedisKeyPrefix + "subscription:events"
)
