// Package bootstrap wires infrastructure, repositories and use cases into the
// entitlement engine shared by the server and reconcile commands.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/application/entitlement"
	subscriptionServices "github.com/walletwise/walletwise/internal/application/subscription/services"
	"github.com/walletwise/walletwise/internal/application/subscription/usecases"
	"github.com/walletwise/walletwise/internal/infrastructure/cache"
	"github.com/walletwise/walletwise/internal/infrastructure/config"
	"github.com/walletwise/walletwise/internal/infrastructure/metrics"
	"github.com/walletwise/walletwise/internal/infrastructure/pubsub"
	"github.com/walletwise/walletwise/internal/infrastructure/repository"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	sharedConfig "github.com/walletwise/walletwise/internal/shared/config"
	"github.com/walletwise/walletwise/internal/shared/db"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

const redisPingTimeout = 5 * time.Second

// Container holds the wired engine and the infrastructure it owns.
// Close releases the redis connection; the database is owned by the caller.
type Container struct {
	cfg   *config.Config
	db    *gorm.DB
	log   logger.Interface
	redis *redis.Client

	zone     biztime.Zone
	clock    biztime.Clock
	metrics  *metrics.EngineMetrics
	eventBus *pubsub.RedisSubscriptionEventBus

	service      *entitlement.Service
	expireTrials *usecases.ExpireTrialsUseCase
}

// New builds the container. A nil clock selects the system clock.
func New(ctx context.Context, cfg *config.Config, database *gorm.DB, clock biztime.Clock, log logger.Interface) (*Container, error) {
	zone, err := biztime.LoadZone(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
	}
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	if cfg.Quota.CounterBackend == "redis" && !cfg.Redis.Enabled {
		return nil, fmt.Errorf("quota.counter_backend redis requires redis.enabled")
	}

	c := &Container{
		cfg:   cfg,
		db:    database,
		log:   log,
		zone:  zone,
		clock: clock,
	}

	if cfg.Redis.Enabled {
		client, err := newRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		c.redis = client
		c.eventBus = pubsub.NewRedisSubscriptionEventBus(client, log.Named("event-bus"))
		log.Infow("redis connected", "addr", cfg.Redis.GetAddr(), "db", cfg.Redis.DB)
	}

	c.metrics = metrics.NewEngineMetrics(metrics.NewRegistry())

	c.wire()

	return c, nil
}

func newRedisClient(ctx context.Context, cfg *sharedConfig.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.GetAddr(), err)
	}
	return client, nil
}

func (c *Container) wire() {
	log := c.log

	subscriptionRepo := repository.NewSubscriptionRepository(c.db, log.Named("subscription-repo"))
	directory := repository.NewUserDirectory(c.db, log.Named("user-directory"))
	payments := repository.NewPaymentHistory(c.db, log.Named("payment-history"))
	resources := repository.NewResourceCounter(c.db, log.Named("resource-counter"))
	txMgr := db.NewTransactionManager(c.db)

	var publisher usecases.EventPublisher = pubsub.NewNoopEventPublisher(log)
	if c.eventBus != nil {
		publisher = c.eventBus
	}

	trialDays := c.cfg.Subscription.TrialDays
	ucLog := log.Named("subscription")

	getActive := usecases.NewGetActiveSubscriptionUseCase(subscriptionRepo, c.clock, ucLog)
	createFree := usecases.NewCreateFreeSubscriptionUseCase(subscriptionRepo, directory, txMgr, publisher, c.clock, ucLog)
	eligibility := subscriptionServices.NewTrialEligibilityChecker(subscriptionRepo, payments, ucLog)
	createTrialForNewUser := usecases.NewCreateTrialForNewUserUseCase(subscriptionRepo, directory, txMgr, publisher, c.clock, trialDays, ucLog)
	createTrialSelfService := usecases.NewCreateTrialSelfServiceUseCase(subscriptionRepo, directory, eligibility, txMgr, publisher, c.clock, trialDays, ucLog)
	cancel := usecases.NewCancelSubscriptionUseCase(subscriptionRepo, directory, createFree, txMgr, publisher, c.clock, ucLog)
	history := usecases.NewListSubscriptionHistoryUseCase(subscriptionRepo, ucLog)

	c.expireTrials = usecases.NewExpireTrialsUseCase(
		subscriptionRepo, directory, createFree, txMgr, publisher, c.metrics, c.clock, log.Named("trial-reconciliation"),
	)

	quotaLog := log.Named("entitlement")
	gate := entitlement.NewGate(getActive, c.clock, quotaLog)
	q := c.cfg.Quota

	c.service = entitlement.NewService(entitlement.ServiceDeps{
		GetActive:              getActive,
		CreateTrialForNewUser:  createTrialForNewUser,
		CreateTrialSelfService: createTrialSelfService,
		CreateFree:             createFree,
		Cancel:                 cancel,
		History:                history,
		Gate:                   gate,
		Wallets:                entitlement.NewWalletLimiter(gate, resources, q.WalletLimit, c.metrics, quotaLog),
		Debts:                  entitlement.NewDebtLimiter(gate, resources, q.DebtLimit, c.metrics, quotaLog),
		Reports: entitlement.NewReportLimiter(
			gate, c.newCounterCache(), c.zone, c.clock, q.ReportDailyLimit, c.metrics, quotaLog,
		),
	})
}

func (c *Container) newCounterCache() entitlement.CounterCache {
	ttl := time.Duration(c.cfg.Quota.ReportWindowHours) * time.Hour
	log := c.log.Named("counter-cache")

	if c.cfg.Quota.CounterBackend == "redis" {
		return cache.NewRedisCounterCache(c.redis, ttl, log)
	}
	return cache.NewMemoryCounterCache(c.cfg.Quota.ReportCacheMaxEntries, ttl, log)
}

// Service is the engine's public contract.
func (c *Container) Service() *entitlement.Service {
	return c.service
}

// ExpireTrials is the trial reconciliation job.
func (c *Container) ExpireTrials() *usecases.ExpireTrialsUseCase {
	return c.expireTrials
}

func (c *Container) Zone() biztime.Zone {
	return c.zone
}

func (c *Container) Clock() biztime.Clock {
	return c.clock
}

// MetricsHandler serves the engine's prometheus registry.
func (c *Container) MetricsHandler() http.Handler {
	return c.metrics.Handler()
}

// EventSubscriber returns the cross-instance event bus, or nil when redis is
// disabled.
func (c *Container) EventSubscriber() pubsub.SubscriptionEventSubscriber {
	if c.eventBus == nil {
		return nil
	}
	return c.eventBus
}

func (c *Container) Close() error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
