package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/application/entitlement"
	"github.com/walletwise/walletwise/internal/infrastructure/config"
	"github.com/walletwise/walletwise/internal/infrastructure/database"
	"github.com/walletwise/walletwise/internal/infrastructure/migration"
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/models"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	sharedConfig "github.com/walletwise/walletwise/internal/shared/config"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Database:     sharedConfig.DatabaseConfig{Driver: "sqlite", Database: ":memory:"},
		Subscription: sharedConfig.SubscriptionConfig{TrialDays: 14},
		Quota: sharedConfig.QuotaConfig{
			WalletLimit:           1,
			DebtLimit:             10,
			ReportDailyLimit:      2,
			ReportWindowHours:     25,
			ReportCacheMaxEntries: 100,
			CounterBackend:        "memory",
		},
		Scheduler: sharedConfig.SchedulerConfig{Timezone: "UTC", TrialExpiryCron: "0 0 * * *"},
	}
}

func setupDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	gdb, err := database.Open(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, gdb.AutoMigrate(migration.AutoMigrateModels()...))
	require.NoError(t, gdb.Create(&models.UserModel{ID: 1, Email: "ada@example.com", Name: "Ada"}).Error)
	return gdb
}

func TestContainer_TrialLifecycle(t *testing.T) {
	cfg := testConfig()
	gdb := setupDB(t, cfg)
	clock := biztime.NewManualClock(start)

	c, err := New(context.Background(), cfg, gdb, clock, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	svc := c.Service()

	_, err = svc.CreateTrialForNewUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, svc.IsPremiumUser(ctx, 1))
	assert.Equal(t, -1, svc.RemainingReportQuota(ctx, 1))

	clock.Advance(15 * 24 * time.Hour)

	// not premium as soon as the trial ends, before reconciliation runs
	assert.False(t, svc.IsPremiumUser(ctx, 1))
	assert.Equal(t, entitlement.TierNone, svc.ResolveTier(ctx, 1))

	result, err := c.ExpireTrials().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.FreeGranted)

	assert.Equal(t, entitlement.TierFree, svc.ResolveTier(ctx, 1))
	require.NoError(t, svc.CheckWalletQuota(ctx, 1))

	require.NoError(t, gdb.Create(&models.WalletModel{UserID: 1, Name: "Cash"}).Error)
	err = svc.CheckWalletQuota(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.IsForbiddenError(err))

	assert.True(t, svc.AllowReportGeneration(ctx, 1))
	assert.True(t, svc.AllowReportGeneration(ctx, 1))
	assert.False(t, svc.AllowReportGeneration(ctx, 1))
	assert.Equal(t, 0, svc.RemainingReportQuota(ctx, 1))

	history, err := svc.ListSubscriptionHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	w := httptest.NewRecorder()
	c.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `walletwise_quota_rejections_total{quota="wallet"} 1`)
	assert.Contains(t, string(body), `walletwise_trial_reconciliation_items_total`)

	assert.Nil(t, c.EventSubscriber())
}

func TestContainer_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Quota.CounterBackend = "redis"
	cfg.Redis = sharedConfig.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}
	gdb := setupDB(t, cfg)

	c, err := New(context.Background(), cfg, gdb, biztime.NewManualClock(start), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	_, err = c.Service().CreateFreeSubscription(ctx, 1)
	require.NoError(t, err)

	assert.True(t, c.Service().AllowReportGeneration(ctx, 1))
	assert.Equal(t, 1, c.Service().RemainingReportQuota(ctx, 1))
	assert.NotEmpty(t, mr.Keys())
	assert.NotNil(t, c.EventSubscriber())
}

func TestContainer_RedisBackendRequiresRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Quota.CounterBackend = "redis"

	_, err := New(context.Background(), cfg, nil, nil, logger.NewNopLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires redis.enabled")
}

func TestContainer_InvalidTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"

	_, err := New(context.Background(), cfg, nil, nil, logger.NewNopLogger())

	require.Error(t, err)
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
