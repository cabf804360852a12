package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/walletwise/walletwise/internal/domain/quota"
	"github.com/walletwise/walletwise/internal/domain/subscription"
	vo "github.com/walletwise/walletwise/internal/domain/subscription/valueobjects"
	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/models"
	"github.com/walletwise/walletwise/internal/shared/db"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.UserModel{},
		&models.SubscriptionModel{},
		&models.PaymentModel{},
		&models.WalletModel{},
		&models.DebtModel{},
	)
	require.NoError(t, err)

	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, id uint, email string) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.UserModel{ID: id, Email: email, Name: "user"}).Error)
}

func saveTrial(t *testing.T, repo subscription.SubscriptionRepository, userID uint, startedAt time.Time) *subscription.Subscription {
	t.Helper()
	s, err := subscription.NewTrialSubscription(userID, 14, startedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func saveFree(t *testing.T, repo subscription.SubscriptionRepository, userID uint, startedAt time.Time) *subscription.Subscription {
	t.Helper()
	s, err := subscription.NewFreeSubscription(userID, startedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestSubscriptionRepository_CreateAndGet(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSubscriptionRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()

	s, err := subscription.NewTrialSubscription(1, 14, testNow)
	require.NoError(t, err)
	s.SetMetadata(subscription.MetadataSource, subscription.SourceRegistration)

	require.NoError(t, repo.Create(ctx, s))
	require.NotZero(t, s.ID())

	found, err := repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, s.SID(), found.SID())
	assert.Equal(t, vo.PlanPremium, found.Plan())
	assert.Equal(t, vo.StatusTrial, found.Status())
	assert.True(t, found.StartedAt().Equal(testNow))
	require.NotNil(t, found.EndedAt())
	assert.True(t, found.EndedAt().Equal(testNow.AddDate(0, 0, 14)))
	assert.Equal(t, subscription.SourceRegistration, found.Metadata()[subscription.MetadataSource])
	assert.Nil(t, found.Provider())

	missing, err := repo.GetByID(ctx, 9999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSubscriptionRepository_Update(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSubscriptionRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()

	s := saveTrial(t, repo, 1, testNow)
	cancelAt := testNow.Add(48 * time.Hour)
	require.NoError(t, s.Cancel(cancelAt))
	require.NoError(t, repo.Update(ctx, s))

	found, err := repo.GetByIDForUpdate(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusCancelled, found.Status())
	assert.True(t, found.EndedAt().Equal(cancelAt))
	assert.Equal(t, s.Version(), found.Version())

	ghost, err := subscription.ReconstructSubscription(4242, "sub_ghost", 1, nil, nil,
		vo.PlanFree, vo.StatusActive, testNow, nil, nil, 1, testNow, testNow)
	require.NoError(t, err)
	err = repo.Update(ctx, ghost)
	assert.True(t, errors.Is(err, subscription.ErrSubscriptionNotFound))
}

func TestSubscriptionRepository_FindActiveByUserID(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSubscriptionRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()

	t.Run("no records", func(t *testing.T) {
		found, err := repo.FindActiveByUserID(ctx, 1, testNow)
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("running trial is active until its end date", func(t *testing.T) {
		trial := saveTrial(t, repo, 2, testNow)

		found, err := repo.FindActiveByUserID(ctx, 2, testNow.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, trial.ID(), found.ID())

		found, err = repo.FindActiveByUserID(ctx, 2, *trial.EndedAt())
		require.NoError(t, err)
		assert.Nil(t, found, "endedAt equal to now is no longer active")
	})

	t.Run("most recently started record wins", func(t *testing.T) {
		saveFree(t, repo, 3, testNow.Add(-72*time.Hour))
		trial := saveTrial(t, repo, 3, testNow.Add(-time.Hour))

		found, err := repo.FindActiveByUserID(ctx, 3, testNow)
		require.NoError(t, err)
		assert.Equal(t, trial.ID(), found.ID())
	})

	t.Run("equal start times fall back to newest id", func(t *testing.T) {
		saveFree(t, repo, 4, testNow)
		second := saveFree(t, repo, 4, testNow)

		found, err := repo.FindActiveByUserID(ctx, 4, testNow.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, second.ID(), found.ID())
	})

	t.Run("expired and cancelled records are ignored", func(t *testing.T) {
		trial := saveTrial(t, repo, 5, testNow.AddDate(0, 0, -30))
		require.NoError(t, trial.MarkExpired(testNow))
		require.NoError(t, repo.Update(ctx, trial))

		free := saveFree(t, repo, 5, testNow.AddDate(0, 0, -1))
		require.NoError(t, free.Cancel(testNow.Add(-time.Hour)))
		require.NoError(t, repo.Update(ctx, free))

		found, err := repo.FindActiveByUserID(ctx, 5, testNow)
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestSubscriptionRepository_FindExpiredTrials(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSubscriptionRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()

	old := saveTrial(t, repo, 1, testNow.AddDate(0, 0, -20))
	older := saveTrial(t, repo, 2, testNow.AddDate(0, 0, -30))
	saveTrial(t, repo, 3, testNow.AddDate(0, 0, -1))
	saveFree(t, repo, 4, testNow.AddDate(0, 0, -40))

	done := saveTrial(t, repo, 5, testNow.AddDate(0, 0, -25))
	require.NoError(t, done.MarkExpired(testNow))
	require.NoError(t, repo.Update(ctx, done))

	expired, err := repo.FindExpiredTrials(ctx, testNow)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, older.ID(), expired[0].ID())
	assert.Equal(t, old.ID(), expired[1].ID())
}

func TestSubscriptionRepository_History(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSubscriptionRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()

	t.Run("free only user", func(t *testing.T) {
		saveFree(t, repo, 1, testNow)

		hadTrial, err := repo.HasEverHadTrial(ctx, 1)
		require.NoError(t, err)
		assert.False(t, hadTrial)

		hadPremium, err := repo.HasEverHadPremium(ctx, 1)
		require.NoError(t, err)
		assert.False(t, hadPremium)
	})

	t.Run("expired trial still counts", func(t *testing.T) {
		trial := saveTrial(t, repo, 2, testNow.AddDate(0, 0, -20))
		require.NoError(t, trial.MarkExpired(testNow))
		require.NoError(t, repo.Update(ctx, trial))

		hadTrial, err := repo.HasEverHadTrial(ctx, 2)
		require.NoError(t, err)
		assert.True(t, hadTrial)
	})

	t.Run("cancelled trial still counts", func(t *testing.T) {
		trial := saveTrial(t, repo, 3, testNow)
		require.NoError(t, trial.Cancel(testNow.Add(time.Hour)))
		require.NoError(t, repo.Update(ctx, trial))

		hadTrial, err := repo.HasEverHadTrial(ctx, 3)
		require.NoError(t, err)
		assert.True(t, hadTrial)

		hadPremium, err := repo.HasEverHadPremium(ctx, 3)
		require.NoError(t, err)
		assert.True(t, hadPremium)
	})

	t.Run("list is newest first", func(t *testing.T) {
		first := saveFree(t, repo, 6, testNow.Add(-time.Hour))
		second := saveTrial(t, repo, 6, testNow)

		list, err := repo.ListByUserID(ctx, 6)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID(), list[0].ID())
		assert.Equal(t, first.ID(), list[1].ID())
	})
}

func TestSubscriptionRepository_JoinsTransaction(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSubscriptionRepository(gdb, logger.NewNopLogger())
	txMgr := db.NewTransactionManager(gdb)
	ctx := context.Background()

	saveTrial(t, repo, 1, testNow)

	errRollback := errors.New("rollback")
	err := txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		s, err := subscription.NewFreeSubscription(1, testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Create(txCtx, s))
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	list, err := repo.ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1, "only the record created outside the transaction survives")
	assert.Equal(t, vo.StatusTrial, list[0].Status())
}

func TestUserDirectory(t *testing.T) {
	gdb := setupTestDB(t)
	dir := NewUserDirectory(gdb, logger.NewNopLogger())
	txMgr := db.NewTransactionManager(gdb)
	ctx := context.Background()

	createUser(t, gdb, 1, "ada@example.com")

	exists, err := dir.Exists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = dir.Exists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, exists)

	identity, err := dir.GetIdentity(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "ada@example.com", identity.Email)

	identity, err = dir.GetIdentity(ctx, 2)
	assert.NoError(t, err)
	assert.Nil(t, identity)

	err = txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		return dir.LockForUpdate(txCtx, 1)
	})
	assert.NoError(t, err)

	err = txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		return dir.LockForUpdate(txCtx, 2)
	})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestPaymentHistory(t *testing.T) {
	gdb := setupTestDB(t)
	history := NewPaymentHistory(gdb, logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.PaymentModel{UserID: 1, Status: "pending", Amount: 499, Currency: "USD"}).Error)
	require.NoError(t, gdb.Create(&models.PaymentModel{UserID: 1, Status: "failed", Amount: 499, Currency: "USD"}).Error)
	require.NoError(t, gdb.Create(&models.PaymentModel{UserID: 2, Status: "paid", Amount: 499, Currency: "USD", PaidAt: &testNow}).Error)

	paid, err := history.HasSuccessfulPayment(ctx, 1)
	require.NoError(t, err)
	assert.False(t, paid)

	paid, err = history.HasSuccessfulPayment(ctx, 2)
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestResourceCounter(t *testing.T) {
	gdb := setupTestDB(t)
	counter := NewResourceCounter(gdb, logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.WalletModel{UserID: 1, Name: "cash"}).Error)
	deleted := &models.WalletModel{UserID: 1, Name: "old"}
	require.NoError(t, gdb.Create(deleted).Error)
	require.NoError(t, gdb.Delete(deleted).Error)
	require.NoError(t, gdb.Create(&models.WalletModel{UserID: 2, Name: "bank"}).Error)

	wallets, err := counter.CountWallets(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), wallets)

	for _, status := range []string{
		quota.DebtStatusActive,
		quota.DebtStatusPartiallyPaid,
		quota.DebtStatusOverdue,
		quota.DebtStatusPaid,
		quota.DebtStatusCancelled,
	} {
		require.NoError(t, gdb.Create(&models.DebtModel{UserID: 1, Status: status, Amount: 100}).Error)
	}

	debts, err := counter.CountActiveDebts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), debts)

	debts, err = counter.CountActiveDebts(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, debts)
}
