package entitlement

import (
	"context"
	"fmt"

	"github.com/walletwise/walletwise/internal/domain/quota"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// TierResolver resolves a user's current tier.
type TierResolver interface {
	ResolveTier(ctx context.Context, userID uint) Tier
}

// RejectionRecorder counts quota rejections.
type RejectionRecorder interface {
	RecordQuotaRejection(kind quota.Kind)
}

type noopRejectionRecorder struct{}

func (noopRejectionRecorder) RecordQuotaRejection(quota.Kind) {}

// CountLimiter caps how many resources of one kind a FREE user may hold at
// once. The count is read at the moment of the check, so two concurrent
// creates can both pass.
type CountLimiter struct {
	kind     quota.Kind
	tiers    TierResolver
	count    func(ctx context.Context, userID uint) (int64, error)
	limit    int
	recorder RejectionRecorder
	logger   logger.Interface
}

// NewWalletLimiter limits the number of wallets a FREE user owns.
func NewWalletLimiter(tiers TierResolver, counter quota.WalletCounter, limit int, recorder RejectionRecorder, logger logger.Interface) *CountLimiter {
	return newCountLimiter(quota.KindWallet, tiers, counter.CountWallets, limit, recorder, logger)
}

// NewDebtLimiter limits the number of non-terminal debts of a FREE user.
func NewDebtLimiter(tiers TierResolver, counter quota.DebtCounter, limit int, recorder RejectionRecorder, logger logger.Interface) *CountLimiter {
	return newCountLimiter(quota.KindDebt, tiers, counter.CountActiveDebts, limit, recorder, logger)
}

func newCountLimiter(
	kind quota.Kind,
	tiers TierResolver,
	count func(ctx context.Context, userID uint) (int64, error),
	limit int,
	recorder RejectionRecorder,
	logger logger.Interface,
) *CountLimiter {
	if recorder == nil {
		recorder = noopRejectionRecorder{}
	}
	return &CountLimiter{
		kind:     kind,
		tiers:    tiers,
		count:    count,
		limit:    limit,
		recorder: recorder,
		logger:   logger,
	}
}

// Check returns nil when the user may create one more resource and a
// forbidden error when the quota is exhausted. Premium users are never
// counted.
func (l *CountLimiter) Check(ctx context.Context, userID uint) error {
	switch l.tiers.ResolveTier(ctx, userID) {
	case TierPremium:
		return nil
	case TierNone:
		l.recorder.RecordQuotaRejection(l.kind)
		return errors.NewForbiddenError(fmt.Sprintf("%s quota unavailable without an active subscription", l.kind))
	}

	current, err := l.count(ctx, userID)
	if err != nil {
		l.logger.Errorw("failed to count resources", "quota", l.kind, "user_id", userID, "error", err)
		return fmt.Errorf("failed to count %s resources: %w", l.kind, err)
	}

	if current >= int64(l.limit) {
		l.recorder.RecordQuotaRejection(l.kind)
		l.logger.Infow("quota exceeded",
			"quota", l.kind,
			"user_id", userID,
			"current", current,
			"limit", l.limit,
		)
		return errors.NewForbiddenError(
			fmt.Sprintf("%s limit reached for the free plan", l.kind),
			fmt.Sprintf("limit=%d current=%d", l.limit, current),
		)
	}

	return nil
}

// Limit returns the FREE tier cap.
func (l *CountLimiter) Limit() int {
	return l.limit
}
