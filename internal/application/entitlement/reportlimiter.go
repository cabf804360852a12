package entitlement

import (
	"context"
	"fmt"

	"github.com/walletwise/walletwise/internal/domain/quota"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// UnlimitedQuota is reported as the remaining quota of premium users.
const UnlimitedQuota = -1

// CounterCache is a keyed counter whose entries expire a fixed time after
// their last write. Increment must be atomic per key.
type CounterCache interface {
	Increment(ctx context.Context, key string) (int64, error)
	Decrement(ctx context.Context, key string) error
	Peek(ctx context.Context, key string) (int64, error)
	Invalidate(ctx context.Context, key string) error
}

// ReportLimiter caps report generations per reference-timezone day for
// FREE users. The window key is the calendar date, so the quota resets at
// midnight in the reference zone without a reset job.
type ReportLimiter struct {
	tiers    TierResolver
	counters CounterCache
	zone     biztime.Zone
	clock    biztime.Clock
	limit    int
	recorder RejectionRecorder
	logger   logger.Interface
}

func NewReportLimiter(
	tiers TierResolver,
	counters CounterCache,
	zone biztime.Zone,
	clock biztime.Clock,
	limit int,
	recorder RejectionRecorder,
	logger logger.Interface,
) *ReportLimiter {
	if recorder == nil {
		recorder = noopRejectionRecorder{}
	}
	return &ReportLimiter{
		tiers:    tiers,
		counters: counters,
		zone:     zone,
		clock:    clock,
		limit:    limit,
		recorder: recorder,
		logger:   logger,
	}
}

// Allow checks and consumes one report generation in a single call. A
// consumption that would exceed the limit is rolled back.
func (l *ReportLimiter) Allow(ctx context.Context, userID uint) bool {
	switch l.tiers.ResolveTier(ctx, userID) {
	case TierPremium:
		return true
	case TierNone:
		l.recorder.RecordQuotaRejection(quota.KindReport)
		return false
	}

	key := l.key(userID)
	count, err := l.counters.Increment(ctx, key)
	if err != nil {
		l.logger.Errorw("failed to increment report counter, denying", "user_id", userID, "key", key, "error", err)
		return false
	}

	if count > int64(l.limit) {
		if err := l.counters.Decrement(ctx, key); err != nil {
			l.logger.Warnw("failed to roll back report counter", "user_id", userID, "key", key, "error", err)
		}
		l.recorder.RecordQuotaRejection(quota.KindReport)
		l.logger.Infow("report quota exceeded", "user_id", userID, "limit", l.limit)
		return false
	}

	return true
}

// Remaining reports max(0, limit - used) for today without consuming
// anything. Premium users get UnlimitedQuota, users without an active
// subscription get 0.
func (l *ReportLimiter) Remaining(ctx context.Context, userID uint) int {
	switch l.tiers.ResolveTier(ctx, userID) {
	case TierPremium:
		return UnlimitedQuota
	case TierNone:
		return 0
	}

	used, err := l.counters.Peek(ctx, l.key(userID))
	if err != nil {
		l.logger.Errorw("failed to read report counter", "user_id", userID, "error", err)
		return 0
	}

	remaining := int64(l.limit) - used
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// Reset clears today's counter for the user.
func (l *ReportLimiter) Reset(ctx context.Context, userID uint) error {
	return l.counters.Invalidate(ctx, l.key(userID))
}

func (l *ReportLimiter) key(userID uint) string {
	return fmt.Sprintf("%d|%s|%s", userID, quota.KindReport, l.zone.DateKey(l.clock.Now()))
}
