package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletwise/walletwise/internal/domain/quota"
	"github.com/walletwise/walletwise/internal/shared/biztime"
)

func newTestReportLimiter(tier Tier, clock biztime.Clock, counters CounterCache, recorder RejectionRecorder) *ReportLimiter {
	return NewReportLimiter(staticTiers{tier}, counters, biztime.MustLoadZone("UTC"), clock, 10, recorder, nopLogger())
}

func TestReportLimiter_FreeUserDailyCap(t *testing.T) {
	clock := biztime.NewManualClock(testNow)
	recorder := newRecordingRecorder()
	limiter := newTestReportLimiter(TierFree, clock, newMapCounterCache(), recorder)
	ctx := context.Background()

	assert.Equal(t, 10, limiter.Remaining(ctx, 7))
	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(ctx, 7), "call %d", i+1)
	}
	assert.Equal(t, 0, limiter.Remaining(ctx, 7))

	assert.False(t, limiter.Allow(ctx, 7))
	assert.Equal(t, 0, limiter.Remaining(ctx, 7))
	assert.Equal(t, 1, recorder.rejections[quota.KindReport])

	// next day in the reference zone
	clock.Advance(24 * time.Hour)
	assert.True(t, limiter.Allow(ctx, 7))
	assert.Equal(t, 9, limiter.Remaining(ctx, 7))
}

func TestReportLimiter_RejectionRollsBack(t *testing.T) {
	counters := newMapCounterCache()
	limiter := newTestReportLimiter(TierFree, biztime.NewManualClock(testNow), counters, nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		limiter.Allow(ctx, 7)
	}

	used, err := counters.Peek(ctx, limiter.key(7))
	require.NoError(t, err)
	assert.Equal(t, int64(10), used)
}

func TestReportLimiter_DayKeyFollowsReferenceZone(t *testing.T) {
	// 23:30 UTC is already the next day in Jakarta
	clock := biztime.NewManualClock(time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC))
	limiter := NewReportLimiter(staticTiers{TierFree}, newMapCounterCache(), biztime.MustLoadZone("Asia/Jakarta"),
		clock, 10, nil, nopLogger())

	assert.Equal(t, "7|report|2024-06-02", limiter.key(7))
}

func TestReportLimiter_PremiumAndNone(t *testing.T) {
	counters := newMapCounterCache()
	clock := biztime.NewManualClock(testNow)
	ctx := context.Background()

	premium := newTestReportLimiter(TierPremium, clock, counters, nil)
	for i := 0; i < 50; i++ {
		require.True(t, premium.Allow(ctx, 7))
	}
	assert.Equal(t, UnlimitedQuota, premium.Remaining(ctx, 7))
	assert.Empty(t, counters.counts)

	none := newTestReportLimiter(TierNone, clock, counters, nil)
	assert.False(t, none.Allow(ctx, 7))
	assert.Equal(t, 0, none.Remaining(ctx, 7))
}

func TestReportLimiter_CounterFailureDenies(t *testing.T) {
	counters := newMapCounterCache()
	counters.incrementErr = errors.New("redis unavailable")
	limiter := newTestReportLimiter(TierFree, biztime.NewManualClock(testNow), counters, nil)

	assert.False(t, limiter.Allow(context.Background(), 7))
}

func TestReportLimiter_ConcurrentAllowNeverExceedsLimit(t *testing.T) {
	limiter := newTestReportLimiter(TierFree, biztime.NewManualClock(testNow), newMapCounterCache(), nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow(context.Background(), 7) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
}

func TestReportLimiter_Reset(t *testing.T) {
	limiter := newTestReportLimiter(TierFree, biztime.NewManualClock(testNow), newMapCounterCache(), nil)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		limiter.Allow(ctx, 7)
	}

	require.NoError(t, limiter.Reset(ctx, 7))
	assert.Equal(t, 10, limiter.Remaining(ctx, 7))
}
