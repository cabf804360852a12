package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/walletwise/walletwise/internal/domain/quota"
	"github.com/walletwise/walletwise/internal/domain/subscription"
	vo "github.com/walletwise/walletwise/internal/domain/subscription/valueobjects"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func nopLogger() logger.Interface {
	return logger.NewNopLogger()
}

type mockActiveGetter struct {
	calls       int
	ExecuteFunc func(ctx context.Context, userID uint) (*subscription.Subscription, error)
}

func (m *mockActiveGetter) Execute(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	m.calls++
	return m.ExecuteFunc(ctx, userID)
}

func activeGetter(sub *subscription.Subscription, err error) *mockActiveGetter {
	return &mockActiveGetter{
		ExecuteFunc: func(ctx context.Context, userID uint) (*subscription.Subscription, error) {
			return sub, err
		},
	}
}

type staticTiers struct {
	tier Tier
}

func (s staticTiers) ResolveTier(ctx context.Context, userID uint) Tier {
	return s.tier
}

type mockCounter struct {
	n     int64
	err   error
	calls int
}

func (m *mockCounter) CountWallets(ctx context.Context, userID uint) (int64, error) {
	m.calls++
	return m.n, m.err
}

func (m *mockCounter) CountActiveDebts(ctx context.Context, userID uint) (int64, error) {
	m.calls++
	return m.n, m.err
}

type recordingRecorder struct {
	rejections map[quota.Kind]int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{rejections: make(map[quota.Kind]int)}
}

func (r *recordingRecorder) RecordQuotaRejection(kind quota.Kind) {
	r.rejections[kind]++
}

// mapCounterCache is a CounterCache without expiry.
type mapCounterCache struct {
	mu           sync.Mutex
	counts       map[string]int64
	incrementErr error
}

func newMapCounterCache() *mapCounterCache {
	return &mapCounterCache{counts: make(map[string]int64)}
}

func (c *mapCounterCache) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incrementErr != nil {
		return 0, c.incrementErr
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *mapCounterCache) Decrement(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]--
	return nil
}

func (c *mapCounterCache) Peek(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key], nil
}

func (c *mapCounterCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, key)
	return nil
}

func fixture(plan vo.Plan, status vo.SubscriptionStatus, endedAt *time.Time) *subscription.Subscription {
	s, err := subscription.ReconstructSubscription(1, "sub_fixture", 7, nil, nil, plan, status,
		testNow.AddDate(0, 0, -1), endedAt, nil, 1, testNow, testNow)
	if err != nil {
		panic(err)
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
