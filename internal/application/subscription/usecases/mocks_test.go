package usecases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/walletwise/walletwise/internal/application/subscription/services"
	"github.com/walletwise/walletwise/internal/domain/subscription"
	vo "github.com/walletwise/walletwise/internal/domain/subscription/valueobjects"
	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func nopLogger() logger.Interface {
	return logger.NewNopLogger()
}

// mockSubscriptionRepository keeps records in memory. The *Func fields
// override individual operations.
type mockSubscriptionRepository struct {
	mu     sync.Mutex
	nextID uint
	subs   map[uint]*subscription.Subscription

	createCalls int
	updateCalls int

	CreateFunc             func(ctx context.Context, s *subscription.Subscription) error
	UpdateFunc             func(ctx context.Context, s *subscription.Subscription) error
	FindActiveByUserIDFunc func(ctx context.Context, userID uint, now time.Time) (*subscription.Subscription, error)
	FindExpiredTrialsFunc  func(ctx context.Context, now time.Time) ([]*subscription.Subscription, error)
	HasEverHadTrialFunc    func(ctx context.Context, userID uint) (bool, error)
}

func newMockSubscriptionRepository(subs ...*subscription.Subscription) *mockSubscriptionRepository {
	m := &mockSubscriptionRepository{subs: make(map[uint]*subscription.Subscription)}
	for _, s := range subs {
		m.subs[s.ID()] = s
		if s.ID() > m.nextID {
			m.nextID = s.ID()
		}
	}
	return m
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, s); err != nil {
			return err
		}
	}
	m.nextID++
	if err := s.SetID(m.nextID); err != nil {
		return err
	}
	m.subs[s.ID()] = s
	return nil
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(ctx, s); err != nil {
			return err
		}
	}
	m.subs[s.ID()] = s
	return nil
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id], nil
}

func (m *mockSubscriptionRepository) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSubscriptionRepository) FindActiveByUserID(ctx context.Context, userID uint, now time.Time) (*subscription.Subscription, error) {
	if m.FindActiveByUserIDFunc != nil {
		return m.FindActiveByUserIDFunc(ctx, userID, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *subscription.Subscription
	for _, s := range m.subs {
		if s.UserID() != userID || !s.IsActiveAt(now) {
			continue
		}
		if best == nil || s.StartedAt().After(best.StartedAt()) ||
			(s.StartedAt().Equal(best.StartedAt()) && s.ID() > best.ID()) {
			best = s
		}
	}
	return best, nil
}

func (m *mockSubscriptionRepository) FindExpiredTrials(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	if m.FindExpiredTrialsFunc != nil {
		return m.FindExpiredTrialsFunc(ctx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range m.subs {
		if s.Status() == vo.StatusTrial && s.EndedAt() != nil && s.EndedAt().Before(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *mockSubscriptionRepository) ListByUserID(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range m.subs {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *mockSubscriptionRepository) HasEverHadTrial(ctx context.Context, userID uint) (bool, error) {
	if m.HasEverHadTrialFunc != nil {
		return m.HasEverHadTrialFunc(ctx, userID)
	}
	return false, nil
}

func (m *mockSubscriptionRepository) HasEverHadPremium(ctx context.Context, userID uint) (bool, error) {
	return false, nil
}

func (m *mockSubscriptionRepository) userSubscriptions(userID uint) []*subscription.Subscription {
	out, _ := m.ListByUserID(context.Background(), userID)
	return out
}

type mockDirectory struct {
	users             map[uint]*user.Identity
	lockCalls         int
	LockForUpdateFunc func(ctx context.Context, userID uint) error
}

func newMockDirectory(ids ...uint) *mockDirectory {
	d := &mockDirectory{users: make(map[uint]*user.Identity)}
	for _, id := range ids {
		d.users[id] = &user.Identity{ID: id, Email: "user@example.com", Name: "Test User"}
	}
	return d
}

func (d *mockDirectory) Exists(ctx context.Context, userID uint) (bool, error) {
	_, ok := d.users[userID]
	return ok, nil
}

func (d *mockDirectory) GetIdentity(ctx context.Context, userID uint) (*user.Identity, error) {
	return d.users[userID], nil
}

func (d *mockDirectory) LockForUpdate(ctx context.Context, userID uint) error {
	d.lockCalls++
	if d.LockForUpdateFunc != nil {
		return d.LockForUpdateFunc(ctx, userID)
	}
	if _, ok := d.users[userID]; !ok {
		return user.ErrUserNotFound
	}
	return nil
}

type mockEligibilityChecker struct {
	CheckFunc func(ctx context.Context, userID uint) (services.EligibilityResult, error)
}

func (m *mockEligibilityChecker) Check(ctx context.Context, userID uint) (services.EligibilityResult, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, userID)
	}
	return services.EligibilityResult{Eligible: true}, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []subscription.SubscriptionEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event subscription.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []subscription.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]subscription.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingMetrics struct {
	runs  []string
	items map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{items: make(map[string]int)}
}

func (m *recordingMetrics) ObserveRun(result string) {
	m.runs = append(m.runs, result)
}

func (m *recordingMetrics) ObserveItem(outcome string) {
	m.items[outcome]++
}

func mustReconstruct(id, userID uint, plan vo.Plan, status vo.SubscriptionStatus, startedAt time.Time, endedAt *time.Time) *subscription.Subscription {
	s, err := subscription.ReconstructSubscription(id, "sub_fixture"+string(rune('A'+id)), userID, nil, nil,
		plan, status, startedAt, endedAt, nil, 1, startedAt, startedAt)
	if err != nil {
		panic(err)
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
