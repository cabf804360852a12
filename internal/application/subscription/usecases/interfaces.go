package usecases

import (
	"context"

	"github.com/walletwise/walletwise/internal/application/subscription/services"
	"github.com/walletwise/walletwise/internal/domain/subscription"
)

// TransactionManager runs fn in a transaction carried by the ctx passed to fn.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher distributes committed subscription lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event subscription.SubscriptionEvent) error
}

// EligibilityChecker decides whether a user may receive a trial.
type EligibilityChecker interface {
	Check(ctx context.Context, userID uint) (services.EligibilityResult, error)
}

// ReconciliationMetrics records trial reconciliation outcomes.
type ReconciliationMetrics interface {
	ObserveRun(result string)
	ObserveItem(outcome string)
}

type noopReconciliationMetrics struct{}

func (noopReconciliationMetrics) ObserveRun(string)  {}
func (noopReconciliationMetrics) ObserveItem(string) {}
