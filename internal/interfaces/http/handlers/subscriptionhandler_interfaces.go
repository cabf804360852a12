package handlers

import (
	"context"

	"github.com/walletwise/walletwise/internal/application/entitlement"
	"github.com/walletwise/walletwise/internal/domain/subscription"
)

// Service interfaces for SubscriptionHandler, both satisfied by *entitlement.Service.

type SubscriptionLifecycle interface {
	GetActiveSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error)
	ListSubscriptionHistory(ctx context.Context, userID uint) ([]*subscription.Subscription, error)
	CreateTrialSelfService(ctx context.Context, userID uint) (*subscription.Subscription, error)
	CancelSubscription(ctx context.Context, userID uint) error
}

type EntitlementResolver interface {
	ResolveTier(ctx context.Context, userID uint) entitlement.Tier
	RemainingReportQuota(ctx context.Context, userID uint) int
}
