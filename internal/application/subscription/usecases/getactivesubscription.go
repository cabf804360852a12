package usecases

import (
	"context"
	"fmt"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// GetActiveSubscriptionUseCase returns the record authoritative right now.
type GetActiveSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	clock            biztime.Clock
	logger           logger.Interface
}

func NewGetActiveSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	clock biztime.Clock,
	logger logger.Interface,
) *GetActiveSubscriptionUseCase {
	return &GetActiveSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
		logger:           logger,
	}
}

// Execute fails with a not-found error when the user has no active record,
// which after registration indicates a data-integrity problem.
func (uc *GetActiveSubscriptionUseCase) Execute(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	if userID == 0 {
		return nil, errors.NewValidationError("user ID is required")
	}

	sub, err := uc.subscriptionRepo.FindActiveByUserID(ctx, userID, uc.clock.Now())
	if err != nil {
		uc.logger.Errorw("failed to find active subscription", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to find active subscription: %w", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("no active subscription found")
	}

	return sub, nil
}
