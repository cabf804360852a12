package usecases

import (
	"context"
	"fmt"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// ListSubscriptionHistoryUseCase returns every record a user has held,
// newest first. Records are never deleted so this is the full audit trail.
type ListSubscriptionHistoryUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewListSubscriptionHistoryUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ListSubscriptionHistoryUseCase {
	return &ListSubscriptionHistoryUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListSubscriptionHistoryUseCase) Execute(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	if userID == 0 {
		return nil, errors.NewValidationError("user ID is required")
	}

	subs, err := uc.subscriptionRepo.ListByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}
