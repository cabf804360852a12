package usecases

import (
	"context"
	"fmt"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// CancelSubscriptionResult holds the cancelled record and the FREE record
// that replaced it.
type CancelSubscriptionResult struct {
	Cancelled   *subscription.Subscription
	Replacement *subscription.Subscription
}

// CancelSubscriptionUseCase cancels the user's active premium record with
// immediate effect and downgrades the user to FREE in the same transaction.
type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	directory        user.Directory
	createFree       *CreateFreeSubscriptionUseCase
	txMgr            TransactionManager
	publisher        EventPublisher
	clock            biztime.Clock
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	directory user.Directory,
	createFree *CreateFreeSubscriptionUseCase,
	txMgr TransactionManager,
	publisher EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		directory:        directory,
		createFree:       createFree,
		txMgr:            txMgr,
		publisher:        publisher,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, userID uint) (*CancelSubscriptionResult, error) {
	if userID == 0 {
		return nil, errors.NewValidationError("user ID is required")
	}

	now := uc.clock.Now()
	result := &CancelSubscriptionResult{}

	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := lockUser(txCtx, uc.directory, userID); err != nil {
			return err
		}

		active, err := uc.subscriptionRepo.FindActiveByUserID(txCtx, userID, now)
		if err != nil {
			uc.logger.Errorw("failed to find active subscription", "user_id", userID, "error", err)
			return fmt.Errorf("failed to find active subscription: %w", err)
		}
		if active == nil {
			return errors.NewNotFoundError("no active subscription found")
		}
		if !active.Plan().IsPremium() {
			return errors.NewConflictError("free subscription cannot be cancelled", active.SID())
		}

		if err := active.Cancel(now); err != nil {
			uc.logger.Errorw("failed to cancel subscription", "user_id", userID, "subscription_id", active.ID(), "error", err)
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		active.SetMetadata(subscription.MetadataCancelledBy, "user")

		if err := uc.subscriptionRepo.Update(txCtx, active); err != nil {
			uc.logger.Errorw("failed to update subscription", "user_id", userID, "subscription_id", active.ID(), "error", err)
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		free, err := uc.createFree.grant(txCtx, userID, subscription.SourceCancellation, active.SID(), now)
		if err != nil {
			return err
		}

		result.Cancelled = active
		result.Replacement = free
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("subscription cancelled successfully",
		"user_id", userID,
		"email", userEmail(ctx, uc.directory, uc.logger, userID),
		"subscription_id", result.Cancelled.ID(),
		"subscription_sid", result.Cancelled.SID(),
		"status", result.Cancelled.Status(),
		"replacement_sid", result.Replacement.SID(),
	)
	publishEvents(ctx, uc.publisher, uc.logger,
		subscription.NewSubscriptionEvent(subscription.EventCancelled, result.Cancelled, now),
		subscription.NewSubscriptionEvent(subscription.EventFreeGranted, result.Replacement, now),
	)

	return result, nil
}
