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

// CreateTrialSelfServiceUseCase lets an eligible user start a trial. The
// user's active FREE record is cancelled and the trial created in the same
// transaction; an ineligible request writes nothing.
type CreateTrialSelfServiceUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	directory        user.Directory
	eligibility      EligibilityChecker
	txMgr            TransactionManager
	publisher        EventPublisher
	clock            biztime.Clock
	trialDays        int
	logger           logger.Interface
}

func NewCreateTrialSelfServiceUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	directory user.Directory,
	eligibility EligibilityChecker,
	txMgr TransactionManager,
	publisher EventPublisher,
	clock biztime.Clock,
	trialDays int,
	logger logger.Interface,
) *CreateTrialSelfServiceUseCase {
	return &CreateTrialSelfServiceUseCase{
		subscriptionRepo: subscriptionRepo,
		directory:        directory,
		eligibility:      eligibility,
		txMgr:            txMgr,
		publisher:        publisher,
		clock:            clock,
		trialDays:        trialDays,
		logger:           logger,
	}
}

func (uc *CreateTrialSelfServiceUseCase) Execute(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	if userID == 0 {
		return nil, errors.NewValidationError("user ID is required")
	}

	now := uc.clock.Now()
	var (
		trial      *subscription.Subscription
		superseded *subscription.Subscription
	)

	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := lockUser(txCtx, uc.directory, userID); err != nil {
			return err
		}

		result, err := uc.eligibility.Check(txCtx, userID)
		if err != nil {
			return err
		}
		if !result.Eligible {
			uc.logger.Infow("trial request rejected", "user_id", userID, "reason", result.Reason)
			return errors.NewForbiddenError("user is not eligible for a trial", result.Reason)
		}

		active, err := uc.subscriptionRepo.FindActiveByUserID(txCtx, userID, now)
		if err != nil {
			uc.logger.Errorw("failed to find active subscription", "user_id", userID, "error", err)
			return fmt.Errorf("failed to find active subscription: %w", err)
		}

		sub, err := subscription.NewTrialSubscription(userID, uc.trialDays, now)
		if err != nil {
			return fmt.Errorf("failed to build trial subscription: %w", err)
		}
		sub.SetMetadata(subscription.MetadataSource, subscription.SourceSelfService)

		if active != nil && !active.Plan().IsPremium() {
			if err := active.Cancel(now); err != nil {
				return fmt.Errorf("failed to cancel free subscription: %w", err)
			}
			active.SetMetadata(subscription.MetadataCancelledBy, subscription.SourceSelfService)
			if err := uc.subscriptionRepo.Update(txCtx, active); err != nil {
				uc.logger.Errorw("failed to cancel free subscription",
					"user_id", userID,
					"subscription_id", active.ID(),
					"error", err,
				)
				return fmt.Errorf("failed to update free subscription: %w", err)
			}
			sub.SetMetadata(subscription.MetadataSupersedes, active.SID())
			superseded = active
		}

		if err := uc.subscriptionRepo.Create(txCtx, sub); err != nil {
			uc.logger.Errorw("failed to create self-service trial", "user_id", userID, "error", err)
			return fmt.Errorf("failed to create trial subscription: %w", err)
		}

		trial = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	logArgs := []interface{}{
		"user_id", userID,
		"email", userEmail(ctx, uc.directory, uc.logger, userID),
		"subscription_id", trial.ID(),
		"subscription_sid", trial.SID(),
		"ended_at", trial.EndedAt(),
	}
	events := make([]subscription.SubscriptionEvent, 0, 2)
	if superseded != nil {
		logArgs = append(logArgs, "cancelled_subscription_sid", superseded.SID())
		events = append(events, subscription.NewSubscriptionEvent(subscription.EventCancelled, superseded, now))
	}
	events = append(events, subscription.NewSubscriptionEvent(subscription.EventTrialStarted, trial, now))

	uc.logger.Infow("self-service trial granted", logArgs...)
	publishEvents(ctx, uc.publisher, uc.logger, events...)

	return trial, nil
}
