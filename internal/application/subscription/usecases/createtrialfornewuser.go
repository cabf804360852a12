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

// CreateTrialForNewUserUseCase grants the registration trial. It runs once
// per account, before any other subscription exists, so eligibility is not
// checked.
type CreateTrialForNewUserUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	directory        user.Directory
	txMgr            TransactionManager
	publisher        EventPublisher
	clock            biztime.Clock
	trialDays        int
	logger           logger.Interface
}

func NewCreateTrialForNewUserUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	directory user.Directory,
	txMgr TransactionManager,
	publisher EventPublisher,
	clock biztime.Clock,
	trialDays int,
	logger logger.Interface,
) *CreateTrialForNewUserUseCase {
	return &CreateTrialForNewUserUseCase{
		subscriptionRepo: subscriptionRepo,
		directory:        directory,
		txMgr:            txMgr,
		publisher:        publisher,
		clock:            clock,
		trialDays:        trialDays,
		logger:           logger,
	}
}

func (uc *CreateTrialForNewUserUseCase) Execute(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	if userID == 0 {
		return nil, errors.NewValidationError("user ID is required")
	}

	now := uc.clock.Now()
	var trial *subscription.Subscription

	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := lockUser(txCtx, uc.directory, userID); err != nil {
			return err
		}

		sub, err := subscription.NewTrialSubscription(userID, uc.trialDays, now)
		if err != nil {
			return fmt.Errorf("failed to build trial subscription: %w", err)
		}
		sub.SetMetadata(subscription.MetadataSource, subscription.SourceRegistration)

		if err := uc.subscriptionRepo.Create(txCtx, sub); err != nil {
			uc.logger.Errorw("failed to create registration trial", "user_id", userID, "error", err)
			return fmt.Errorf("failed to create trial subscription: %w", err)
		}

		trial = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("registration trial granted",
		"user_id", userID,
		"email", userEmail(ctx, uc.directory, uc.logger, userID),
		"subscription_id", trial.ID(),
		"subscription_sid", trial.SID(),
		"ended_at", trial.EndedAt(),
	)
	publishEvents(ctx, uc.publisher, uc.logger, subscription.NewSubscriptionEvent(subscription.EventTrialStarted, trial, now))

	return trial, nil
}
