package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

type CreateFreeSubscriptionCommand struct {
	UserID uint
	// Source is recorded in the record metadata; defaults to manual.
	Source string
}

// CreateFreeSubscriptionUseCase grants the open-ended FREE record. Granting
// to a user who already holds an active FREE record returns that record.
type CreateFreeSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	directory        user.Directory
	txMgr            TransactionManager
	publisher        EventPublisher
	clock            biztime.Clock
	logger           logger.Interface
}

func NewCreateFreeSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	directory user.Directory,
	txMgr TransactionManager,
	publisher EventPublisher,
	clock biztime.Clock,
	logger logger.Interface,
) *CreateFreeSubscriptionUseCase {
	return &CreateFreeSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		directory:        directory,
		txMgr:            txMgr,
		publisher:        publisher,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *CreateFreeSubscriptionUseCase) Execute(ctx context.Context, cmd CreateFreeSubscriptionCommand) (*subscription.Subscription, error) {
	if cmd.UserID == 0 {
		return nil, errors.NewValidationError("user ID is required")
	}
	source := cmd.Source
	if source == "" {
		source = subscription.SourceManual
	}

	now := uc.clock.Now()
	var (
		free    *subscription.Subscription
		created bool
	)

	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := lockUser(txCtx, uc.directory, cmd.UserID); err != nil {
			return err
		}

		active, err := uc.subscriptionRepo.FindActiveByUserID(txCtx, cmd.UserID, now)
		if err != nil {
			uc.logger.Errorw("failed to find active subscription", "user_id", cmd.UserID, "error", err)
			return fmt.Errorf("failed to find active subscription: %w", err)
		}
		if active != nil {
			if active.Plan().IsPremium() {
				return errors.NewConflictError("user already has an active premium subscription", active.SID())
			}
			free = active
			return nil
		}

		free, err = uc.grant(txCtx, cmd.UserID, source, "", now)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !created {
		uc.logger.Debugw("user already holds an active free subscription",
			"user_id", cmd.UserID,
			"subscription_id", free.ID(),
		)
		return free, nil
	}

	uc.logger.Infow("free subscription granted",
		"user_id", cmd.UserID,
		"email", userEmail(ctx, uc.directory, uc.logger, cmd.UserID),
		"subscription_id", free.ID(),
		"subscription_sid", free.SID(),
		"source", source,
	)
	publishEvents(ctx, uc.publisher, uc.logger, subscription.NewSubscriptionEvent(subscription.EventFreeGranted, free, now))

	return free, nil
}

// grant appends a FREE record inside the caller's transaction. The caller
// holds the user lock and has established that no active record remains.
func (uc *CreateFreeSubscriptionUseCase) grant(ctx context.Context, userID uint, source, supersedes string, now time.Time) (*subscription.Subscription, error) {
	sub, err := subscription.NewFreeSubscription(userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build free subscription: %w", err)
	}
	sub.SetMetadata(subscription.MetadataSource, source)
	if supersedes != "" {
		sub.SetMetadata(subscription.MetadataSupersedes, supersedes)
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		uc.logger.Errorw("failed to create free subscription", "user_id", userID, "source", source, "error", err)
		return nil, fmt.Errorf("failed to create free subscription: %w", err)
	}
	return sub, nil
}
