package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	vo "github.com/walletwise/walletwise/internal/domain/subscription/valueobjects"
	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// Run results and per-item outcomes reported to metrics.
const (
	RunResultSuccess = "success"
	RunResultPartial = "partial"
	RunResultFailed  = "failed"

	ItemOutcomeExpired = "expired"
	ItemOutcomeSkipped = "skipped"
	ItemOutcomeFailed  = "failed"
)

// ReconciliationResult summarises one reconciliation pass.
type ReconciliationResult struct {
	RunID       string
	Found       int
	Expired     int
	FreeGranted int
	Skipped     int
	Failed      int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// ExpireTrialsUseCase downgrades trials whose end date has passed: each
// trial is flipped to EXPIRED and the user receives a FREE record.
//
// Every trial is handled in its own transaction, so one user's failure
// rolls back only that user's change and the next run retries it. A
// failure to list expired trials aborts the whole run.
type ExpireTrialsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	directory        user.Directory
	createFree       *CreateFreeSubscriptionUseCase
	txMgr            TransactionManager
	publisher        EventPublisher
	metrics          ReconciliationMetrics
	clock            biztime.Clock
	logger           logger.Interface
}

func NewExpireTrialsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	directory user.Directory,
	createFree *CreateFreeSubscriptionUseCase,
	txMgr TransactionManager,
	publisher EventPublisher,
	metrics ReconciliationMetrics,
	clock biztime.Clock,
	logger logger.Interface,
) *ExpireTrialsUseCase {
	if metrics == nil {
		metrics = noopReconciliationMetrics{}
	}
	return &ExpireTrialsUseCase{
		subscriptionRepo: subscriptionRepo,
		directory:        directory,
		createFree:       createFree,
		txMgr:            txMgr,
		publisher:        publisher,
		metrics:          metrics,
		clock:            clock,
		logger:           logger,
	}
}

// Execute runs one pass and returns the number of trials expired.
func (uc *ExpireTrialsUseCase) Execute(ctx context.Context) (int, error) {
	result, err := uc.Run(ctx)
	if err != nil {
		return 0, err
	}
	return result.Expired, nil
}

// Run performs one reconciliation pass.
func (uc *ExpireTrialsUseCase) Run(ctx context.Context) (*ReconciliationResult, error) {
	now := uc.clock.Now()
	result := &ReconciliationResult{
		RunID:     uuid.NewString(),
		StartedAt: now,
	}
	log := uc.logger.With("run_id", result.RunID)

	trials, err := uc.subscriptionRepo.FindExpiredTrials(ctx, now)
	if err != nil {
		uc.metrics.ObserveRun(RunResultFailed)
		log.Errorw("failed to find expired trials", "error", err)
		return nil, fmt.Errorf("failed to find expired trials: %w", err)
	}

	result.Found = len(trials)
	if len(trials) == 0 {
		result.FinishedAt = uc.clock.Now()
		uc.metrics.ObserveRun(RunResultSuccess)
		log.Debugw("no expired trials to reconcile")
		return result, nil
	}

	log.Infow("found expired trials to reconcile", "count", len(trials))

	for _, trial := range trials {
		outcome, err := uc.processTrial(ctx, trial.ID(), now)
		if err != nil {
			result.Failed++
			uc.metrics.ObserveItem(ItemOutcomeFailed)
			log.Errorw("failed to reconcile expired trial",
				"subscription_id", trial.ID(),
				"subscription_sid", trial.SID(),
				"user_id", trial.UserID(),
				"error", err,
			)
			continue
		}

		switch {
		case outcome.skipped:
			result.Skipped++
			uc.metrics.ObserveItem(ItemOutcomeSkipped)
			continue
		case outcome.free != nil:
			result.FreeGranted++
		}
		result.Expired++
		uc.metrics.ObserveItem(ItemOutcomeExpired)

		log.Infow("trial expired",
			"subscription_id", outcome.expired.ID(),
			"subscription_sid", outcome.expired.SID(),
			"user_id", outcome.expired.UserID(),
			"email", userEmail(ctx, uc.directory, uc.logger, outcome.expired.UserID()),
			"free_granted", outcome.free != nil,
		)

		events := []subscription.SubscriptionEvent{
			subscription.NewSubscriptionEvent(subscription.EventTrialExpired, outcome.expired, now),
		}
		if outcome.free != nil {
			events = append(events, subscription.NewSubscriptionEvent(subscription.EventFreeGranted, outcome.free, now))
		}
		publishEvents(ctx, uc.publisher, uc.logger, events...)
	}

	result.FinishedAt = uc.clock.Now()
	if result.Failed > 0 {
		uc.metrics.ObserveRun(RunResultPartial)
	} else {
		uc.metrics.ObserveRun(RunResultSuccess)
	}

	log.Infow("trial reconciliation completed",
		"found", result.Found,
		"expired", result.Expired,
		"free_granted", result.FreeGranted,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	return result, nil
}

type trialOutcome struct {
	expired *subscription.Subscription
	free    *subscription.Subscription
	skipped bool
}

// processTrial re-reads the trial under lock so that a concurrent run or a
// user action since discovery is observed, then expires it and grants FREE
// unless the user already holds another active record.
func (uc *ExpireTrialsUseCase) processTrial(ctx context.Context, subscriptionID uint, now time.Time) (outcome trialOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reconciling subscription %d: %v", subscriptionID, r)
		}
	}()

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		current, err := uc.subscriptionRepo.GetByID(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		if current == nil {
			outcome.skipped = true
			return nil
		}

		if err := lockUser(txCtx, uc.directory, current.UserID()); err != nil {
			return err
		}

		trial, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to lock subscription: %w", err)
		}
		if trial == nil || trial.Status() != vo.StatusTrial || trial.EndedAt() == nil || !trial.EndedAt().Before(now) {
			outcome.skipped = true
			return nil
		}

		if err := trial.MarkExpired(now); err != nil {
			return fmt.Errorf("failed to mark trial expired: %w", err)
		}
		if err := uc.subscriptionRepo.Update(txCtx, trial); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		outcome.expired = trial

		active, err := uc.subscriptionRepo.FindActiveByUserID(txCtx, trial.UserID(), now)
		if err != nil {
			return fmt.Errorf("failed to find active subscription: %w", err)
		}
		if active != nil {
			uc.logger.Debugw("user holds another active subscription, free grant skipped",
				"user_id", trial.UserID(),
				"active_subscription_sid", active.SID(),
			)
			return nil
		}

		free, err := uc.createFree.grant(txCtx, trial.UserID(), subscription.SourceReconciliation, trial.SID(), now)
		if err != nil {
			return err
		}
		outcome.free = free
		return nil
	})
	if err != nil {
		return trialOutcome{}, err
	}
	return outcome, nil
}
