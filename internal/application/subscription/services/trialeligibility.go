package services

import (
	"context"
	"fmt"

	"github.com/walletwise/walletwise/internal/domain/payment"
	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// Reasons a user is refused a trial.
const (
	ReasonTrialAlreadyUsed  = "trial_already_used"
	ReasonPremiumHistory    = "premium_history"
	ReasonSuccessfulPayment = "successful_payment"
)

// EligibilityResult is the outcome of a trial eligibility check.
type EligibilityResult struct {
	Eligible bool
	Reason   string
}

// TrialEligibilityChecker decides whether a user may still receive a trial.
// Every check reads the store; results are never cached because the trial
// is a one-time benefit.
type TrialEligibilityChecker struct {
	subscriptionRepo subscription.SubscriptionRepository
	paymentHistory   payment.History
	logger           logger.Interface
}

func NewTrialEligibilityChecker(
	subscriptionRepo subscription.SubscriptionRepository,
	paymentHistory payment.History,
	logger logger.Interface,
) *TrialEligibilityChecker {
	return &TrialEligibilityChecker{
		subscriptionRepo: subscriptionRepo,
		paymentHistory:   paymentHistory,
		logger:           logger,
	}
}

// Check evaluates the rules in order and stops at the first violation:
// any past trial, any past premium record, any settled payment.
func (c *TrialEligibilityChecker) Check(ctx context.Context, userID uint) (EligibilityResult, error) {
	hadTrial, err := c.subscriptionRepo.HasEverHadTrial(ctx, userID)
	if err != nil {
		c.logger.Errorw("failed to check trial history", "user_id", userID, "error", err)
		return EligibilityResult{}, fmt.Errorf("failed to check trial history: %w", err)
	}
	if hadTrial {
		return EligibilityResult{Reason: ReasonTrialAlreadyUsed}, nil
	}

	hadPremium, err := c.subscriptionRepo.HasEverHadPremium(ctx, userID)
	if err != nil {
		c.logger.Errorw("failed to check premium history", "user_id", userID, "error", err)
		return EligibilityResult{}, fmt.Errorf("failed to check premium history: %w", err)
	}
	if hadPremium {
		return EligibilityResult{Reason: ReasonPremiumHistory}, nil
	}

	paid, err := c.paymentHistory.HasSuccessfulPayment(ctx, userID)
	if err != nil {
		c.logger.Errorw("failed to check payment history", "user_id", userID, "error", err)
		return EligibilityResult{}, fmt.Errorf("failed to check payment history: %w", err)
	}
	if paid {
		return EligibilityResult{Reason: ReasonSuccessfulPayment}, nil
	}

	return EligibilityResult{Eligible: true}, nil
}

// IsEligible is Check reduced to a boolean.
func (c *TrialEligibilityChecker) IsEligible(ctx context.Context, userID uint) (bool, error) {
	result, err := c.Check(ctx, userID)
	if err != nil {
		return false, err
	}
	return result.Eligible, nil
}
