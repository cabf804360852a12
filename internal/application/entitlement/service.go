package entitlement

import (
	"context"

	"github.com/walletwise/walletwise/internal/application/subscription/usecases"
	"github.com/walletwise/walletwise/internal/domain/subscription"
)

// Service is the contract consumed by wallet creation, debt creation,
// report generation and the registration flow.
type Service struct {
	getActive              *usecases.GetActiveSubscriptionUseCase
	createTrialForNewUser  *usecases.CreateTrialForNewUserUseCase
	createTrialSelfService *usecases.CreateTrialSelfServiceUseCase
	createFree             *usecases.CreateFreeSubscriptionUseCase
	cancel                 *usecases.CancelSubscriptionUseCase
	history                *usecases.ListSubscriptionHistoryUseCase
	gate                   *Gate
	wallets                *CountLimiter
	debts                  *CountLimiter
	reports                *ReportLimiter
}

// ServiceDeps groups the collaborators of Service.
type ServiceDeps struct {
	GetActive              *usecases.GetActiveSubscriptionUseCase
	CreateTrialForNewUser  *usecases.CreateTrialForNewUserUseCase
	CreateTrialSelfService *usecases.CreateTrialSelfServiceUseCase
	CreateFree             *usecases.CreateFreeSubscriptionUseCase
	Cancel                 *usecases.CancelSubscriptionUseCase
	History                *usecases.ListSubscriptionHistoryUseCase
	Gate                   *Gate
	Wallets                *CountLimiter
	Debts                  *CountLimiter
	Reports                *ReportLimiter
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		getActive:              deps.GetActive,
		createTrialForNewUser:  deps.CreateTrialForNewUser,
		createTrialSelfService: deps.CreateTrialSelfService,
		createFree:             deps.CreateFree,
		cancel:                 deps.Cancel,
		history:                deps.History,
		gate:                   deps.Gate,
		wallets:                deps.Wallets,
		debts:                  deps.Debts,
		reports:                deps.Reports,
	}
}

func (s *Service) IsPremiumUser(ctx context.Context, userID uint) bool {
	return s.gate.IsPremiumUser(ctx, userID)
}

func (s *Service) ResolveTier(ctx context.Context, userID uint) Tier {
	return s.gate.ResolveTier(ctx, userID)
}

func (s *Service) GetActiveSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return s.getActive.Execute(ctx, userID)
}

func (s *Service) CreateTrialForNewUser(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return s.createTrialForNewUser.Execute(ctx, userID)
}

func (s *Service) CreateTrialSelfService(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return s.createTrialSelfService.Execute(ctx, userID)
}

func (s *Service) CreateFreeSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return s.createFree.Execute(ctx, usecases.CreateFreeSubscriptionCommand{UserID: userID})
}

func (s *Service) CancelSubscription(ctx context.Context, userID uint) error {
	_, err := s.cancel.Execute(ctx, userID)
	return err
}

func (s *Service) ListSubscriptionHistory(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	return s.history.Execute(ctx, userID)
}

func (s *Service) CheckWalletQuota(ctx context.Context, userID uint) error {
	return s.wallets.Check(ctx, userID)
}

func (s *Service) CheckDebtQuota(ctx context.Context, userID uint) error {
	return s.debts.Check(ctx, userID)
}

func (s *Service) AllowReportGeneration(ctx context.Context, userID uint) bool {
	return s.reports.Allow(ctx, userID)
}

func (s *Service) RemainingReportQuota(ctx context.Context, userID uint) int {
	return s.reports.Remaining(ctx, userID)
}
