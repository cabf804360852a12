package dto

import (
	"time"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/mapper"
)

type SubscriptionDTO struct {
	ID        string                 `json:"id"`
	Plan      string                 `json:"plan"`
	Status    string                 `json:"status"`
	Provider  *string                `json:"provider,omitempty"`
	StartedAt time.Time              `json:"started_at"`
	EndedAt   *time.Time             `json:"ended_at,omitempty"`
	IsActive  bool                   `json:"is_active"`
	IsPremium bool                   `json:"is_premium"`
	IsTrial   bool                   `json:"is_trial"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// EntitlementDTO summarises what a user may do right now.
type EntitlementDTO struct {
	Tier                 string           `json:"tier"`
	IsPremium            bool             `json:"is_premium"`
	RemainingReportQuota int              `json:"remaining_report_quota"` // -1 when unlimited
	Subscription         *SubscriptionDTO `json:"subscription,omitempty"`
}

// ToSubscriptionDTO evaluates the derived flags at now rather than trusting
// the stored status alone.
func ToSubscriptionDTO(sub *subscription.Subscription, now time.Time) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	return &SubscriptionDTO{
		ID:        sub.SID(),
		Plan:      sub.Plan().String(),
		Status:    sub.Status().String(),
		Provider:  sub.Provider(),
		StartedAt: sub.StartedAt(),
		EndedAt:   sub.EndedAt(),
		IsActive:  sub.IsActiveAt(now),
		IsPremium: sub.IsPremiumAt(now),
		IsTrial:   sub.IsTrialAt(now),
		Metadata:  sub.Metadata(),
		CreatedAt: sub.CreatedAt(),
	}
}

func ToSubscriptionDTOList(subs []*subscription.Subscription, now time.Time) []*SubscriptionDTO {
	if len(subs) == 0 {
		return []*SubscriptionDTO{}
	}
	return mapper.MapSlice(subs, func(s *subscription.Subscription) *SubscriptionDTO {
		return ToSubscriptionDTO(s, now)
	})
}
