package subscription

import (
	"fmt"
	"time"

	vo "github.com/walletwise/walletwise/internal/domain/subscription/valueobjects"
	"github.com/walletwise/walletwise/internal/shared/id"
)

// Metadata keys recorded on subscription records for auditing.
const (
	MetadataSource      = "source"
	MetadataCancelledBy = "cancelled_by"
	MetadataSupersedes  = "supersedes"
)

// Sources of a subscription record.
const (
	SourceRegistration   = "registration"
	SourceSelfService    = "self_service"
	SourceReconciliation = "trial_reconciliation"
	SourceCancellation   = "cancellation"
	SourceManual         = "manual"
)

// Subscription is one subscription period for one user. A user owns a
// history of these; which one is active is computed, never stored.
type Subscription struct {
	id                uint
	sid               string
	userID            uint
	provider          *string
	providerReference *string
	plan              vo.Plan
	status            vo.SubscriptionStatus
	startedAt         time.Time
	endedAt           *time.Time
	metadata          map[string]interface{}
	version           int
	createdAt         time.Time
	updatedAt         time.Time
}

// NewTrialSubscription creates a PREMIUM trial starting at now and ending
// trialDays later.
func NewTrialSubscription(userID uint, trialDays int, now time.Time) (*Subscription, error) {
	if trialDays <= 0 {
		return nil, ErrInvalidTrialDays
	}
	endedAt := now.AddDate(0, 0, trialDays)
	return newSubscription(userID, vo.PlanPremium, vo.StatusTrial, now, &endedAt)
}

// NewFreeSubscription creates an open-ended FREE record starting at now.
func NewFreeSubscription(userID uint, now time.Time) (*Subscription, error) {
	return newSubscription(userID, vo.PlanFree, vo.StatusActive, now, nil)
}

func newSubscription(userID uint, plan vo.Plan, status vo.SubscriptionStatus, startedAt time.Time, endedAt *time.Time) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	sid, err := id.NewSubscriptionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription SID: %w", err)
	}

	return &Subscription{
		sid:       sid,
		userID:    userID,
		plan:      plan,
		status:    status,
		startedAt: startedAt,
		endedAt:   endedAt,
		metadata:  make(map[string]interface{}),
		version:   1,
		createdAt: startedAt,
		updatedAt: startedAt,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	subscriptionID uint,
	sid string,
	userID uint,
	provider, providerReference *string,
	plan vo.Plan,
	status vo.SubscriptionStatus,
	startedAt time.Time,
	endedAt *time.Time,
	metadata map[string]interface{},
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if err := id.ValidatePrefix(sid, id.PrefixSubscription); err != nil {
		return nil, fmt.Errorf("invalid subscription SID: %w", err)
	}
	if !vo.ValidPlans[plan] {
		return nil, fmt.Errorf("invalid subscription plan: %s", plan)
	}
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &Subscription{
		id:                subscriptionID,
		sid:               sid,
		userID:            userID,
		provider:          provider,
		providerReference: providerReference,
		plan:              plan,
		status:            status,
		startedAt:         startedAt,
		endedAt:           endedAt,
		metadata:          metadata,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

func (s *Subscription) ID() uint {
	return s.id
}

// SID returns the public Stripe-style identifier
func (s *Subscription) SID() string {
	return s.sid
}

func (s *Subscription) UserID() uint {
	return s.userID
}

func (s *Subscription) Provider() *string {
	return s.provider
}

func (s *Subscription) ProviderReference() *string {
	return s.providerReference
}

func (s *Subscription) Plan() vo.Plan {
	return s.plan
}

func (s *Subscription) Status() vo.SubscriptionStatus {
	return s.status
}

func (s *Subscription) StartedAt() time.Time {
	return s.startedAt
}

// EndedAt returns nil for records without a fixed expiry
func (s *Subscription) EndedAt() *time.Time {
	return s.endedAt
}

func (s *Subscription) Metadata() map[string]interface{} {
	return s.metadata
}

// Version returns the aggregate version for optimistic locking
func (s *Subscription) Version() int {
	return s.version
}

func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

// SetMetadata records an audit attribute on the record.
func (s *Subscription) SetMetadata(key string, value interface{}) {
	s.metadata[key] = value
}

// IsActiveAt reports whether the record grants entitlement at instant now:
// its status is TRIAL or ACTIVE and its end date, if any, is strictly after now.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if !s.status.CanUseService() {
		return false
	}
	return s.endedAt == nil || s.endedAt.After(now)
}

func (s *Subscription) IsPremiumAt(now time.Time) bool {
	return s.plan.IsPremium() && s.IsActiveAt(now)
}

func (s *Subscription) IsTrialAt(now time.Time) bool {
	return s.status == vo.StatusTrial && s.IsActiveAt(now)
}

// IsActive is IsActiveAt evaluated against the wall clock.
func (s *Subscription) IsActive() bool {
	return s.IsActiveAt(time.Now())
}

func (s *Subscription) IsPremium() bool {
	return s.IsPremiumAt(time.Now())
}

func (s *Subscription) IsTrial() bool {
	return s.IsTrialAt(time.Now())
}

// Cancel moves the record to CANCELLED effective at now. An end date that is
// unset or still in the future is pulled back to now. Cancelling an already
// cancelled record changes nothing.
func (s *Subscription) Cancel(now time.Time) error {
	if s.status == vo.StatusCancelled {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}

	s.status = vo.StatusCancelled
	if s.endedAt == nil || s.endedAt.After(now) {
		endedAt := now
		s.endedAt = &endedAt
	}
	s.updatedAt = now
	s.version++

	return nil
}

// MarkExpired flips a trial whose end date has passed to EXPIRED.
// Expiring an already expired record changes nothing.
func (s *Subscription) MarkExpired(now time.Time) error {
	if s.status == vo.StatusExpired {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusExpired) {
		return ErrInvalidTransition(s.status.String(), vo.StatusExpired.String())
	}
	if s.endedAt == nil || s.endedAt.After(now) {
		return ErrTrialNotEnded
	}

	s.status = vo.StatusExpired
	s.updatedAt = now
	s.version++

	return nil
}

// ExtendBy pushes the end date out by days. A record without an end date
// gets one of now plus days.
func (s *Subscription) ExtendBy(days int, now time.Time) error {
	if days <= 0 {
		return ErrInvalidExtension
	}
	if s.status.IsTerminal() {
		return fmt.Errorf("%w: cannot extend %s subscription", ErrSubscriptionInactive, s.status)
	}

	var endedAt time.Time
	if s.endedAt != nil {
		endedAt = s.endedAt.AddDate(0, 0, days)
	} else {
		endedAt = now.AddDate(0, 0, days)
	}
	s.endedAt = &endedAt
	s.updatedAt = now
	s.version++

	return nil
}
