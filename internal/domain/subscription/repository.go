package subscription

import (
	"context"
	"time"
)

// SubscriptionRepository persists subscription records. Lookups return
// (nil, nil) when nothing matches.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Update(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	// GetByIDForUpdate loads the record with a row lock when called inside a transaction.
	GetByIDForUpdate(ctx context.Context, id uint) (*Subscription, error)

	// FindActiveByUserID returns the authoritative record at now: the most
	// recently started record whose status is TRIAL or ACTIVE and whose end
	// date is unset or after now.
	FindActiveByUserID(ctx context.Context, userID uint, now time.Time) (*Subscription, error)
	// FindExpiredTrials returns TRIAL records whose end date is before now.
	FindExpiredTrials(ctx context.Context, now time.Time) ([]*Subscription, error)
	ListByUserID(ctx context.Context, userID uint) ([]*Subscription, error)

	HasEverHadTrial(ctx context.Context, userID uint) (bool, error)
	HasEverHadPremium(ctx context.Context, userID uint) (bool, error)
}
