// Package entitlement answers whether a user may use premium features and
// enforces the FREE tier quotas.
package entitlement

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// Tier is the resolved feature level of a user at an instant.
type Tier string

const (
	TierPremium Tier = "PREMIUM"
	TierFree    Tier = "FREE"
	// TierNone means no readable active subscription: not premium and no quota.
	TierNone Tier = "NONE"
)

// ActiveSubscriptionGetter returns the user's authoritative record.
type ActiveSubscriptionGetter interface {
	Execute(ctx context.Context, userID uint) (*subscription.Subscription, error)
}

// Gate resolves entitlement from the active subscription. It fails closed:
// any failure to read the active subscription resolves to TierNone.
type Gate struct {
	getActive ActiveSubscriptionGetter
	clock     biztime.Clock
	group     singleflight.Group
	logger    logger.Interface
}

func NewGate(getActive ActiveSubscriptionGetter, clock biztime.Clock, logger logger.Interface) *Gate {
	return &Gate{
		getActive: getActive,
		clock:     clock,
		logger:    logger,
	}
}

// ResolveTier returns the user's tier right now. Concurrent lookups for the
// same user share one store round trip. The shared lookup ignores the
// cancellation of whichever caller started it; each caller stops waiting
// when its own ctx is done.
func (g *Gate) ResolveTier(ctx context.Context, userID uint) Tier {
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		return g.getActive.Execute(shared, userID)
	})

	var v interface{}
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if errors.IsNotFoundError(err) {
			g.logger.Warnw("user has no active subscription, denying premium", "user_id", userID)
		} else {
			g.logger.Errorw("failed to resolve entitlement, denying premium", "user_id", userID, "error", err)
		}
		return TierNone
	}

	sub, ok := v.(*subscription.Subscription)
	if !ok || sub == nil {
		return TierNone
	}

	now := g.clock.Now()
	switch {
	case sub.IsPremiumAt(now):
		return TierPremium
	case sub.IsActiveAt(now):
		return TierFree
	default:
		return TierNone
	}
}

// IsPremiumUser reports whether premium features are unlocked right now.
func (g *Gate) IsPremiumUser(ctx context.Context, userID uint) bool {
	return g.ResolveTier(ctx, userID) == TierPremium
}
