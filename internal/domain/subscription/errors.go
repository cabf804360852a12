package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionInactive    = errors.New("subscription inactive")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTrialNotEnded           = errors.New("trial period has not ended")
	ErrInvalidTrialDays        = errors.New("trial days must be positive")
	ErrInvalidExtension        = errors.New("extension days must be positive")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
