package usecases

import (
	"context"
	stderrors "errors"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/domain/user"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// lockUser takes the per-user lock that serialises subscription writes and
// maps an unknown user to a not-found rejection.
func lockUser(ctx context.Context, directory user.Directory, userID uint) error {
	if err := directory.LockForUpdate(ctx, userID); err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return errors.NewNotFoundError("user not found")
		}
		return err
	}
	return nil
}

// userEmail resolves the email used in audit log lines. Lookup failures
// only cost the log line its email.
func userEmail(ctx context.Context, directory user.Directory, log logger.Interface, userID uint) string {
	identity, err := directory.GetIdentity(ctx, userID)
	if err != nil {
		log.Debugw("failed to resolve user identity for audit", "user_id", userID, "error", err)
		return ""
	}
	if identity == nil {
		return ""
	}
	return identity.Email
}

// publishEvents hands committed events to the publisher. Delivery failures
// are logged and never undo the committed change.
func publishEvents(ctx context.Context, publisher EventPublisher, log logger.Interface, events ...subscription.SubscriptionEvent) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			log.Warnw("failed to publish subscription event",
				"event_type", event.Type,
				"subscription_id", event.SubscriptionID,
				"user_id", event.UserID,
				"error", err,
			)
		}
	}
}
