package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/goroutine"
	"github.com/walletwise/walletwise/internal/shared/logger"
	"github.com/walletwise/walletwise/internal/shared/utils/logutil"
)

// SubscriptionEventHandler is a callback function for handling subscription events
type SubscriptionEventHandler func(ctx context.Context, event subscription.SubscriptionEvent)

// SubscriptionEventPublisher defines the interface for publishing subscription events
type SubscriptionEventPublisher interface {
	Publish(ctx context.Context, event subscription.SubscriptionEvent) error
}

// SubscriptionEventSubscriber defines the interface for subscribing to subscription events
type SubscriptionEventSubscriber interface {
	Subscribe(ctx context.Context, handler SubscriptionEventHandler) error
}

// RedisSubscriptionEventBus implements both SubscriptionEventPublisher and SubscriptionEventSubscriber
// using Redis Pub/Sub for cross-instance event distribution
type RedisSubscriptionEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

// NewRedisSubscriptionEventBus creates a new Redis-based subscription event bus
func NewRedisSubscriptionEventBus(client *redis.Client, logger logger.Interface) *RedisSubscriptionEventBus {
	return &RedisSubscriptionEventBus{
		client:  client,
		channel: constants.SubscriptionEventChannel,
		logger:  logger,
	}
}

func (b *RedisSubscriptionEventBus) Publish(ctx context.Context, event subscription.SubscriptionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish subscription event",
			"subscription_id", event.SubscriptionID,
			"subscription_sid", event.SubscriptionSID,
			"event_type", event.Type,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("subscription event published",
		"subscription_id", event.SubscriptionID,
		"subscription_sid", event.SubscriptionSID,
		"event_type", event.Type,
	)
	return nil
}

// Subscribe blocks until ctx is cancelled, calling handler for each event.
func (b *RedisSubscriptionEventBus) Subscribe(ctx context.Context, handler SubscriptionEventHandler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to subscription events",
		"channel", b.channel,
	)

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("subscription event subscriber stopped",
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("subscription event channel closed")
				return nil
			}

			var event subscription.SubscriptionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal subscription event",
					"payload", logutil.TruncateForLog(msg.Payload, 256),
					"error", err,
				)
				continue
			}

			// Handlers outlive the subscriber loop
			goroutine.SafeGo(b.logger, "subscription-event-handler", func() {
				handler(context.Background(), event)
			})
		}
	}
}

// NoopEventPublisher drops events. Used when redis is disabled.
type NoopEventPublisher struct {
	logger logger.Interface
}

func NewNoopEventPublisher(logger logger.Interface) *NoopEventPublisher {
	return &NoopEventPublisher{logger: logger}
}

func (p *NoopEventPublisher) Publish(ctx context.Context, event subscription.SubscriptionEvent) error {
	p.logger.Debugw("subscription event dropped, event bus disabled",
		"event_type", event.Type,
		"subscription_id", event.SubscriptionID,
	)
	return nil
}

// NewAuditLogHandler writes one audit line per received event.
func NewAuditLogHandler(log logger.Interface) SubscriptionEventHandler {
	return func(ctx context.Context, event subscription.SubscriptionEvent) {
		log.Infow("subscription audit",
			"event_type", event.Type,
			"user_id", event.UserID,
			"subscription_id", event.SubscriptionID,
			"subscription_sid", event.SubscriptionSID,
			"plan", event.Plan,
			"status", event.Status,
			"at", event.Timestamp,
		)
	}
}
