package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// decrementScript lowers a live counter without resurrecting expired keys.
var decrementScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v or tonumber(v) <= 0 then
	return 0
end
local n = redis.call('DECR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return n
`)

// RedisCounterCache shares counters across instances. Increment runs INCR
// and EXPIRE in one MULTI block, so every write resets the TTL.
type RedisCounterCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

func NewRedisCounterCache(client *redis.Client, ttl time.Duration, logger logger.Interface) *RedisCounterCache {
	return &RedisCounterCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCounterCache) key(key string) string {
	return constants.RedisQuotaCounterPrefix + key
}

func (c *RedisCounterCache) Increment(ctx context.Context, key string) (int64, error) {
	redisKey := c.key(key)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Errorw("failed to increment counter", "key", redisKey, "error", err)
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	return incr.Val(), nil
}

func (c *RedisCounterCache) Decrement(ctx context.Context, key string) error {
	redisKey := c.key(key)

	if err := decrementScript.Run(ctx, c.client, []string{redisKey}, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Errorw("failed to decrement counter", "key", redisKey, "error", err)
		return fmt.Errorf("failed to decrement counter: %w", err)
	}

	return nil
}

func (c *RedisCounterCache) Peek(ctx context.Context, key string) (int64, error) {
	value, err := c.client.Get(ctx, c.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	return value, nil
}

func (c *RedisCounterCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate counter: %w", err)
	}

	c.logger.Debugw("counter invalidated", "key", key)
	return nil
}
