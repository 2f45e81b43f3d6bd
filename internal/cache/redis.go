package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/matchdeck/matchdeck/internal/config"
	"github.com/redis/go-redis/v9"
)

// CountTTL bounds how long a cached match count may serve reads. Counts are
// invalidated on every ledger write for the pair, so the TTL only covers
// writes that bypass this process.
const CountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForMatchCount generates the Redis key for a user's mutual-match count.
func (c *RedisCache) KeyForMatchCount(userID uint64) string {
	return fmt.Sprintf("matches:count:%d", userID)
}

// GetMatchCount reads a cached match count. The second return value is
// false on a cache miss. TTL is refreshed on access.
func (c *RedisCache) GetMatchCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForMatchCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat a corrupt entry as a miss
	}
	_ = c.Client.Expire(ctx, key, CountTTL).Err()
	return n, true, nil
}

// SetMatchCount stores a freshly computed match count with the standard TTL.
func (c *RedisCache) SetMatchCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForMatchCount(userID), count, CountTTL).Err()
}

// InvalidatePair drops both users' cached match counts. Called after every
// successful ledger write: any decision can create or destroy a match, so
// both sides' counts are suspect.
func (c *RedisCache) InvalidatePair(ctx context.Context, actorID, targetID uint64) error {
	return c.Client.Del(ctx, c.KeyForMatchCount(actorID), c.KeyForMatchCount(targetID)).Err()
}
