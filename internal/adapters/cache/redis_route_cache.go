package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "route:cache:"

// RedisRouteCache stores serialized route results in Redis. Entries get
// a native Redis TTL, so SweepExpired only needs to pick up stragglers;
// the envelope timestamps are still checked on read to honor the cache
// contract independent of store-side eviction timing.
type RedisRouteCache struct {
	Client *redis.Client
	Now    func() time.Time
}

func NewRedisRouteCache(client *redis.Client) *RedisRouteCache {
	return &RedisRouteCache{Client: client, Now: time.Now}
}

type cacheEnvelope struct {
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
	Result    *domain.RouteResult `json:"result"`
}

func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ *domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, &domain.CacheError{Op: "get", Err: errors.New("redis client is nil")}
	}

	val, err := c.Client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, &domain.CacheError{Op: "get", Err: fmt.Errorf("redis get: %w", err)}
	}

	var env cacheEnvelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return nil, false, &domain.CacheError{Op: "get", Err: fmt.Errorf("decode cached route: %w", err)}
	}

	if !c.Now().Before(env.ExpiresAt) {
		return nil, false, nil
	}

	return env.Result, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, key string, result *domain.RouteResult) error {
	if c.Client == nil {
		return &domain.CacheError{Op: "put", Err: errors.New("redis client is nil")}
	}

	if key == "" {
		return &domain.CacheError{Op: "put", Err: errors.New("key must not be empty")}
	}

	if result == nil {
		return &domain.CacheError{Op: "put", Err: errors.New("result must not be nil")}
	}

	now := c.Now()
	env := cacheEnvelope{
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
		Result:    result,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return &domain.CacheError{Op: "put", Err: fmt.Errorf("encode route result: %w", err)}
	}

	if err := c.Client.Set(ctx, redisKeyPrefix+key, data, TTL).Err(); err != nil {
		return &domain.CacheError{Op: "put", Err: fmt.Errorf("redis set: %w", err)}
	}

	return nil
}

// SweepExpired scans for entries whose envelope has expired but which
// Redis has not evicted yet, and deletes them.
func (c *RedisRouteCache) SweepExpired(ctx context.Context) (_ int, err error) {
	defer obs.Time(ctx, "route.cache.SweepExpired")(&err)

	if c.Client == nil {
		return 0, &domain.CacheError{Op: "sweep", Err: errors.New("redis client is nil")}
	}

	now := c.Now()
	removed := 0

	iter := c.Client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		val, err := c.Client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return removed, &domain.CacheError{Op: "sweep", Err: fmt.Errorf("redis get %q: %w", key, err)}
		}

		var env cacheEnvelope
		if err := json.Unmarshal([]byte(val), &env); err != nil {
			// Unreadable entries are garbage; drop them with the expired ones.
			if delErr := c.Client.Del(ctx, key).Err(); delErr == nil {
				removed++
			}
			continue
		}

		if env.ExpiresAt.After(now) {
			continue
		}

		if err := c.Client.Del(ctx, key).Err(); err != nil {
			return removed, &domain.CacheError{Op: "sweep", Err: fmt.Errorf("redis del %q: %w", key, err)}
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, &domain.CacheError{Op: "sweep", Err: fmt.Errorf("redis scan: %w", err)}
	}

	return removed, nil
}
