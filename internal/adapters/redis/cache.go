// Package redisad caches upstream dealer and review payloads in Redis.
package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"dealer_reviews/internal/adapters/observability"
)

// KeyPrefix namespaces every entry so the service can share a Redis database.
const KeyPrefix = "dealer_reviews:"

// Key returns the Redis key a cache key is stored under.
func Key(k string) string { return KeyPrefix + k }

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// Get decodes the entry under key into dst. An entry that no longer decodes
// (for example after the backend changed a payload shape) is evicted and
// reported as a miss, so the caller refetches instead of failing.
func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, Key(key)).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		observability.ObserveCache("redis", "corrupt")
		log.Warn().Err(err).Str("key", key).Msg("evicting undecodable cache entry")
		return false, r.c.Del(ctx, Key(key)).Err()
	}
	observability.ObserveCache("redis", "hit")
	return true, nil
}

// Set stores v as JSON for ttlSec seconds. Entries never live forever: a
// non-positive TTL is a no-op rather than a permanent key.
func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if ttlSec <= 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, Key(key), b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, Key(key)).Err()
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }
