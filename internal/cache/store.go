// Package cache defines the lookaside cache used by the public routes.  The
// store is injectable so handlers and middleware never talk to Redis
// directly, and a second process instance shares the same invalidations.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a volatile lookaside cache keyed by route-derived strings.
// Invalidation is event-driven: catalog writes clear whole key prefixes, no
// TTL is required (Set still accepts one as a safety net).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	InvalidateByPrefix(ctx context.Context, prefix string) error
}

// RedisStore implements Store on a Redis client.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns nil when no client is available so callers can
// degrade to uncached operation.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		return nil
	}
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return bs, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if ttl > 0 {
		_ = s.rdb.SetEx(ctx, key, val, ttl).Err()
		return
	}
	_ = s.rdb.Set(ctx, key, val, 0).Err()
}

// InvalidateByPrefix deletes every key starting with prefix using SCAN so
// large keyspaces are not blocked by a KEYS call.
func (s *RedisStore) InvalidateByPrefix(ctx context.Context, prefix string) error {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 200 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.rdb.Del(ctx, keys...).Err()
	}
	return nil
}
