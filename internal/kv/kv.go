// Package kv wraps the ephemeral-state operations spec.md §3 requires:
// OTP codes, OTP/PIN attempt counters, and the rate limiter's token
// buckets. It is the only package that imports redis/go-redis directly;
// everything else goes through the Store interface so tests can fake it.
package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key has no value (absent or expired).
var ErrNotFound = errors.New("kv: key not found")

// Store is the narrow KV surface the rest of the codebase depends on.
type Store interface {
	// Set stores value at key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Del removes a key.
	Del(ctx context.Context, key string) error
	// TTL returns the remaining time-to-live, or <=0 if absent/expired.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Incr increments a counter, setting ttl on the key only on first creation.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisStore is the production Store backed by Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore dials Redis using a redis:// URL.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Incr implements the classic INCR + conditional EXPIRE pattern: the TTL
// is only (re)armed the first time the counter is created so repeated
// calls within the window don't keep pushing the expiry out.
func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Client exposes the underlying redis.Client for packages (ratelimit) that
// need lower-level primitives than the Store interface offers.
func (s *RedisStore) Client() *redis.Client { return s.client }
