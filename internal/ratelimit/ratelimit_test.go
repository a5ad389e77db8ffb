package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hakimino/vyry/internal/kv"
)

type memStore struct {
	counts map[string]int64
	ttl    map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{counts: map[string]int64{}, ttl: map[string]time.Duration{}}
}

func (s *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }
func (s *memStore) Get(ctx context.Context, key string) (string, error)                 { return "", kv.ErrNotFound }
func (s *memStore) Del(ctx context.Context, key string) error                           { delete(s.counts, key); return nil }
func (s *memStore) TTL(ctx context.Context, key string) (time.Duration, error)          { return s.ttl[key], nil }

func (s *memStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.counts[key]++
	if s.counts[key] == 1 {
		s.ttl[key] = ttl
	}
	return s.counts[key], nil
}

func TestLimiterAllowsWithinBudget(t *testing.T) {
	store := newMemStore()
	limiter := NewLimiter(store, "rl:test", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(ctx, "key"))
	}
}

func TestLimiterRejectsOverBudget(t *testing.T) {
	store := newMemStore()
	limiter := NewLimiter(store, "rl:test", 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "key"))
	require.NoError(t, limiter.Allow(ctx, "key"))
	require.Error(t, limiter.Allow(ctx, "key"))
}
