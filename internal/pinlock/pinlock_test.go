package pinlock

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hakimino/vyry/internal/kv"
)

type memStore struct {
	m   map[string]string
	ttl map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{m: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (s *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.m[key] = value
	s.ttl[key] = ttl
	return nil
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.m[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Del(ctx context.Context, key string) error {
	delete(s.m, key)
	delete(s.ttl, key)
	return nil
}

func (s *memStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.ttl[key], nil
}

func (s *memStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64
	if v, ok := s.m[key]; ok {
		fmt.Sscanf(v, "%d", &count)
	}
	count++
	s.m[key] = fmt.Sprint(count)
	if count == 1 {
		s.ttl[key] = ttl
	}
	return count, nil
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	hash, err := Hash("123456")
	require.NoError(t, err)

	ok, err := Verify("123456", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify("654321", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashRejectsTooShort(t *testing.T) {
	_, err := Hash("12")
	require.ErrorIs(t, err, ErrPINLength)
}

func TestHashRejectsTooLong(t *testing.T) {
	_, err := Hash(strings.Repeat("a", 33))
	require.ErrorIs(t, err, ErrPINLength)
}

func TestHashAcceptsNonNumericWithinBounds(t *testing.T) {
	hash, err := Hash("a-5-character-pin-here")
	require.NoError(t, err)

	ok, err := Verify("a-5-character-pin-here", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHashAcceptsFiveDigitPIN(t *testing.T) {
	_, err := Hash("12345")
	require.NoError(t, err)
}

func TestLockoutLocksAfterMaxAttempts(t *testing.T) {
	store := newMemStore()
	lockout := NewLockout(store)
	ctx := context.Background()

	require.NoError(t, lockout.Check(ctx, "user-1"))

	for i := 0; i < maxAttempts; i++ {
		_, err := lockout.RecordFailure(ctx, "user-1")
		require.NoError(t, err)
	}

	err := lockout.Check(ctx, "user-1")
	require.Error(t, err)
}

func TestLockoutResetClearsCounter(t *testing.T) {
	store := newMemStore()
	lockout := NewLockout(store)
	ctx := context.Background()

	for i := 0; i < maxAttempts; i++ {
		_, _ = lockout.RecordFailure(ctx, "user-2")
	}
	require.NoError(t, lockout.Reset(ctx, "user-2"))
	require.NoError(t, lockout.Check(ctx, "user-2"))
}
