// Package ratelimit implements the three token buckets spec.md §4.10
// names: (phone, OTP), (user, PIN), and (IP, request). Trimmed from the
// teacher's internal/middleware/ratelimit.go EnhancedRateLimiter, which
// tracked many more tiers than this system needs.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/kv"
)

// Limiter is a Redis INCR+EXPIRE token bucket over a configurable window.
type Limiter struct {
	store  kv.Store
	prefix string
	limit  int64
	window time.Duration
}

func NewLimiter(store kv.Store, prefix string, limit int64, window time.Duration) *Limiter {
	return &Limiter{store: store, prefix: prefix, limit: limit, window: window}
}

// Allow increments the bucket for key and fails RateLimited once the
// budget is exhausted within the window.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	count, err := l.store.Incr(ctx, fmt.Sprintf("%s:%s", l.prefix, key), l.window)
	if err != nil {
		return apperr.Wrap(apperr.KindKV, "rate limit check", err)
	}
	if count > l.limit {
		ttl, _ := l.store.TTL(ctx, fmt.Sprintf("%s:%s", l.prefix, key))
		retry := int64(ttl.Seconds())
		if retry <= 0 {
			retry = int64(l.window.Seconds())
		}
		return apperr.RateLimited("rate limit exceeded", retry)
	}
	return nil
}

// Buckets groups the four rate limiters the router needs.
type Buckets struct {
	PhoneOTP   *Limiter
	UserPIN    *Limiter
	IPRequest  *Limiter
	IPAuth     *Limiter
}

// NewBuckets wires the three+one buckets spec.md §4.10 describes: global
// IP budget of 100/min, a tighter 10/min budget on auth endpoints, OTP
// requests per phone, and PIN verification per user.
func NewBuckets(store kv.Store) *Buckets {
	return &Buckets{
		PhoneOTP:  NewLimiter(store, "rl:otp", 5, 10*time.Minute),
		UserPIN:   NewLimiter(store, "rl:pin", 5, time.Hour),
		IPRequest: NewLimiter(store, "rl:ip", 100, time.Minute),
		IPAuth:    NewLimiter(store, "rl:ip_auth", 10, time.Minute),
	}
}
