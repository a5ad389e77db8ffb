// Package pinlock hashes and verifies the registration-lock PIN (Argon2id)
// and tracks failed attempts against the KV store per spec.md §3
// ("pin_attempts:<user>", TTL 3600s, cap 5), the same lockout contract
// spec.md §4.2 describes.
package pinlock

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/kv"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16

	attemptTTL   = time.Hour
	maxAttempts  = 5
	keyPrefixFmt = "pin_attempts:%s"
)

const (
	minPINLength = 4
	maxPINLength = 32
)

var ErrPINLength = fmt.Errorf("pinlock: PIN must be %d-%d characters", minPINLength, maxPINLength)

func validatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return ErrPINLength
	}
	return nil
}

// Hash creates an Argon2id encoded hash of a 4-32 character PIN.
func Hash(pin string) (string, error) {
	if err := validatePIN(pin); err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("pinlock: read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(pin), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonTime, argonThreads, b64Salt, b64Hash), nil
}

// Verify checks a candidate PIN against an encoded hash in constant time.
func Verify(pin, encodedHash string) (bool, error) {
	if err := validatePIN(pin); err != nil {
		return false, err
	}

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, errors.New("pinlock: invalid hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(pin), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// Lockout tracks failed PIN attempts per user in the KV store.
type Lockout struct {
	store kv.Store
}

func NewLockout(store kv.Store) *Lockout {
	return &Lockout{store: store}
}

// Check returns an apperr rate-limited error if userID has hit the attempt cap.
func (l *Lockout) Check(ctx context.Context, userID string) error {
	key := fmt.Sprintf(keyPrefixFmt, userID)
	val, err := l.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.KindKV, "check pin lockout", err)
	}
	if val == "" {
		return nil
	}
	var count int
	fmt.Sscanf(val, "%d", &count)
	if count >= maxAttempts {
		ttl, _ := l.store.TTL(ctx, key)
		return apperr.RateLimited("PIN locked due to too many failed attempts", int64(ttl.Seconds()))
	}
	return nil
}

// RecordFailure increments the failed-attempt counter, arming the TTL on
// first failure.
func (l *Lockout) RecordFailure(ctx context.Context, userID string) (int64, error) {
	key := fmt.Sprintf(keyPrefixFmt, userID)
	count, err := l.store.Incr(ctx, key, attemptTTL)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindKV, "record pin failure", err)
	}
	return count, nil
}

// Reset clears the failed-attempt counter after a successful verification.
func (l *Lockout) Reset(ctx context.Context, userID string) error {
	key := fmt.Sprintf(keyPrefixFmt, userID)
	if err := l.store.Del(ctx, key); err != nil {
		return apperr.Wrap(apperr.KindKV, "reset pin lockout", err)
	}
	return nil
}
