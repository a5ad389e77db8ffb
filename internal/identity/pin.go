package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/pinlock"
	"github.com/hakimino/vyry/internal/store"
)

// PINSetupRequest is the registration-lock setup payload of spec.md §4.2.
type PINSetupRequest struct {
	PIN                   string
	ConfirmPIN            string
	EnableRegistrationLock bool
}

// SetupPIN validates and hashes a new PIN, persisting it and the
// registration-lock flag.
func (s *Service) SetupPIN(ctx context.Context, lockout *pinlock.Lockout, userID uuid.UUID, req PINSetupRequest) error {
	if req.PIN != req.ConfirmPIN {
		return apperr.New(apperr.KindValidation, "pin and confirm_pin do not match")
	}
	if len(req.PIN) < 4 || len(req.PIN) > 32 {
		return apperr.New(apperr.KindValidation, "pin must be between 4 and 32 characters")
	}

	hash, err := pinlock.Hash(req.PIN)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "hash pin", err)
	}
	if err := s.db.SetPIN(ctx, userID, hash, req.EnableRegistrationLock); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "persist pin", err)
	}
	return nil
}

// SkipPIN clears any PIN and registration lock, stamping pin_set_at so
// clients know setup was presented and explicitly skipped.
func (s *Service) SkipPIN(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.ClearPIN(ctx, userID); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "skip pin", err)
	}
	return nil
}

// PINVerifyResult reports the outcome of a PIN check without revealing
// whether the user ever set one beyond the HasPIN flag.
type PINVerifyResult struct {
	Verified                bool
	HasPIN                   bool
	AttemptsRemaining        int
	LockoutRemainingSeconds  int64
}

// PINStatus reports whether the user currently has a PIN set.
func (s *Service) PINStatus(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.db.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return false, apperr.Wrap(apperr.KindDatabase, "fetch pin status", err)
	}
	return u.PINHash.Valid, nil
}

const maxPINAttempts = 5

// VerifyPIN checks a candidate PIN against the stored hash, honoring the
// KV-backed lockout counter.
func (s *Service) VerifyPIN(ctx context.Context, lockout *pinlock.Lockout, userID uuid.UUID, pin string) (*PINVerifyResult, error) {
	u, err := s.db.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "find user for pin verify", err)
	}

	if err := lockout.Check(ctx, userID.String()); err != nil {
		if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.KindRateLimited {
			return &PINVerifyResult{
				Verified:                false,
				HasPIN:                  u.PINHash.Valid,
				AttemptsRemaining:       0,
				LockoutRemainingSeconds: appErr.RetryAfterSec,
			}, nil
		}
		return nil, err
	}

	if !u.PINHash.Valid {
		return &PINVerifyResult{Verified: false, HasPIN: false, AttemptsRemaining: maxPINAttempts}, nil
	}

	ok, err := pinlock.Verify(pin, u.PINHash.String)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "verify pin", err)
	}
	if ok {
		_ = lockout.Reset(ctx, userID.String())
		return &PINVerifyResult{Verified: true, HasPIN: true, AttemptsRemaining: maxPINAttempts}, nil
	}

	count, err := lockout.RecordFailure(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	remaining := maxPINAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &PINVerifyResult{Verified: false, HasPIN: true, AttemptsRemaining: remaining}, nil
}
