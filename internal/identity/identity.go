// Package identity implements the Identity Service: phone OTP issuance and
// verification, and profile setup/fetch. This is the five-step
// transactional flow of spec.md §4.1, grounded on the teacher's
// internal/auth/auth.go OTP handling and internal/handlers/auth_handlers.go,
// adapted to the multi-device/registration-lock shape this system needs.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/kv"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/signalkeys"
	"github.com/hakimino/vyry/internal/store"
)

const (
	otpTTL         = 180 * time.Second
	otpAttemptTTL  = 600 * time.Second
	otpMaxAttempts = 5
	oneTimePreKeyBatch = 100
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)

// Sender delivers an OTP code to a phone number. Production wiring plugs
// in an SMS provider; the core only depends on this interface.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// Service implements OTP issuance/verification and profile management.
type Service struct {
	db       *store.DB
	kv       kv.Store
	sender   Sender
	issuer   *credentials.Issuer
	log      *logging.Logger
}

func NewService(db *store.DB, kvStore kv.Store, sender Sender, issuer *credentials.Issuer, log *logging.Logger) *Service {
	return &Service{db: db, kv: kvStore, sender: sender, issuer: issuer, log: log}
}

func otpKey(phone string) string         { return "otp:" + phone }
func otpAttemptsKey(phone string) string { return "otp_attempts:" + phone }

// RequestOTP generates and stores a 6-digit code, subject to a 5-attempt
// per-10-minute budget. Returns the code too, so tests and local dev can
// bypass the SMS side-effect.
func (s *Service) RequestOTP(ctx context.Context, phone string) (code string, err error) {
	attempts, err := s.kv.Incr(ctx, otpAttemptsKey(phone), otpAttemptTTL)
	if err != nil {
		return "", apperr.Wrap(apperr.KindKV, "check otp attempts", err)
	}
	if attempts > otpMaxAttempts {
		ttl, _ := s.kv.TTL(ctx, otpAttemptsKey(phone))
		return "", apperr.RateLimited("too many OTP requests for this phone number", int64(ttl.Seconds()))
	}

	code, err = generateOTPCode()
	if err != nil {
		return "", apperr.Wrap(apperr.KindCryptographic, "generate otp", err)
	}

	if err := s.kv.Set(ctx, otpKey(phone), code, otpTTL); err != nil {
		return "", apperr.Wrap(apperr.KindKV, "store otp", err)
	}

	if s.sender != nil {
		if err := s.sender.SendOTP(ctx, phone, code); err != nil {
			s.log.Warn("otp send failed", "phone", phone, "error", err)
		}
	}

	return code, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// VerifyResult is returned on a successful OTP verification.
type VerifyResult struct {
	Tokens                *credentials.TokenPair
	UserID                uuid.UUID
	DeviceID              int64
	IsNewUser             bool
	RequiresProfileSetup  bool
	RequiresPIN           bool
}

// VerifyOTP checks the code and, on success, runs the five-step
// find-or-create/register-device transaction described in spec.md §4.1.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string, deviceUUID uuid.UUID, deviceName string, platform int) (*VerifyResult, error) {
	stored, err := s.kv.Get(ctx, otpKey(phone))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, apperr.New(apperr.KindAuthentication, "otp expired or not requested")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindKV, "read otp", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, apperr.New(apperr.KindAuthentication, "incorrect otp code")
	}
	_ = s.kv.Del(ctx, otpKey(phone))

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "begin verify tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	isNewUser := false
	user, err := s.db.FindUserByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		isNewUser = true
		newID := uuid.New()
		if err := store.CreateUserTx(ctx, tx, newID, phone, hashPhone(phone)); err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, "create user", err)
		}
		user, err = s.db.FindUserByID(ctx, newID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, "reload new user", err)
		}
	} else if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "find user by phone", err)
	}

	if err := store.EvictPrimaryDevicesTx(ctx, tx, user.ID); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "evict primary devices", err)
	}

	if existing, err := s.db.FindDeviceByUUID(ctx, deviceUUID); err == nil && existing.UserID == user.ID {
		if err := store.DeleteDeviceAndPrekeysTx(ctx, tx, user.ID, deviceUUID); err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, "clear stale device", err)
		}
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindDatabase, "lookup stale device", err)
	}

	idKP, err := signalkeys.GenerateIdentityKeyPair()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate identity keypair", err)
	}
	regID, err := signalkeys.GenerateRegistrationID()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate registration id", err)
	}
	spkKP, err := signalkeys.GenerateX25519KeyPair()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate signed prekey", err)
	}
	signedPreKey := signalkeys.SignPreKey(idKP.Private, 1, spkKP.Public)
	otks, _, err := signalkeys.GenerateOneTimePreKeys(1, oneTimePreKeyBatch)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate one-time prekeys", err)
	}

	deviceID, err := store.InsertDeviceTx(ctx, tx, store.NewDevice{
		DeviceUUID:         deviceUUID,
		UserID:             user.ID,
		Platform:           platform,
		DeviceType:         store.DeviceTypePrimary,
		IdentityPublicKey:  idKP.Public,
		RegistrationID:     int(regID),
		SignedPreKeyID:     signedPreKey.KeyID,
		SignedPreKeyPublic: signedPreKey.PublicKey[:],
		SignedPreKeySig:    signedPreKey.Signature[:],
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "insert primary device", err)
	}

	rows := make([]store.OneTimePreKey, 0, len(otks))
	for _, k := range otks {
		rows = append(rows, store.OneTimePreKey{DeviceID: deviceID, PreKeyID: k.KeyID, PublicKey: k.PublicKey[:]})
	}
	if err := store.BulkInsertOneTimePreKeysTx(ctx, tx, deviceID, rows); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "insert one-time prekeys", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "commit verify tx", err)
	}

	tokens, err := s.issuer.Issue(user.ID.String(), fmt.Sprintf("%d", deviceID))
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Tokens:               tokens,
		UserID:                user.ID,
		DeviceID:              deviceID,
		IsNewUser:             isNewUser,
		RequiresProfileSetup: !user.DisplayName.Valid || user.DisplayName.String == "",
		RequiresPIN:           user.RegistrationLock && user.PINHash.Valid,
	}, nil
}

func hashPhone(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:])
}

// ProfileUpdateRequest carries only the fields the client sent.
type ProfileUpdateRequest struct {
	DisplayName   *string
	Username      *string
	Bio           *string
	AvatarURL     *string
	BackgroundURL *string
}

// UpdateProfile validates and applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req ProfileUpdateRequest) error {
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		if len(trimmed) < 2 || len(trimmed) > 100 {
			return apperr.New(apperr.KindValidation, "display name must be 2-100 characters")
		}
		req.DisplayName = &trimmed
	}
	if req.Username != nil && *req.Username != "" && !usernameRegex.MatchString(*req.Username) {
		return apperr.New(apperr.KindValidation, "username must match ^[A-Za-z0-9_-]{3,30}$")
	}
	if req.Bio != nil && len(*req.Bio) > 500 {
		return apperr.New(apperr.KindValidation, "bio must be 500 characters or fewer")
	}
	if req.AvatarURL != nil && *req.AvatarURL != "" && !isHTTPURL(*req.AvatarURL) {
		return apperr.New(apperr.KindValidation, "avatar_url must be a well-formed http(s) URL")
	}
	if req.BackgroundURL != nil && *req.BackgroundURL != "" && !isHTTPURL(*req.BackgroundURL) {
		return apperr.New(apperr.KindValidation, "background_url must be a well-formed http(s) URL")
	}

	err := s.db.UpdateProfile(ctx, userID, store.ProfileUpdate{
		DisplayName:   req.DisplayName,
		Username:      req.Username,
		Bio:           req.Bio,
		AvatarURL:     req.AvatarURL,
		BackgroundURL: req.BackgroundURL,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.KindConflict, "username already taken")
		}
		return apperr.Wrap(apperr.KindDatabase, "update profile", err)
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate key")
}

// Profile is the outward-facing, privacy-masked user profile.
type Profile struct {
	UserID        uuid.UUID
	MaskedPhone   string
	DisplayName   string
	Username      string
	Bio           string
	AvatarURL     string
	BackgroundURL string
}

// FetchProfile returns a user's profile with the phone number masked to
// "****" + last four digits.
func (s *Service) FetchProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.db.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "fetch profile", err)
	}
	return &Profile{
		UserID:        u.ID,
		MaskedPhone:   maskPhone(u.PhoneNumber),
		DisplayName:   nullableString(u.DisplayName),
		Username:      nullableString(u.Username),
		Bio:           nullableString(u.Bio),
		AvatarURL:     nullableString(u.AvatarURL),
		BackgroundURL: nullableString(u.BackgroundURL),
	}, nil
}

func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}

func nullableString(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

// safetyNumberParty is the identity material a safety number is computed
// from: a user's phone number and their primary device's identity key.
type safetyNumberParty struct {
	phone       string
	identityKey []byte
}

// SafetyNumber computes a 60-digit verification code for a pair of users,
// adapted from the teacher's security.ComputeSafetyNumber, so clients can
// detect identity-key rotation (a changed code means one party re-keyed,
// e.g. reinstalled or linked a new primary device). Both parties compute
// the same code regardless of call order.
func (s *Service) SafetyNumber(ctx context.Context, userA, userB uuid.UUID) (string, error) {
	a, err := s.safetyNumberParty(ctx, userA)
	if err != nil {
		return "", err
	}
	b, err := s.safetyNumberParty(ctx, userB)
	if err != nil {
		return "", err
	}
	return computeSafetyNumber(a, b), nil
}

func (s *Service) safetyNumberParty(ctx context.Context, userID uuid.UUID) (safetyNumberParty, error) {
	u, err := s.db.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return safetyNumberParty{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return safetyNumberParty{}, apperr.Wrap(apperr.KindDatabase, "fetch user for safety number", err)
	}

	devs, err := s.db.ListActiveDevices(ctx, userID)
	if err != nil {
		return safetyNumberParty{}, apperr.Wrap(apperr.KindDatabase, "fetch device for safety number", err)
	}
	var dev *store.Device
	for _, d := range devs {
		if d.DeviceType == store.DeviceTypePrimary {
			dev = d
			break
		}
	}
	if dev == nil {
		return safetyNumberParty{}, apperr.New(apperr.KindNotFound, "no active primary device for user")
	}
	if len(dev.IdentityPublicKey) == 0 {
		return safetyNumberParty{}, apperr.New(apperr.KindNotFound, "identity key not yet uploaded")
	}

	return safetyNumberParty{phone: u.PhoneNumber, identityKey: dev.IdentityPublicKey}, nil
}

// computeSafetyNumber hashes both parties' identity key + phone (sorted by
// phone so order doesn't matter) into a 60-digit code, 12 groups of 5
// digits, the same encoding the teacher's ComputeSafetyNumber uses.
func computeSafetyNumber(a, b safetyNumberParty) string {
	var combined string
	if a.phone < b.phone {
		combined = string(a.identityKey) + a.phone + string(b.identityKey) + b.phone
	} else {
		combined = string(b.identityKey) + b.phone + string(a.identityKey) + a.phone
	}

	hash := sha256.Sum256([]byte(combined))

	digits := make([]byte, 0, 60)
	for i := 0; i < 12; i++ {
		offset := i * 5 / 2
		var value uint32
		if i%2 == 0 {
			value = uint32(hash[offset])<<12 | uint32(hash[offset+1])<<4 | uint32(hash[offset+2])>>4
		} else {
			value = uint32(hash[offset]&0x0F)<<16 | uint32(hash[offset+1])<<8 | uint32(hash[offset+2])
		}
		value %= 100000
		digits = append(digits,
			'0'+byte((value/10000)%10),
			'0'+byte((value/1000)%10),
			'0'+byte((value/100)%10),
			'0'+byte((value/10)%10),
			'0'+byte(value%10),
		)
	}
	return string(digits)
}

// FormatSafetyNumber splits a 60-digit safety number into two rows of six
// 5-digit groups for display, matching the teacher's FormatSafetyNumber.
func FormatSafetyNumber(safetyNumber string) string {
	if len(safetyNumber) != 60 {
		return safetyNumber
	}
	groups := make([]string, 12)
	for i := 0; i < 12; i++ {
		groups[i] = safetyNumber[i*5 : i*5+5]
	}
	return strings.Join(groups[:6], " ") + "\n" + strings.Join(groups[6:], " ")
}
