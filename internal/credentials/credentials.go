// Package credentials issues and validates the JWT access/refresh tokens
// that stand in for a signed-in session, adapted from the teacher's
// internal/auth/auth.go token logic, trimmed of its TOTP and Redis
// blacklist machinery (not part of this system's scope) but keeping its
// dual-secret rotation support so a secret can be rotated without
// invalidating every outstanding token at once.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hakimino/vyry/internal/apperr"
)

// DeviceLookup is the narrow device-status check RefreshAccessToken needs,
// satisfied by *store.DB. Kept as an interface so credentials doesn't
// import store directly and so tests can fake it without a database.
type DeviceLookup interface {
	IsDeviceActive(ctx context.Context, deviceID int64) (bool, error)
}

// Claims is the JWT payload carried by both access and refresh tokens,
// distinguished by TokenType.
type Claims struct {
	UserID    string `json:"uid"`
	DeviceID  string `json:"did"`
	TokenType string `json:"typ"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Issuer mints and validates tokens using a current secret and, during a
// rotation window, an optional previous secret still accepted for
// validation.
type Issuer struct {
	currentSecret  []byte
	previousSecret []byte
	accessTTL      time.Duration
	refreshTTL     time.Duration
	devices        DeviceLookup
}

// NewIssuer builds an Issuer. devices may be nil, in which case
// RefreshAccessToken skips the device-active check (used by tests that
// don't wire a database).
func NewIssuer(currentSecret string, accessTTL, refreshTTL time.Duration, devices DeviceLookup) *Issuer {
	return &Issuer{
		currentSecret: []byte(currentSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		devices:       devices,
	}
}

// RotateSecret installs a new current secret, retaining the old one for
// validation only, so tokens issued before the rotation keep working until
// they naturally expire.
func (i *Issuer) RotateSecret(newSecret string) {
	i.previousSecret = i.currentSecret
	i.currentSecret = []byte(newSecret)
}

// TokenPair is the access+refresh pair returned at login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Issue mints a fresh access/refresh token pair for a user+device.
func (i *Issuer) Issue(userID, deviceID string) (*TokenPair, error) {
	access, err := i.sign(userID, deviceID, "access", i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, deviceID, "refresh", i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *Issuer) sign(userID, deviceID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		DeviceID:  deviceID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.currentSecret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCryptographic, "sign token", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, trying the current secret first
// and falling back to the previous secret during a rotation window.
func (i *Issuer) Validate(tokenString, wantType string) (*Claims, error) {
	claims, err := i.parseWithSecret(tokenString, i.currentSecret)
	if err != nil && i.previousSecret != nil {
		claims, err = i.parseWithSecret(tokenString, i.previousSecret)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuthentication, "invalid token", err)
	}
	if claims.TokenType != wantType {
		return nil, apperr.New(apperr.KindAuthentication, fmt.Sprintf("expected %s token, got %s", wantType, claims.TokenType))
	}
	return claims, nil
}

func (i *Issuer) parseWithSecret(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

// RefreshAccessToken validates a refresh token, confirms the owning device
// is still active (an unlinked device's refresh token stops working
// immediately — this is the revocation channel; access tokens already
// issued are not rechecked and stay valid until they expire), and mints a
// fresh access/refresh pair, enabling rotation on every refresh.
func (i *Issuer) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := i.Validate(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	if i.devices != nil {
		deviceID, err := strconv.ParseInt(claims.DeviceID, 10, 64)
		if err != nil {
			return nil, apperr.New(apperr.KindAuthentication, "malformed token device")
		}
		active, err := i.devices.IsDeviceActive(ctx, deviceID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, "check device status", err)
		}
		if !active {
			return nil, apperr.New(apperr.KindAuthorization, "device has been unlinked")
		}
	}

	return i.Issue(claims.UserID, claims.DeviceID)
}
