// Package middleware provides HTTP middleware shared across the API
// surface, starting with JWT authentication, rebuilt from the teacher's
// internal/middleware/auth.go against credentials.Issuer instead of the
// teacher's internal/auth.AuthService.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	DeviceIDKey contextKey = "device_id"
)

// Auth validates the bearer access token on every request except those
// skipAuth marks public, injecting the caller's user and device IDs into
// the request context.
func Auth(issuer *credentials.Issuer, log *logging.Logger, skipAuth func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAuth != nil && skipAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpkit.WriteError(w, log, apperr.New(apperr.KindAuthentication, "authorization header required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpkit.WriteError(w, log, apperr.New(apperr.KindAuthentication, "invalid authorization header format"))
				return
			}

			claims, err := issuer.Validate(parts[1], "access")
			if err != nil {
				httpkit.WriteError(w, log, err)
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				httpkit.WriteError(w, log, apperr.New(apperr.KindAuthentication, "malformed token subject"))
				return
			}
			deviceID, err := strconv.ParseInt(claims.DeviceID, 10, 64)
			if err != nil {
				httpkit.WriteError(w, log, apperr.New(apperr.KindAuthentication, "malformed token device"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, DeviceIDKey, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetDeviceID extracts the authenticated device ID from context.
func GetDeviceID(ctx context.Context) (int64, bool) {
	deviceID, ok := ctx.Value(DeviceIDKey).(int64)
	return deviceID, ok
}
