package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingAuthorizationHeader(t *testing.T) {
	issuer := credentials.NewIssuer("secret", time.Hour, time.Hour, nil)
	log := logging.New("test", "")
	handler := Auth(issuer, log, nil)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMalformedAuthorizationHeader(t *testing.T) {
	issuer := credentials.NewIssuer("secret", time.Hour, time.Hour, nil)
	log := logging.New("test", "")
	handler := Auth(issuer, log, nil)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	r.Header.Set("Authorization", "not-a-bearer-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthSkipsPublicPaths(t *testing.T) {
	issuer := credentials.NewIssuer("secret", time.Hour, time.Hour, nil)
	log := logging.New("test", "")
	skip := func(r *http.Request) bool { return true }
	handler := Auth(issuer, log, skip)(okHandler())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/request-otp", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthAcceptsValidBearerTokenAndInjectsContext(t *testing.T) {
	issuer := credentials.NewIssuer("secret", time.Hour, time.Hour, nil)
	log := logging.New("test", "")

	userID := uuid.New()
	pair, err := issuer.Issue(userID.String(), "7")
	require.NoError(t, err)

	var gotUserID uuid.UUID
	var gotDeviceID int64
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, ok = GetUserID(r.Context())
		require.True(t, ok)
		gotDeviceID, ok = GetDeviceID(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(issuer, log, nil)(inner)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userID, gotUserID)
	require.Equal(t, int64(7), gotDeviceID)
}

func TestAuthRejectsRefreshTokenOnAccessRoute(t *testing.T) {
	issuer := credentials.NewIssuer("secret", time.Hour, time.Hour, nil)
	log := logging.New("test", "")

	pair, err := issuer.Issue(uuid.New().String(), "1")
	require.NoError(t, err)

	handler := Auth(issuer, log, nil)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	r.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserIDMissingFromContext(t *testing.T) {
	_, ok := GetUserID(context.Background())
	require.False(t, ok)
}

func TestGetDeviceIDMissingFromContext(t *testing.T) {
	_, ok := GetDeviceID(context.Background())
	require.False(t, ok)
}
