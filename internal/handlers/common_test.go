package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakimino/vyry/internal/store"
)

func TestPlatformFromStringMapsKnownValues(t *testing.T) {
	require.Equal(t, store.PlatformIOS, platformFromString("ios"))
	require.Equal(t, store.PlatformAndroid, platformFromString("android"))
	require.Equal(t, store.PlatformDesktop, platformFromString("desktop"))
}

func TestPlatformFromStringDefaultsToWeb(t *testing.T) {
	require.Equal(t, store.PlatformWeb, platformFromString("web"))
	require.Equal(t, store.PlatformWeb, platformFromString(""))
	require.Equal(t, store.PlatformWeb, platformFromString("smart-fridge"))
}

func TestHealthCheckReportsHealthy(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	HealthCheck(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestCallerIdentityFailsWithoutContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	w := httptest.NewRecorder()

	_, _, ok := callerIdentity(w, r, nil)
	require.False(t, ok)
}
