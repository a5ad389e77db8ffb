package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewarePassesThroughResponse(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends/request", nil)
	rec := httptest.NewRecorder()

	Middleware(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestMiddlewareDefaultsStatusTo200WhenUnset(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("no explicit header"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	Middleware(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordHelpersDoNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		RecordFrame("offer", "inbound")
		RecordMessageSent()
		RecordOTPAttempt(true)
		RecordOTPAttempt(false)
		RecordPINAttempt("locked")
		RecordPreKeyBundleIssued()
		RecordRateLimitRequest("auth", "denied")
	})
}
