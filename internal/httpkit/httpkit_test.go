package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/logging"
)

func TestWriteErrorMapsKindToStatus(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindAuthentication, http.StatusUnauthorized},
		{apperr.KindAuthorization, http.StatusForbidden},
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindRateLimited, http.StatusTooManyRequests},
		{apperr.KindDatabase, http.StatusInternalServerError},
	}
	log := logging.New("test", "")
	for _, c := range cases {
		w := httptest.NewRecorder()
		WriteError(w, log, apperr.New(c.kind, "boom"))
		require.Equal(t, c.want, w.Code)
	}
}

func TestWriteErrorSetsRetryAfterHeader(t *testing.T) {
	w := httptest.NewRecorder()
	log := logging.New("test", "")
	WriteError(w, log, apperr.RateLimited("slow down", 42))
	require.Equal(t, "42", w.Header().Get("Retry-After"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestWriteErrorBodyIsFlatEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	log := logging.New("test", "")
	WriteError(w, log, apperr.RateLimited("slow down", 42))
	require.JSONEq(t, `{"error":"slow down","error_code":"rate_limited","retry_after_seconds":42}`, w.Body.String())
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Body = http.NoBody
	var dst struct{}
	err := DecodeJSON(r, &dst)
	require.Error(t, err)
}
