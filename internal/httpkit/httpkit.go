// Package httpkit is the transport boundary: it maps apperr.Kind to HTTP
// status codes and writes a uniform JSON envelope, grounded on the
// teacher's internal/handlers/common.go writeJSON helper.
package httpkit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/logging"
)

// WriteJSON writes v as a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logging.New("httpkit", "")
		log.Error("encode response failed", "error", err)
	}
}

// errorEnvelope is the uniform error body shape.
type errorEnvelope struct {
	Error         string `json:"error"`
	ErrorCode     string `json:"error_code"`
	RetryAfterSec int64  `json:"retry_after_seconds,omitempty"`
}

// statusFor maps an apperr.Kind to the HTTP status this boundary returns.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindDatabase, apperr.KindKV, apperr.KindCryptographic, apperr.KindConfiguration, apperr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as the uniform error envelope, choosing the status
// code from its apperr.Kind (defaulting to 500 for unclassified errors).
func WriteError(w http.ResponseWriter, log *logging.Logger, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Wrap(apperr.KindInternal, "internal error", err)
	}

	status := statusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "kind", appErr.Kind)
	}

	var env errorEnvelope
	env.Error = appErr.Message
	env.ErrorCode = string(appErr.Kind)
	env.RetryAfterSec = appErr.RetryAfterSec

	if appErr.RetryAfterSec > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(appErr.RetryAfterSec, 10))
	}
	WriteJSON(w, status, env)
}

// DecodeJSON decodes a request body into dst, returning a Validation apperr
// on malformed JSON.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed request body", err)
	}
	return nil
}
