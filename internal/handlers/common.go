package handlers

// Shared request-context helpers for the handler package, rebuilt from the
// teacher's internal/handlers/common.go against this system's services.

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/middleware"
	"github.com/hakimino/vyry/internal/store"
)

// callerIdentity pulls the authenticated user/device pair out of the
// request context, writing an Authentication error and returning false if
// either is missing (should never happen behind middleware.Auth).
func callerIdentity(w http.ResponseWriter, r *http.Request, log *logging.Logger) (uuid.UUID, int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpkit.WriteError(w, log, apperr.New(apperr.KindAuthentication, "missing caller identity"))
		return uuid.Nil, 0, false
	}
	deviceID, ok := middleware.GetDeviceID(r.Context())
	if !ok {
		httpkit.WriteError(w, log, apperr.New(apperr.KindAuthentication, "missing caller device"))
		return uuid.Nil, 0, false
	}
	return userID, deviceID, true
}

// platformFromString maps the wire platform name to the store's int enum,
// defaulting to web for unrecognized or empty values.
func platformFromString(s string) int {
	switch s {
	case "ios":
		return store.PlatformIOS
	case "android":
		return store.PlatformAndroid
	case "desktop":
		return store.PlatformDesktop
	default:
		return store.PlatformWeb
	}
}

// HealthCheck reports process liveness.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
