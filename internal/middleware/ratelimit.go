package middleware

import (
	"net/http"
	"strings"

	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/ratelimit"
)

// RateLimit enforces the IP-scoped request budget on every request except
// websocket upgrades, and the tighter auth budget on isAuthPath requests.
// Rebuilt from the teacher's EnhancedRateLimiter, trimmed to the two IP
// buckets ratelimit.Buckets defines. OTP attempts per phone and PIN failures
// per user are capped by internal/identity and internal/pinlock with their
// own KV counters; the PhoneOTP and UserPIN buckets are not consulted.
func RateLimit(buckets *ratelimit.Buckets, log *logging.Logger, isAuthPath func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") || strings.HasPrefix(r.URL.Path, "/ws") {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if err := buckets.IPRequest.Allow(r.Context(), ip); err != nil {
				httpkit.WriteError(w, log, err)
				return
			}
			if isAuthPath != nil && isAuthPath(r) {
				if err := buckets.IPAuth.Allow(r.Context(), ip); err != nil {
					httpkit.WriteError(w, log, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
