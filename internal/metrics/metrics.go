// Package metrics exposes Prometheus counters/gauges for the connection
// manager, prekey store, message log, and rate limiter, trimmed from the
// teacher's far larger metrics surface (media/group/audit/security-
// appliance metrics dropped — this system has no such components).
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vyry_realtime_connections",
			Help: "Number of active realtime connections on this process",
		},
	)

	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vyry_signaling_frames_total",
			Help: "Total number of signaling frames processed",
		},
		[]string{"frame_type", "direction"}, // direction: inbound, outbound
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vyry_messages_sent_total",
			Help: "Total number of message envelopes persisted",
		},
	)

	MessageDeliveryLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vyry_message_delivery_latency_seconds",
			Help:    "Time between a message being sent and its delivery ack",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)

	OTPAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vyry_otp_attempts_total",
			Help: "Total number of OTP verification attempts",
		},
		[]string{"result"}, // success, failure
	)

	PINAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vyry_pin_attempts_total",
			Help: "Total number of PIN verification attempts",
		},
		[]string{"result"}, // success, failure, locked
	)

	PreKeysRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vyry_prekeys_remaining",
			Help: "Number of unused one-time prekeys remaining per device",
		},
		[]string{"device_id"},
	)

	PreKeyBundlesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vyry_prekey_bundles_issued_total",
			Help: "Total number of prekey bundles issued",
		},
	)

	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vyry_rate_limit_requests_total",
			Help: "Total number of rate-limited operations by bucket and result",
		},
		[]string{"bucket", "result"}, // result: allowed, denied
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vyry_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vyry_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Middleware wraps HTTP handlers with request count/duration metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordFrame(frameType, direction string) {
	FramesTotal.WithLabelValues(frameType, direction).Inc()
}

func RecordMessageSent() {
	MessagesSentTotal.Inc()
}

func RecordDeliveryLatency(latency time.Duration) {
	MessageDeliveryLatency.Observe(latency.Seconds())
}

func RecordOTPAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	OTPAttemptsTotal.WithLabelValues(result).Inc()
}

func RecordPINAttempt(result string) {
	PINAttemptsTotal.WithLabelValues(result).Inc()
}

func RecordPreKeyBundleIssued() {
	PreKeyBundlesIssuedTotal.Inc()
}

func RecordRateLimitRequest(bucket, result string) {
	RateLimitRequestsTotal.WithLabelValues(bucket, result).Inc()
}
