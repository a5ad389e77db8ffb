package handlers

// Router assembly: registers every handler at its spec.md §6 path under
// /api/v1, grounded on the teacher's cmd/chatserver/main.go route table.

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hakimino/vyry/internal/attachments"
	"github.com/hakimino/vyry/internal/conversations"
	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/devices"
	"github.com/hakimino/vyry/internal/friends"
	"github.com/hakimino/vyry/internal/identity"
	"github.com/hakimino/vyry/internal/linking"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/messagelog"
	"github.com/hakimino/vyry/internal/metrics"
	"github.com/hakimino/vyry/internal/middleware"
	"github.com/hakimino/vyry/internal/pinlock"
	"github.com/hakimino/vyry/internal/prekeys"
	"github.com/hakimino/vyry/internal/ratelimit"
	"github.com/hakimino/vyry/internal/realtime"
	"github.com/hakimino/vyry/internal/signaling"
)

// Services bundles every use-case service routes.go needs to wire handlers.
type Services struct {
	Identity      *identity.Service
	Devices       *devices.Service
	Linking       *linking.Service
	PreKeys       *prekeys.Service
	Conversations *conversations.Service
	Messages      *messagelog.Service
	Friends       *friends.Service
	Attachments   *attachments.Service

	Issuer  *credentials.Issuer
	Lockout *pinlock.Lockout
	Buckets *ratelimit.Buckets

	RealtimeManager *realtime.Manager
	SignalingRouter *signaling.Router
}

// publicPrefixes lists paths reachable without a bearer token: a new device
// has no credential yet, and prekey bundles are fetchable by any
// authenticated-by-convention peer per spec.md §6.
var publicPrefixes = []string{
	"/api/v1/auth/request-otp",
	"/api/v1/auth/verify-otp",
	"/api/v1/auth/refresh-token",
	"/api/v1/devices/link/complete",
	"/api/v1/keys/",
	"/health",
	"/metrics",
}

func isPublicPath(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/ws") {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return true
		}
	}
	return false
}

var authPaths = []string{
	"/api/v1/auth/request-otp",
	"/api/v1/auth/verify-otp",
	"/api/v1/auth/refresh-token",
}

func isAuthPath(r *http.Request) bool {
	for _, p := range authPaths {
		if strings.HasPrefix(r.URL.Path, p) {
			return true
		}
	}
	return false
}

// NewRouter builds the full HTTP mux: health/metrics, the versioned API
// surface, and the realtime upgrade endpoint.
func NewRouter(svc *Services, log *logging.Logger) *mux.Router {
	root := mux.NewRouter()

	root.HandleFunc("/health", HealthCheck).Methods(http.MethodGet)
	root.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	root.HandleFunc("/ws", WebSocketHandler(svc.RealtimeManager, svc.SignalingRouter, svc.Issuer, log)).Methods(http.MethodGet)
	root.HandleFunc("/ws/", WebSocketHandler(svc.RealtimeManager, svc.SignalingRouter, svc.Issuer, log)).Methods(http.MethodGet)

	api := root.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RateLimit(svc.Buckets, log, isAuthPath))
	api.Use(middleware.Auth(svc.Issuer, log, isPublicPath))

	api.HandleFunc("/auth/request-otp", RequestOTP(svc.Identity, log)).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-otp", VerifyOTP(svc.Identity, log)).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", RefreshToken(svc.Issuer, log)).Methods(http.MethodPost)
	api.HandleFunc("/auth/profile", Profile(svc.Identity, log)).Methods(http.MethodGet)
	api.HandleFunc("/auth/setup-profile", SetupProfile(svc.Identity, log)).Methods(http.MethodPost)
	api.HandleFunc("/auth/setup-pin", SetupPIN(svc.Identity, log)).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-pin", VerifyPIN(svc.Identity, svc.Lockout, log)).Methods(http.MethodPost)
	api.HandleFunc("/auth/pin-status", PINStatus(svc.Identity, log)).Methods(http.MethodGet)
	api.HandleFunc("/auth/skip-pin-setup", SkipPINSetup(svc.Identity, log)).Methods(http.MethodPost)

	api.HandleFunc("/users/{user_id}/safety-number", SafetyNumber(svc.Identity, log)).Methods(http.MethodGet)

	api.HandleFunc("/devices", ListDevices(svc.Devices, log)).Methods(http.MethodGet)
	api.HandleFunc("/devices/{device_id}", UnlinkDevice(svc.Devices, log)).Methods(http.MethodDelete)
	api.HandleFunc("/devices/link/create", CreateLinkingSession(svc.Linking, log)).Methods(http.MethodPost)
	api.HandleFunc("/devices/link/complete", CompleteLinkingSession(svc.Linking, log)).Methods(http.MethodPost)
	api.HandleFunc("/devices/link/approve", ApproveLinkingSession(svc.Linking, log)).Methods(http.MethodPost)

	api.HandleFunc("/keys/{user_id}/devices/{device_id}", GetPreKeyBundle(svc.PreKeys, log)).Methods(http.MethodGet)
	api.HandleFunc("/keys/{user_id}/devices", ListDeviceKeys(svc.PreKeys, log)).Methods(http.MethodGet)
	api.HandleFunc("/keys", UploadKeys(svc.PreKeys, log)).Methods(http.MethodPost)

	api.HandleFunc("/conversations/direct", CreateDirectConversation(svc.Conversations, log)).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/messages", ListConversationMessages(svc.Conversations, svc.Messages, log)).Methods(http.MethodGet)

	api.HandleFunc("/friends/request", RequestFriend(svc.Friends, log)).Methods(http.MethodPost)
	api.HandleFunc("/friends/respond", RespondFriend(svc.Friends, log)).Methods(http.MethodPost)
	api.HandleFunc("/friends", ListFriends(svc.Friends, log)).Methods(http.MethodGet)
	api.HandleFunc("/friends/pending", ListPendingFriendRequests(svc.Friends, log)).Methods(http.MethodGet)
	api.HandleFunc("/friends/block", BlockUser(svc.Friends, log)).Methods(http.MethodPost)
	api.HandleFunc("/friends/search", SearchUsers(svc.Friends, log)).Methods(http.MethodGet)

	api.HandleFunc("/attachments/upload-url", AttachmentUploadURL(svc.Attachments, log)).Methods(http.MethodPost)
	api.HandleFunc("/attachments/download-url", AttachmentDownloadURL(svc.Attachments, log)).Methods(http.MethodGet)

	return root
}
