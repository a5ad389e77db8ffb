package handlers

// WebSocket upgrade handler: authenticates the caller, negotiates a wire
// format, registers the connection with the Connection Manager, and wires
// the Signaling Router as the per-frame callback. Rebuilt from the
// teacher's internal/handlers/websocket_handlers.go WebSocketHandler
// against internal/realtime and internal/signaling.

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/metrics"
	"github.com/hakimino/vyry/internal/realtime"
	"github.com/hakimino/vyry/internal/signaling"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// SECURITY: reject cross-origin upgrades outside local development.
		return os.Getenv("DEV_MODE") == "true" || r.Header.Get("Origin") == ""
	},
}

// WebSocketHandler upgrades an authenticated HTTP request to a realtime
// connection. The access token travels as a query parameter (`?token=`)
// since browser WebSocket clients cannot set custom headers on the
// handshake request.
func WebSocketHandler(manager *realtime.Manager, router *signaling.Router, issuer *credentials.Issuer, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "token query parameter required", http.StatusUnauthorized)
			return
		}
		claims, err := issuer.Validate(token, "access")
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			http.Error(w, "malformed token subject", http.StatusUnauthorized)
			return
		}
		deviceID, err := strconv.ParseInt(claims.DeviceID, 10, 64)
		if err != nil {
			http.Error(w, "malformed token device", http.StatusUnauthorized)
			return
		}

		format := signaling.FormatJSON
		if strings.EqualFold(r.URL.Query().Get("format"), "msgpack") {
			format = signaling.FormatMsgPack
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := realtime.NewClient(conn, log)
		registered := manager.Register(userID, deviceID, client)
		metrics.ActiveConnections.Inc()

		session := &signaling.Session{UserID: userID, DeviceID: deviceID, Format: format, Conn: registered}
		client.OnMessage = func(raw []byte) {
			router.Handle(context.Background(), session, raw)
		}
		client.OnClose = func() {
			manager.Unregister(registered.ID)
			metrics.ActiveConnections.Dec()
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
