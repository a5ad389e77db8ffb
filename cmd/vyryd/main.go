// Command vyryd is the messaging core's HTTP/WebSocket server process,
// rebuilt from the teacher's cmd/chatserver/main.go wiring against this
// system's identity/device/prekey/linking/conversation/message/friend
// services and the realtime + signaling plane.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/hakimino/vyry/internal/attachments"
	"github.com/hakimino/vyry/internal/config"
	"github.com/hakimino/vyry/internal/conversations"
	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/devices"
	"github.com/hakimino/vyry/internal/friends"
	"github.com/hakimino/vyry/internal/handlers"
	"github.com/hakimino/vyry/internal/identity"
	"github.com/hakimino/vyry/internal/kv"
	"github.com/hakimino/vyry/internal/linking"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/messagelog"
	"github.com/hakimino/vyry/internal/metrics"
	"github.com/hakimino/vyry/internal/pinlock"
	"github.com/hakimino/vyry/internal/prekeys"
	"github.com/hakimino/vyry/internal/ratelimit"
	"github.com/hakimino/vyry/internal/realtime"
	"github.com/hakimino/vyry/internal/registry"
	"github.com/hakimino/vyry/internal/secrets"
	"github.com/hakimino/vyry/internal/signaling"
	"github.com/hakimino/vyry/internal/sms"
	"github.com/hakimino/vyry/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("vyryd", "").Fatal("config load failed", "error", err)
	}

	log := logging.New("vyryd", cfg.LogFormat)
	log.Info("starting vyryd")

	db, err := store.Open(cfg.PostgresURL)
	if err != nil {
		log.Fatal("database connect failed", "error", err)
	}
	defer db.Close()

	kvStore, err := kv.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connect failed", "error", err)
	}
	defer kvStore.Close()

	secretResolver, err := secrets.NewResolver(cfg.VaultAddr, cfg.VaultToken, cfg.VaultMountPath, cfg.VaultSecretPath, cfg.JWTSecret)
	if err != nil {
		log.Fatal("vault client init failed", "error", err)
	}
	jwtSecret, err := secretResolver.Get()
	if err != nil {
		log.Fatal("jwt secret resolution failed", "error", err)
	}

	issuer := credentials.NewIssuer(jwtSecret, cfg.AccessTokenExpiration, cfg.RefreshTokenExpiration, db)

	otpSender, err := sms.NewClickSendService(log)
	if err != nil {
		log.Warn("clicksend not configured, falling back to dev sender", "error", err)
		otpSender = nil
	}

	var sender identity.Sender
	if otpSender != nil {
		sender = otpSender
	} else {
		sender = sms.NewDevSender(log)
	}

	identitySvc := identity.NewService(db, kvStore, sender, issuer, log)
	devicesSvc := devices.NewService(db)
	prekeysSvc := prekeys.NewService(db)
	linkingSvc := linking.NewService(db, cfg.QRChallengeTTL)
	conversationsSvc := conversations.NewService(db)
	messagesSvc := messagelog.NewService(db)
	friendsSvc := friends.NewService(db)
	lockout := pinlock.NewLockout(kvStore)
	buckets := ratelimit.NewBuckets(kvStore)

	attachmentsSvc, err := attachments.NewService(cfg.MinioURL, cfg.MinioKey, cfg.MinioSecret, cfg.MinioBucket, false)
	if err != nil {
		log.Fatal("attachment store connect failed", "error", err)
	}

	manager := realtime.NewManager()
	router := signaling.NewRouter(manager, messagesSvc, log)

	registrar, err := registry.NewRegistrar(cfg.ConsulURL)
	if err != nil {
		log.Fatal("consul client init failed", "error", err)
	}
	port, err := strconv.Atoi(cfg.ServerPort)
	if err != nil {
		log.Fatal("invalid SERVER_PORT", "error", err)
	}
	if err := registrar.Register(cfg.ServerHost, port, "/health"); err != nil {
		log.Warn("consul registration failed", "error", err)
	}
	defer func() {
		if err := registrar.Deregister(); err != nil {
			log.Warn("consul deregistration failed", "error", err)
		}
	}()

	mux := handlers.NewRouter(&handlers.Services{
		Identity:        identitySvc,
		Devices:         devicesSvc,
		Linking:         linkingSvc,
		PreKeys:         prekeysSvc,
		Conversations:   conversationsSvc,
		Messages:        messagesSvc,
		Friends:         friendsSvc,
		Attachments:     attachmentsSvc,
		Issuer:          issuer,
		Lockout:         lockout,
		Buckets:         buckets,
		RealtimeManager: manager,
		SignalingRouter: router,
	}, log)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:           corsHandler.Handler(metrics.Middleware(mux)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", "signal", sig)

	if err := registrar.Deregister(); err != nil {
		log.Warn("consul deregistration failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown error", "error", err)
	}

	log.Info("vyryd stopped")
}

func corsOrigins() []string {
	v := os.Getenv("CORS_ORIGINS")
	if v == "" {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
