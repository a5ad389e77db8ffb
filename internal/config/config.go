// Package config loads process-wide configuration from environment
// variables, cascading .env files the way the teacher's chat server does:
// .env -> .env.<NODE_ENV> -> .env.local.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the messaging core.
type Config struct {
	ServerHost string
	ServerPort string

	PostgresURL string
	RedisURL    string

	JWTSecret              string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration

	LogFormat string
	LogLevel  string

	QRChallengeTTL time.Duration

	VaultAddr       string
	VaultToken      string
	VaultMountPath  string
	VaultSecretPath string

	ConsulURL string

	MinioURL    string
	MinioKey    string
	MinioSecret string
	MinioBucket string
}

func loadEnvFiles() {
	_ = godotenv.Load()
	if env := os.Getenv("NODE_ENV"); env != "" {
		_ = godotenv.Load(".env." + env)
	}
	_ = godotenv.Load(".env.local")
}

// Load reads configuration from the environment, applying defaults per §6
// of the specification. It returns an error when JWT_SECRET is absent so
// the caller can fail fast at startup.
func Load() (*Config, error) {
	loadEnvFiles()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errRequired("JWT_SECRET")
	}

	cfg := &Config{
		ServerHost:             getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:             getEnv("SERVER_PORT", "8000"),
		PostgresURL:            getEnv("POSTGRES_URL", "postgresql://localhost:5432/vyrydb"),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:              jwtSecret,
		AccessTokenExpiration:  getEnvSeconds("JWT_EXPIRATION", 3600),
		RefreshTokenExpiration: getEnvSeconds("REFRESH_TOKEN_EXPIRATION", 604800),
		LogFormat:              getEnv("LOG_FORMAT", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		QRChallengeTTL:         getEnvSeconds("QR_CHALLENGE_TTL_SECONDS", 300),
		VaultAddr:              os.Getenv("VAULT_ADDR"),
		VaultToken:             os.Getenv("VAULT_TOKEN"),
		VaultMountPath:         getEnv("VAULT_MOUNT_PATH", "secret"),
		VaultSecretPath:        getEnv("VAULT_SECRET_PATH", "vyry"),
		ConsulURL:              os.Getenv("CONSUL_URL"),
		MinioURL:               getEnv("MINIO_URL", "localhost:9000"),
		MinioKey:               getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecret:            getEnv("MINIO_SECRET_KEY", "minioadmin123"),
		MinioBucket:            getEnv("MINIO_BUCKET", "vyry-attachments"),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvSeconds(key string, def int64) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(parsed) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}

type missingEnvError struct{ key string }

func (e *missingEnvError) Error() string {
	return "required environment variable " + e.key + " is not set"
}

func errRequired(key string) error { return &missingEnvError{key: key} }
