package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.ServerHost)
	require.Equal(t, "8000", cfg.ServerPort)
	require.Equal(t, 3600*time.Second, cfg.AccessTokenExpiration)
	require.Equal(t, 604800*time.Second, cfg.RefreshTokenExpiration)
	require.Equal(t, 300*time.Second, cfg.QRChallengeTTL)
}

func TestGetEnvSecondsParsesOverride(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("JWT_EXPIRATION", "120")
	defer os.Unsetenv("JWT_SECRET")
	defer os.Unsetenv("JWT_EXPIRATION")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 120*time.Second, cfg.AccessTokenExpiration)
}
