package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResolverWithoutAddrSkipsVault(t *testing.T) {
	r, err := NewResolver("", "", "secret", "vyry", "fallback-secret")
	require.NoError(t, err)
	require.Nil(t, r.client)
}

func TestGetReturnsFallbackWhenVaultNotConfigured(t *testing.T) {
	r, err := NewResolver("", "", "secret", "vyry", "fallback-secret")
	require.NoError(t, err)

	value, err := r.Get()
	require.NoError(t, err)
	require.Equal(t, "fallback-secret", value)
}
