package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRedisStoreRejectsMalformedURL(t *testing.T) {
	_, err := NewRedisStore("not-a-valid-redis-url")
	require.Error(t, err)
}

func TestErrNotFoundIsDistinct(t *testing.T) {
	require.EqualError(t, ErrNotFound, "kv: key not found")
}
