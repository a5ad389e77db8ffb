package linking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewServiceDefaultsTTL(t *testing.T) {
	s := NewService(nil, 0)
	require.Equal(t, defaultSessionTTL, s.ttl)
}

func TestNewServiceHonorsConfiguredTTL(t *testing.T) {
	s := NewService(nil, 90*time.Second)
	require.Equal(t, 90*time.Second, s.ttl)
}
