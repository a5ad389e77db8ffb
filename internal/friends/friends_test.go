package friends

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestRejectsSelfFriend(t *testing.T) {
	s := NewService(nil)
	id := uuid.New()
	err := s.Request(nil, id, id)
	require.Error(t, err)
}

func TestSearchByUsernameClampsLimit(t *testing.T) {
	require.Equal(t, 20, clampLimit(0))
	require.Equal(t, 20, clampLimit(-5))
	require.Equal(t, 20, clampLimit(51))
	require.Equal(t, 10, clampLimit(10))
}
