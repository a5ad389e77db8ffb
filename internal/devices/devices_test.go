package devices

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUnlinkRejectsCallersOwnDevice(t *testing.T) {
	s := NewService(nil)
	err := s.Unlink(nil, uuid.New(), 5, 5)
	require.Error(t, err)
}
