package conversations

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateDirectRejectsSelfConversation(t *testing.T) {
	s := NewService(nil)
	id := uuid.New()
	_, err := s.GetOrCreateDirect(nil, id, id)
	require.Error(t, err)
}
