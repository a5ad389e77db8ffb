package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakimino/vyry/internal/logging"
)

func TestDevSenderNeverErrors(t *testing.T) {
	s := NewDevSender(logging.New("test", ""))
	err := s.SendOTP(context.Background(), "+15551234567", "123456")
	require.NoError(t, err)
}
