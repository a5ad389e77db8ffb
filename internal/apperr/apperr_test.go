package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHasNoCause(t *testing.T) {
	err := New(KindValidation, "bad input")
	require.Equal(t, "bad input", err.Error())
	require.Nil(t, err.Unwrap())
}

func TestWrapChainsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindDatabase, "query failed", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "query failed")
	require.Contains(t, err.Error(), "connection refused")
}

func TestRateLimitedSetsRetryAfter(t *testing.T) {
	err := RateLimited("slow down", 30)
	require.Equal(t, KindRateLimited, err.Kind)
	require.Equal(t, int64(30), err.RetryAfterSec)
}

func TestAsExtractsError(t *testing.T) {
	err := New(KindNotFound, "missing")
	wrapped := errors.New("context: " + err.Error())

	_, ok := As(wrapped)
	require.False(t, ok)

	e, ok := As(err)
	require.True(t, ok)
	require.Equal(t, KindNotFound, e.Kind)
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(errors.New("plain error")))
	require.Equal(t, KindConflict, KindOf(New(KindConflict, "dup")))
}
