package messagelog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampPageParamsDefaultsLimit(t *testing.T) {
	limit, offset := clampPageParams(0, 0)
	require.Equal(t, defaultPageLimit, limit)
	require.Equal(t, 0, offset)
}

func TestClampPageParamsCapsLimit(t *testing.T) {
	limit, _ := clampPageParams(10000, 0)
	require.Equal(t, maxPageLimit, limit)
}

func TestClampPageParamsRejectsNegativeOffset(t *testing.T) {
	_, offset := clampPageParams(20, -5)
	require.Equal(t, 0, offset)
}

func TestClampPageParamsPassesThroughValidValues(t *testing.T) {
	limit, offset := clampPageParams(30, 15)
	require.Equal(t, 30, limit)
	require.Equal(t, 15, offset)
}
