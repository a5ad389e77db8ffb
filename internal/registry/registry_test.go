package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistrarWithEmptyAddrDisablesConsul(t *testing.T) {
	r, err := NewRegistrar("")
	require.NoError(t, err)
	require.Nil(t, r.client)
}

func TestRegisterIsNoopWithoutClient(t *testing.T) {
	r, err := NewRegistrar("")
	require.NoError(t, err)
	require.NoError(t, r.Register("0.0.0.0", 8000, "/health"))
}

func TestDeregisterIsNoopWithoutClient(t *testing.T) {
	r, err := NewRegistrar("")
	require.NoError(t, err)
	require.NoError(t, r.Deregister())
}

func TestDeregisterIsNoopWithoutPriorRegister(t *testing.T) {
	r := &Registrar{}
	require.NoError(t, r.Deregister())
}
