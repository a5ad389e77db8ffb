package signalkeys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifySignedPreKey(t *testing.T) {
	idKP, err := GenerateIdentityKeyPair()
	require.NoError(t, err)

	xKP, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	spk := SignPreKey(idKP.Private, 1, xKP.Public)
	require.True(t, VerifySignedPreKey(idKP.Public, spk))
}

func TestVerifySignedPreKeyRejectsWrongIdentity(t *testing.T) {
	idKP, err := GenerateIdentityKeyPair()
	require.NoError(t, err)
	otherKP, err := GenerateIdentityKeyPair()
	require.NoError(t, err)

	xKP, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	spk := SignPreKey(idKP.Private, 1, xKP.Public)
	require.False(t, VerifySignedPreKey(otherKP.Public, spk))
}

func TestVerifySignedPreKeyRejectsTamperedKey(t *testing.T) {
	idKP, err := GenerateIdentityKeyPair()
	require.NoError(t, err)

	xKP, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	spk := SignPreKey(idKP.Private, 1, xKP.Public)
	spk.PublicKey[0] ^= 0xFF
	require.False(t, VerifySignedPreKey(idKP.Public, spk))
}

func TestGenerateOneTimePreKeysSequentialIDs(t *testing.T) {
	otks, kps, err := GenerateOneTimePreKeys(100, 5)
	require.NoError(t, err)
	require.Len(t, otks, 5)
	require.Len(t, kps, 5)
	for i, otk := range otks {
		require.Equal(t, int64(100+i), otk.KeyID)
	}
}

func TestGenerateRegistrationIDIsWithin14Bits(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := GenerateRegistrationID()
		require.NoError(t, err)
		require.LessOrEqual(t, id, uint16(0x3FFF))
	}
}
