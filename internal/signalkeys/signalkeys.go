// Package signalkeys implements the cryptographic primitives of the
// prekey store: identity keypairs, signed prekeys, one-time prekeys, and
// registration ids. The server only ever handles public material plus
// whatever private keys a client hands it transiently to sign a bundle in
// tests; in production the identity private key never leaves the device.
package signalkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

const (
	// IdentityKeySize is the size of an Ed25519 public identity key.
	IdentityKeySize = ed25519.PublicKeySize
	// X25519KeySize is the size of a Curve25519 public key.
	X25519KeySize = 32
	// SignatureSize is the size of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize
)

// IdentityKeyPair is a device's long-term Ed25519 signing identity.
type IdentityKeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateIdentityKeyPair creates a new Ed25519 identity keypair.
func GenerateIdentityKeyPair() (*IdentityKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("signalkeys: generate identity key: %w", err)
	}
	return &IdentityKeyPair{Public: pub, Private: priv}, nil
}

// X25519KeyPair is an ephemeral or signed-prekey Curve25519 keypair.
type X25519KeyPair struct {
	Public  [X25519KeySize]byte
	Private [X25519KeySize]byte
}

// GenerateX25519KeyPair creates a fresh Curve25519 keypair for use as a
// signed prekey or one-time prekey.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	var priv [X25519KeySize]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, fmt.Errorf("signalkeys: read random seed: %w", err)
	}
	// Clamp per RFC 7748.
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("signalkeys: derive public key: %w", err)
	}
	var kp X25519KeyPair
	copy(kp.Private[:], priv[:])
	copy(kp.Public[:], pub)
	return &kp, nil
}

// SignedPreKey is a medium-term X25519 key, signed by the owning device's
// identity key so the server (and peers) can verify provenance.
type SignedPreKey struct {
	KeyID     int64
	PublicKey [X25519KeySize]byte
	Signature [SignatureSize]byte
}

// SignPreKey signs the public bytes of an X25519 key with the device's
// Ed25519 identity private key. This replaces the teacher's original
// VerifySignedPreKeySignature, which tried to interpret X25519 Montgomery
// coordinates as ECDSA points — not a valid signature scheme. Signal's own
// design signs the raw public key bytes with Ed25519 directly, which is
// what this does.
func SignPreKey(identityPriv ed25519.PrivateKey, keyID int64, pub [X25519KeySize]byte) *SignedPreKey {
	sig := ed25519.Sign(identityPriv, pub[:])
	spk := &SignedPreKey{KeyID: keyID, PublicKey: pub}
	copy(spk.Signature[:], sig)
	return spk
}

// VerifySignedPreKey checks that the signed prekey was actually signed by
// the holder of identityPub.
func VerifySignedPreKey(identityPub ed25519.PublicKey, spk *SignedPreKey) bool {
	if len(identityPub) != IdentityKeySize {
		return false
	}
	return ed25519.Verify(identityPub, spk.PublicKey[:], spk.Signature[:])
}

// OneTimePreKey is a single-use X25519 key consumed exactly once by bundle
// issuance.
type OneTimePreKey struct {
	KeyID     int64
	PublicKey [X25519KeySize]byte
}

// GenerateOneTimePreKeys creates count fresh one-time prekeys starting at
// startID, mirroring the batch upload flow a client performs on
// registration and replenishment.
func GenerateOneTimePreKeys(startID int64, count int) ([]*OneTimePreKey, []*X25519KeyPair, error) {
	otks := make([]*OneTimePreKey, 0, count)
	kps := make([]*X25519KeyPair, 0, count)
	for i := 0; i < count; i++ {
		kp, err := GenerateX25519KeyPair()
		if err != nil {
			return nil, nil, err
		}
		otks = append(otks, &OneTimePreKey{KeyID: startID + int64(i), PublicKey: kp.Public})
		kps = append(kps, kp)
	}
	return otks, kps, nil
}

// GenerateRegistrationID returns a random 14-bit integer (0-16383)
// identifying a device within X3DH, matching Signal's registration id range.
func GenerateRegistrationID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("signalkeys: generate registration id: %w", err)
	}
	id := binary.BigEndian.Uint16(b[:]) & 0x3FFF // mask to 14 bits
	return id, nil
}
