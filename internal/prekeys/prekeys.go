// Package prekeys implements the Prekey Store: bundle issuance (with
// atomic one-time prekey consumption) and bundle upload, grounded on
// spec.md §4.3 and internal/security/signal.go's bundle shape.
package prekeys

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/signalkeys"
	"github.com/hakimino/vyry/internal/store"
)

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// Bundle is the X3DH prekey bundle handed to a sender before it opens a
// session with a recipient device.
type Bundle struct {
	DeviceID           int64
	IdentityPublicKey  []byte
	RegistrationID     int
	SignedPreKeyID     int64
	SignedPreKeyPublic []byte
	SignedPreKeySig    []byte
	OneTimePreKeyID    *int64
	OneTimePreKeyPublic []byte
}

// GetBundle returns a prekey bundle for (user, device), consuming at most
// one one-time prekey. If deviceID doesn't exist, falls back to the user's
// lowest-id active device.
func (s *Service) GetBundle(ctx context.Context, userID uuid.UUID, deviceID int64) (*Bundle, error) {
	dev, err := s.db.FindDeviceByID(ctx, deviceID)
	if errors.Is(err, store.ErrNotFound) {
		fallbackID, ferr := s.db.LowestActiveDeviceID(ctx, userID)
		if ferr != nil {
			return nil, apperr.New(apperr.KindNotFound, "no active device for user")
		}
		dev, err = s.db.FindDeviceByID(ctx, fallbackID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "find device for bundle", err)
	}
	if dev.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "device does not belong to user")
	}
	if len(dev.IdentityPublicKey) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "identity key not yet uploaded")
	}

	bundle := &Bundle{
		DeviceID:          dev.ID,
		IdentityPublicKey: dev.IdentityPublicKey,
		RegistrationID:    dev.RegistrationID,
	}
	if dev.SignedPreKeyID.Valid {
		bundle.SignedPreKeyID = dev.SignedPreKeyID.Int64
		bundle.SignedPreKeyPublic = dev.SignedPreKeyPublic
		bundle.SignedPreKeySig = dev.SignedPreKeySig
	}

	otk, err := s.db.ConsumeLowestOneTimePreKey(ctx, dev.ID)
	if err == nil {
		bundle.OneTimePreKeyID = &otk.PreKeyID
		bundle.OneTimePreKeyPublic = otk.PublicKey
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindDatabase, "consume one-time prekey", err)
	}

	return bundle, nil
}

// DeviceKey is a minimal (device_id, registration_id) pair, used to let a
// sender enumerate a recipient's devices before fetching bundles.
type DeviceKey struct {
	DeviceID       int64
	RegistrationID int
}

// ListDeviceKeys returns every active device id and registration id for a
// user, without consuming any one-time prekeys.
func (s *Service) ListDeviceKeys(ctx context.Context, userID uuid.UUID) ([]DeviceKey, error) {
	rows, err := s.db.ListActiveDevices(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "list device keys", err)
	}
	out := make([]DeviceKey, 0, len(rows))
	for _, r := range rows {
		out = append(out, DeviceKey{DeviceID: r.ID, RegistrationID: r.RegistrationID})
	}
	return out, nil
}

// UploadRequest replaces a device's identity key, signed prekey, and
// entire one-time prekey pool.
type UploadRequest struct {
	IdentityPublicKey  []byte
	RegistrationID     int
	SignedPreKeyID     int64
	SignedPreKeyPublic []byte
	SignedPreKeySig    []byte
	OneTimePreKeys     []signalkeys.OneTimePreKey
}

// Upload replaces a device's key material. This is a privileged op —
// callers authenticate as the owning device at the transport layer.
func (s *Service) Upload(ctx context.Context, deviceID int64, req UploadRequest) error {
	if err := s.db.UpdateSignedPreKey(ctx, deviceID, req.IdentityPublicKey, req.SignedPreKeyID,
		req.SignedPreKeyPublic, req.SignedPreKeySig); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "update signed prekey", err)
	}

	if err := s.db.DeleteAllOneTimePreKeys(ctx, deviceID); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "clear one-time prekeys", err)
	}

	rows := make([]store.OneTimePreKey, 0, len(req.OneTimePreKeys))
	for _, k := range req.OneTimePreKeys {
		rows = append(rows, store.OneTimePreKey{DeviceID: deviceID, PreKeyID: k.KeyID, PublicKey: k.PublicKey[:]})
	}
	if err := s.db.BulkInsertOneTimePreKeys(ctx, deviceID, rows); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "insert one-time prekeys", err)
	}
	return nil
}
