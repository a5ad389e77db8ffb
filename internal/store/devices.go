package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DeviceTypePrimary = 0
	DeviceTypeLinked  = 1
)

const (
	PlatformIOS     = 0
	PlatformAndroid = 1
	PlatformWeb     = 2
	PlatformDesktop = 3
)

// Device is a row of the devices table.
type Device struct {
	ID                 int64
	DeviceUUID         uuid.UUID
	UserID             uuid.UUID
	Platform           int
	DeviceType         int
	Active             bool
	IdentityPublicKey  []byte
	RegistrationID     int
	SignedPreKeyID     sql.NullInt64
	SignedPreKeyPublic []byte
	SignedPreKeySig    []byte
	LinkedAt           sql.NullTime
	LinkedByDeviceID   sql.NullInt64
	CreatedAt          time.Time
	LastSeenAt         time.Time
}

const deviceColumns = `id, device_uuid, user_id, platform, device_type, active,
	identity_public_key, registration_id, signed_prekey_id, signed_prekey_public,
	signed_prekey_sig, linked_at, linked_by_device_id, created_at, last_seen_at`

func scanDevice(row interface{ Scan(...any) error }) (*Device, error) {
	var dev Device
	err := row.Scan(&dev.ID, &dev.DeviceUUID, &dev.UserID, &dev.Platform, &dev.DeviceType,
		&dev.Active, &dev.IdentityPublicKey, &dev.RegistrationID, &dev.SignedPreKeyID,
		&dev.SignedPreKeyPublic, &dev.SignedPreKeySig, &dev.LinkedAt, &dev.LinkedByDeviceID,
		&dev.CreatedAt, &dev.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan device: %w", err)
	}
	return &dev, nil
}

func (d *DB) FindDeviceByID(ctx context.Context, id int64) (*Device, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	return scanDevice(row)
}

func (d *DB) FindDeviceByUUID(ctx context.Context, deviceUUID uuid.UUID) (*Device, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE device_uuid = $1`, deviceUUID)
	return scanDevice(row)
}

// ListActiveDevices returns active devices of a user ordered by creation.
func (d *DB) ListActiveDevices(ctx context.Context, userID uuid.UUID) ([]*Device, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+deviceColumns+` FROM devices WHERE user_id = $1 AND active = TRUE ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list devices: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("store: close rows: %v\n", cerr)
		}
	}()

	var out []*Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dev)
	}
	return out, rows.Err()
}

// LowestActiveDeviceID returns the lowest-id active device of a user, used
// as the prekey bundle fallback when the requested device doesn't exist.
func (d *DB) LowestActiveDeviceID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var id int64
	err := d.conn.QueryRowContext(ctx, `
		SELECT id FROM devices WHERE user_id = $1 AND active = TRUE ORDER BY id ASC LIMIT 1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: lowest active device: %w", err)
	}
	return id, nil
}

// IsDeviceActive reports whether a device is still active, used by token
// refresh to deny unlinked devices (this is the revocation channel: a
// device's refresh token stops working as soon as active flips to false).
func (d *DB) IsDeviceActive(ctx context.Context, deviceID int64) (bool, error) {
	var active bool
	err := d.conn.QueryRowContext(ctx, `SELECT active FROM devices WHERE id = $1`, deviceID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is device active: %w", err)
	}
	return active, nil
}

// EvictPrimaryDevicesTx flips active=false on every primary device of a
// user, enforcing "at most one active primary device" before a new one
// is inserted.
func EvictPrimaryDevicesTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE devices SET active = FALSE WHERE user_id = $1 AND device_type = $2 AND active = TRUE`,
		userID, DeviceTypePrimary)
	if err != nil {
		return fmt.Errorf("store: evict primary devices: %w", err)
	}
	return nil
}

// DeleteDeviceAndPrekeysTx removes a device's one-time prekeys then the
// device row itself, used to reset a half-registered device before retry.
func DeleteDeviceAndPrekeysTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID, deviceUUID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM one_time_prekeys WHERE device_id = (
			SELECT id FROM devices WHERE user_id = $1 AND device_uuid = $2
		)`, userID, deviceUUID); err != nil {
		return fmt.Errorf("store: delete stale prekeys: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM devices WHERE user_id = $1 AND device_uuid = $2`, userID, deviceUUID); err != nil {
		return fmt.Errorf("store: delete stale device: %w", err)
	}
	return nil
}

// InsertDeviceTx creates a device row, used by both OTP-verify registration
// and link-approval.
type NewDevice struct {
	DeviceUUID         uuid.UUID
	UserID             uuid.UUID
	Platform           int
	DeviceType         int
	IdentityPublicKey  []byte
	RegistrationID     int
	SignedPreKeyID     int64
	SignedPreKeyPublic []byte
	SignedPreKeySig    []byte
	LinkedByDeviceID   *int64
}

func InsertDeviceTx(ctx context.Context, tx *sql.Tx, nd NewDevice) (int64, error) {
	var linkedAt any
	if nd.DeviceType == DeviceTypeLinked {
		linkedAt = time.Now()
	}
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO devices (device_uuid, user_id, platform, device_type, active,
			identity_public_key, registration_id, signed_prekey_id, signed_prekey_public,
			signed_prekey_sig, linked_at, linked_by_device_id, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING id`,
		nd.DeviceUUID, nd.UserID, nd.Platform, nd.DeviceType, nd.IdentityPublicKey,
		nd.RegistrationID, nd.SignedPreKeyID, nd.SignedPreKeyPublic, nd.SignedPreKeySig,
		linkedAt, nd.LinkedByDeviceID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert device: %w", err)
	}
	return id, nil
}

// SetActive flips a device's active flag (used by Unlink).
func (d *DB) SetActive(ctx context.Context, deviceID int64, active bool) error {
	_, err := d.conn.ExecContext(ctx, `UPDATE devices SET active = $2 WHERE id = $1`, deviceID, active)
	if err != nil {
		return fmt.Errorf("store: set device active: %w", err)
	}
	return nil
}

// UpdateSignedPreKey replaces a device's identity key and signed prekey
// (upload flow).
func (d *DB) UpdateSignedPreKey(ctx context.Context, deviceID int64, identityPub []byte, spkID int64, spkPub, spkSig []byte) error {
	_, err := d.conn.ExecContext(ctx, `
		UPDATE devices SET identity_public_key = $2, signed_prekey_id = $3,
			signed_prekey_public = $4, signed_prekey_sig = $5
		WHERE id = $1`, deviceID, identityPub, spkID, spkPub, spkSig)
	if err != nil {
		return fmt.Errorf("store: update signed prekey: %w", err)
	}
	return nil
}

func (d *DB) TouchLastSeen(ctx context.Context, deviceID int64) error {
	_, err := d.conn.ExecContext(ctx, `UPDATE devices SET last_seen_at = now() WHERE id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("store: touch last seen: %w", err)
	}
	return nil
}

// BeginTx exposes transaction creation so use-case packages can compose
// multi-table writes atomically.
func (d *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return d.conn.BeginTx(ctx, nil)
}
