package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// OneTimePreKey is a row of the one_time_prekeys table.
type OneTimePreKey struct {
	DeviceID  int64
	PreKeyID  int64
	PublicKey []byte
}

// BulkInsertOneTimePreKeysTx inserts a batch of one-time prekeys for a
// device in a single statement.
func BulkInsertOneTimePreKeysTx(ctx context.Context, tx *sql.Tx, deviceID int64, keys []OneTimePreKey) error {
	if len(keys) == 0 {
		return nil
	}
	query := "INSERT INTO one_time_prekeys (device_id, prekey_id, public_key) VALUES "
	args := make([]any, 0, len(keys)*3)
	for i, k := range keys {
		if i > 0 {
			query += ", "
		}
		base := i * 3
		query += fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3)
		args = append(args, deviceID, k.PreKeyID, k.PublicKey)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: bulk insert one-time prekeys: %w", err)
	}
	return nil
}

// DeleteAllOneTimePreKeys removes every one-time prekey owned by a device,
// used by the upload flow before inserting a fresh pool.
func (d *DB) DeleteAllOneTimePreKeys(ctx context.Context, deviceID int64) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM one_time_prekeys WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("store: delete one-time prekeys: %w", err)
	}
	return nil
}

// BulkInsertOneTimePreKeys is the non-transactional counterpart used by the
// upload flow (delete-then-insert as two statements, not a single tx,
// matching the teacher's upload handler which doesn't wrap this pair).
func (d *DB) BulkInsertOneTimePreKeys(ctx context.Context, deviceID int64, keys []OneTimePreKey) error {
	if len(keys) == 0 {
		return nil
	}
	query := "INSERT INTO one_time_prekeys (device_id, prekey_id, public_key) VALUES "
	args := make([]any, 0, len(keys)*3)
	for i, k := range keys {
		if i > 0 {
			query += ", "
		}
		base := i * 3
		query += fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3)
		args = append(args, deviceID, k.PreKeyID, k.PublicKey)
	}
	if _, err := d.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: bulk insert one-time prekeys: %w", err)
	}
	return nil
}

// ConsumeLowestOneTimePreKey atomically deletes and returns the lowest-id
// one-time prekey owned by a device. Returns ErrNotFound if none remain —
// the bundle is still valid without one.
func (d *DB) ConsumeLowestOneTimePreKey(ctx context.Context, deviceID int64) (*OneTimePreKey, error) {
	var otk OneTimePreKey
	otk.DeviceID = deviceID
	err := d.conn.QueryRowContext(ctx, `
		DELETE FROM one_time_prekeys
		WHERE (device_id, prekey_id) = (
			SELECT device_id, prekey_id FROM one_time_prekeys
			WHERE device_id = $1 ORDER BY prekey_id ASC LIMIT 1
		)
		RETURNING prekey_id, public_key`, deviceID).Scan(&otk.PreKeyID, &otk.PublicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: consume one-time prekey: %w", err)
	}
	return &otk, nil
}
