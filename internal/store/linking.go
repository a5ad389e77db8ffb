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
	LinkingPending  = 1
	LinkingApproved = 2
	LinkingExpired  = 3
	LinkingRejected = 4
)

// LinkingSession is a row of the linking_sessions table.
type LinkingSession struct {
	ID                uuid.UUID
	PrimaryDeviceID   int64
	QRToken           string
	Status            int
	NewDeviceUUID     uuid.NullUUID
	NewDeviceName     sql.NullString
	ExpiresAt         time.Time
	ApprovedAt        sql.NullTime
	CreatedAt         time.Time
}

// IsPending applies lazy expiry: a row still marked Pending but past its
// expires_at reads as not-pending without a background sweep.
func (s *LinkingSession) IsPending() bool {
	return s.Status == LinkingPending && s.ExpiresAt.After(time.Now())
}

func scanLinkingSession(row interface{ Scan(...any) error }) (*LinkingSession, error) {
	var s LinkingSession
	err := row.Scan(&s.ID, &s.PrimaryDeviceID, &s.QRToken, &s.Status, &s.NewDeviceUUID,
		&s.NewDeviceName, &s.ExpiresAt, &s.ApprovedAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan linking session: %w", err)
	}
	return &s, nil
}

const linkingColumns = `id, primary_device_id, qr_token, status, new_device_uuid, new_device_name, expires_at, approved_at, created_at`

func (d *DB) CreateLinkingSession(ctx context.Context, id uuid.UUID, primaryDeviceID int64, qrToken string, expiresAt time.Time) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO linking_sessions (id, primary_device_id, qr_token, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`, id, primaryDeviceID, qrToken, LinkingPending, expiresAt)
	if err != nil {
		return fmt.Errorf("store: create linking session: %w", err)
	}
	return nil
}

func (d *DB) FindLinkingSessionByToken(ctx context.Context, token string) (*LinkingSession, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+linkingColumns+` FROM linking_sessions WHERE qr_token = $1`, token)
	return scanLinkingSession(row)
}

func (d *DB) FindLinkingSessionByID(ctx context.Context, id uuid.UUID) (*LinkingSession, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+linkingColumns+` FROM linking_sessions WHERE id = $1`, id)
	return scanLinkingSession(row)
}

// AttachNewDevice stamps the scanning device's identity onto a still-Pending session.
func (d *DB) AttachNewDevice(ctx context.Context, sessionID uuid.UUID, deviceUUID uuid.UUID, deviceName string) error {
	_, err := d.conn.ExecContext(ctx, `
		UPDATE linking_sessions SET new_device_uuid = $2, new_device_name = $3
		WHERE id = $1`, sessionID, deviceUUID, deviceName)
	if err != nil {
		return fmt.Errorf("store: attach new device: %w", err)
	}
	return nil
}

func ApproveLinkingSessionTx(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE linking_sessions SET status = $2, approved_at = now() WHERE id = $1`,
		sessionID, LinkingApproved)
	if err != nil {
		return fmt.Errorf("store: approve linking session: %w", err)
	}
	return nil
}

func (d *DB) RejectLinkingSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := d.conn.ExecContext(ctx, `UPDATE linking_sessions SET status = $2 WHERE id = $1`, sessionID, LinkingRejected)
	if err != nil {
		return fmt.Errorf("store: reject linking session: %w", err)
	}
	return nil
}
