// Package linking implements the Linking Coordinator state machine of
// spec.md §4.5: create, complete, approve, reject, with lazy expiry.
package linking

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/signalkeys"
	"github.com/hakimino/vyry/internal/store"
)

const (
	defaultSessionTTL  = 5 * time.Minute
	oneTimePreKeyBatch = 100
)

type Service struct {
	db  *store.DB
	ttl time.Duration
}

// NewService builds a Service. ttl <= 0 falls back to defaultSessionTTL.
func NewService(db *store.DB, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{db: db, ttl: ttl}
}

// QRPayload is the base64 JSON blob encoded into the QR code.
type QRPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateResult is returned by Create.
type CreateResult struct {
	SessionID uuid.UUID
	QRBlob    string
	ExpiresAt time.Time
}

// Create starts a linking session from an active primary device.
func (s *Service) Create(ctx context.Context, primaryDeviceID int64) (*CreateResult, error) {
	dev, err := s.db.FindDeviceByID(ctx, primaryDeviceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "primary device not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "find primary device", err)
	}
	if dev.DeviceType != store.DeviceTypePrimary || !dev.Active {
		return nil, apperr.New(apperr.KindValidation, "linking sessions can only be created by an active primary device")
	}

	sessionID := uuid.New()
	token := fmt.Sprintf("%s:%d:%d", sessionID, primaryDeviceID, time.Now().Unix())
	expiresAt := time.Now().Add(s.ttl)

	if err := s.db.CreateLinkingSession(ctx, sessionID, primaryDeviceID, token, expiresAt); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "create linking session", err)
	}

	payload, err := json.Marshal(QRPayload{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "encode qr payload", err)
	}

	return &CreateResult{
		SessionID: sessionID,
		QRBlob:    base64.StdEncoding.EncodeToString(payload),
		ExpiresAt: expiresAt,
	}, nil
}

// Complete is called by the new device scanning the QR code. The session
// remains Pending; the primary device must still approve.
func (s *Service) Complete(ctx context.Context, token string, newDeviceUUID uuid.UUID, newDeviceName string) (uuid.UUID, error) {
	// The create response hands out the base64 QR blob as qr_code_token;
	// unwrap it to the raw token stored on the session.
	if raw, derr := base64.StdEncoding.DecodeString(token); derr == nil {
		var p QRPayload
		if json.Unmarshal(raw, &p) == nil && p.Token != "" {
			token = p.Token
		}
	}
	session, err := s.db.FindLinkingSessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, apperr.New(apperr.KindNotFound, "linking session not found")
	}
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindDatabase, "find linking session", err)
	}
	if !session.IsPending() {
		return uuid.Nil, apperr.New(apperr.KindValidation, "linking session is not pending")
	}

	if err := s.db.AttachNewDevice(ctx, session.ID, newDeviceUUID, newDeviceName); err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindDatabase, "attach new device", err)
	}
	return session.ID, nil
}

// ApproveResult is returned by Approve.
type ApproveResult struct {
	NewDeviceID int64
}

// Approve must be called by the same device that created the session. It
// creates the new linked Device row with fresh key material.
func (s *Service) Approve(ctx context.Context, sessionID uuid.UUID, callerDeviceID int64) (*ApproveResult, error) {
	session, err := s.db.FindLinkingSessionByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "linking session not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "find linking session", err)
	}
	if session.PrimaryDeviceID != callerDeviceID {
		return nil, apperr.New(apperr.KindAuthorization, "only the initiating device may approve")
	}
	if !session.IsPending() {
		return nil, apperr.New(apperr.KindValidation, "linking session is not pending")
	}
	if !session.NewDeviceUUID.Valid {
		return nil, apperr.New(apperr.KindValidation, "no device has scanned this session yet")
	}

	primary, err := s.db.FindDeviceByID(ctx, callerDeviceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "find primary device", err)
	}

	idKP, err := signalkeys.GenerateIdentityKeyPair()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate identity keypair", err)
	}
	regID, err := signalkeys.GenerateRegistrationID()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate registration id", err)
	}
	spkKP, err := signalkeys.GenerateX25519KeyPair()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate signed prekey", err)
	}
	signedPreKey := signalkeys.SignPreKey(idKP.Private, 1, spkKP.Public)
	otks, _, err := signalkeys.GenerateOneTimePreKeys(1, oneTimePreKeyBatch)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCryptographic, "generate one-time prekeys", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "begin approve tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	linkedBy := callerDeviceID
	newDeviceID, err := store.InsertDeviceTx(ctx, tx, store.NewDevice{
		DeviceUUID:         session.NewDeviceUUID.UUID,
		UserID:             primary.UserID,
		Platform:           store.PlatformWeb,
		DeviceType:         store.DeviceTypeLinked,
		IdentityPublicKey:  idKP.Public,
		RegistrationID:     int(regID),
		SignedPreKeyID:     signedPreKey.KeyID,
		SignedPreKeyPublic: signedPreKey.PublicKey[:],
		SignedPreKeySig:    signedPreKey.Signature[:],
		LinkedByDeviceID:   &linkedBy,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "insert linked device", err)
	}

	rows := make([]store.OneTimePreKey, 0, len(otks))
	for _, k := range otks {
		rows = append(rows, store.OneTimePreKey{DeviceID: newDeviceID, PreKeyID: k.KeyID, PublicKey: k.PublicKey[:]})
	}
	if err := store.BulkInsertOneTimePreKeysTx(ctx, tx, newDeviceID, rows); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "insert one-time prekeys", err)
	}

	if err := store.ApproveLinkingSessionTx(ctx, tx, sessionID); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "mark session approved", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "commit approve tx", err)
	}

	return &ApproveResult{NewDeviceID: newDeviceID}, nil
}

// Reject marks a pending session Rejected.
func (s *Service) Reject(ctx context.Context, sessionID uuid.UUID, callerDeviceID int64) error {
	session, err := s.db.FindLinkingSessionByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "linking session not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, "find linking session", err)
	}
	if session.PrimaryDeviceID != callerDeviceID {
		return apperr.New(apperr.KindAuthorization, "only the initiating device may reject")
	}
	if !session.IsPending() {
		return apperr.New(apperr.KindValidation, "linking session is not pending")
	}
	if err := s.db.RejectLinkingSession(ctx, sessionID); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "reject linking session", err)
	}
	return nil
}
