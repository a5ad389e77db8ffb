// Package messagelog implements the Message Log: send (with idempotency),
// delivery-status update, sync-on-reconnect, and paginated history,
// grounded on spec.md §4.7 and internal/handlers/message_handlers.go.
package messagelog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/store"
)

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// SendRequest is one delivery leg: a ciphertext addressed to a single
// recipient device. The sender calls Send once per recipient device after
// fetching each device's prekey bundle; the server never fans a single
// ciphertext to multiple devices.
type SendRequest struct {
	ConversationID    uuid.UUID
	ClientMessageID   *uuid.UUID
	SenderUserID      uuid.UUID
	SenderDeviceID    int64
	RecipientDeviceID int64
	Ciphertext        []byte
	IV                []byte
	Type              int
	AttachmentURL     *string
	ThumbnailURL      *string
	ReplyToMessageID  *int64
}

// Send persists a message (reusing an existing row by client_message_id if
// present) and inserts the per-recipient-device envelope, which is a
// no-op if one already exists for this (message, device) pair.
func (s *Service) Send(ctx context.Context, req SendRequest) (int64, error) {
	var messageID int64

	if req.ClientMessageID != nil {
		existing, err := s.db.FindMessageByClientID(ctx, *req.ClientMessageID)
		if err == nil {
			messageID = existing.ID
		} else if !errors.Is(err, store.ErrNotFound) {
			return 0, apperr.Wrap(apperr.KindDatabase, "find message by client id", err)
		}
	}

	if messageID == 0 {
		id, err := s.db.InsertMessage(ctx, store.NewMessage{
			ConversationID:   req.ConversationID,
			ClientMessageID:  req.ClientMessageID,
			SenderUserID:     req.SenderUserID,
			SenderDeviceID:   req.SenderDeviceID,
			Type:             req.Type,
			IV:               req.IV,
			AttachmentURL:    req.AttachmentURL,
			ThumbnailURL:     req.ThumbnailURL,
			ReplyToMessageID: req.ReplyToMessageID,
		})
		if err != nil {
			return 0, apperr.Wrap(apperr.KindDatabase, "insert message", err)
		}
		messageID = id
	}

	exists, err := s.db.FindEnvelope(ctx, messageID, req.RecipientDeviceID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindDatabase, "find envelope", err)
	}
	if exists {
		return messageID, nil
	}

	if err := s.db.InsertEnvelope(ctx, messageID, req.RecipientDeviceID, req.Ciphertext); err != nil {
		return 0, apperr.Wrap(apperr.KindDatabase, "insert envelope", err)
	}
	return messageID, nil
}

// UpdateStatus sets delivered_at or read_at for a recipient device's
// envelope. Missing envelopes are silently ignored (message may have been
// reaped).
func (s *Service) UpdateStatus(ctx context.Context, messageID int64, recipientDeviceID int64, read bool) error {
	if err := s.db.UpdateDeliveryStatus(ctx, messageID, recipientDeviceID, read); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "update delivery status", err)
	}
	return nil
}

// Envelope is the outward-facing sync/history item.
type Envelope = store.Envelope

// Sync returns undelivered envelopes for a device, optionally bounded by a cursor.
func (s *Service) Sync(ctx context.Context, deviceID int64, lastMessageID *int64) ([]*Envelope, error) {
	rows, err := s.db.Sync(ctx, deviceID, lastMessageID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "sync", err)
	}
	return rows, nil
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// clampPageParams normalizes a caller-supplied limit/offset pair to the
// bounds ListMessages guarantees callers.
func clampPageParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListMessages returns paginated conversation history for a device.
func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID, deviceID int64, limit, offset int) ([]*Envelope, error) {
	limit, offset = clampPageParams(limit, offset)
	rows, err := s.db.ListMessages(ctx, conversationID, deviceID, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "list messages", err)
	}
	return rows, nil
}
