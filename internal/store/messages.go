package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a row of the messages table.
type Message struct {
	ID                int64
	ConversationID    uuid.UUID
	ClientMessageID   uuid.NullUUID
	SenderUserID      uuid.UUID
	SenderDeviceID    int64
	Type              int
	IV                []byte
	AttachmentURL     sql.NullString
	ThumbnailURL      sql.NullString
	ReplyToMessageID  sql.NullInt64
	SentAt            time.Time
	EditedAt          sql.NullTime
	DeletedAt         sql.NullTime
	ExpiresAt         sql.NullTime
}

// Envelope is a row of message_delivery_envelopes, joined with its message.
type Envelope struct {
	Message
	RecipientDeviceID int64
	Content           []byte
	DeliveredAt       sql.NullTime
	ReadAt            sql.NullTime
}

const envelopeJoinColumns = `m.id, m.conversation_id, m.client_message_id, m.sender_user_id,
	m.sender_device_id, m.type, m.iv, m.attachment_url, m.thumbnail_url, m.reply_to_message_id,
	m.sent_at, m.edited_at, m.deleted_at, m.expires_at,
	e.recipient_device_id, e.content, e.delivered_at, e.read_at`

func scanEnvelope(row interface{ Scan(...any) error }) (*Envelope, error) {
	var e Envelope
	err := row.Scan(&e.ID, &e.ConversationID, &e.ClientMessageID, &e.SenderUserID, &e.SenderDeviceID,
		&e.Type, &e.IV, &e.AttachmentURL, &e.ThumbnailURL, &e.ReplyToMessageID, &e.SentAt, &e.EditedAt,
		&e.DeletedAt, &e.ExpiresAt, &e.RecipientDeviceID, &e.Content, &e.DeliveredAt, &e.ReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan envelope: %w", err)
	}
	return &e, nil
}

// FindMessageByClientID looks up an existing message by its client-supplied
// dedup key, used for Send idempotency.
func (d *DB) FindMessageByClientID(ctx context.Context, clientMessageID uuid.UUID) (*Message, error) {
	var m Message
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, conversation_id, client_message_id, sender_user_id, sender_device_id, type, iv,
		       attachment_url, thumbnail_url, reply_to_message_id, sent_at, edited_at, deleted_at, expires_at
		FROM messages WHERE client_message_id = $1`, clientMessageID).Scan(
		&m.ID, &m.ConversationID, &m.ClientMessageID, &m.SenderUserID, &m.SenderDeviceID, &m.Type,
		&m.IV, &m.AttachmentURL, &m.ThumbnailURL, &m.ReplyToMessageID, &m.SentAt, &m.EditedAt,
		&m.DeletedAt, &m.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find message by client id: %w", err)
	}
	return &m, nil
}

// NewMessage describes the non-ciphertext fields of a message row to insert.
type NewMessage struct {
	ConversationID   uuid.UUID
	ClientMessageID  *uuid.UUID
	SenderUserID     uuid.UUID
	SenderDeviceID   int64
	Type             int
	IV               []byte
	AttachmentURL    *string
	ThumbnailURL     *string
	ReplyToMessageID *int64
}

// InsertMessage inserts a new message row. content is always empty — the
// ciphertext lives only in the per-device delivery envelope.
func (d *DB) InsertMessage(ctx context.Context, nm NewMessage) (int64, error) {
	var id int64
	err := d.conn.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, client_message_id, sender_user_id, sender_device_id,
			type, content, iv, attachment_url, thumbnail_url, reply_to_message_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, $7, $8, $9, now())
		RETURNING id`,
		nm.ConversationID, nm.ClientMessageID, nm.SenderUserID, nm.SenderDeviceID, nm.Type,
		nm.IV, nm.AttachmentURL, nm.ThumbnailURL, nm.ReplyToMessageID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert message: %w", err)
	}
	return id, nil
}

// FindEnvelope looks up an existing delivery envelope by (message, recipient device).
func (d *DB) FindEnvelope(ctx context.Context, messageID, recipientDeviceID int64) (bool, error) {
	var exists bool
	err := d.conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM message_delivery_envelopes WHERE message_id = $1 AND recipient_device_id = $2)`,
		messageID, recipientDeviceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: find envelope: %w", err)
	}
	return exists, nil
}

// InsertEnvelope creates the per-device delivery envelope carrying the
// actual ciphertext for that recipient.
func (d *DB) InsertEnvelope(ctx context.Context, messageID, recipientDeviceID int64, ciphertext []byte) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO message_delivery_envelopes (message_id, recipient_device_id, content)
		VALUES ($1, $2, $3)`, messageID, recipientDeviceID, ciphertext)
	if err != nil {
		return fmt.Errorf("store: insert envelope: %w", err)
	}
	return nil
}

// UpdateDeliveryStatus sets delivered_at or read_at for a (message,
// recipient device) envelope. Missing envelopes are silently ignored.
func (d *DB) UpdateDeliveryStatus(ctx context.Context, messageID, recipientDeviceID int64, read bool) error {
	col := "delivered_at"
	if read {
		col = "read_at"
	}
	query := fmt.Sprintf(`
		UPDATE message_delivery_envelopes SET %s = now()
		WHERE message_id = $1 AND recipient_device_id = $2`, col)
	_, err := d.conn.ExecContext(ctx, query, messageID, recipientDeviceID)
	if err != nil {
		return fmt.Errorf("store: update delivery status: %w", err)
	}
	return nil
}

// Sync returns undelivered envelopes for a device, optionally bounded by a
// cursor, in monotone message_id order.
func (d *DB) Sync(ctx context.Context, deviceID int64, lastMessageID *int64) ([]*Envelope, error) {
	query := `
		SELECT ` + envelopeJoinColumns + `
		FROM message_delivery_envelopes e
		JOIN messages m ON m.id = e.message_id
		WHERE e.recipient_device_id = $1 AND e.delivered_at IS NULL`
	args := []any{deviceID}
	if lastMessageID != nil {
		query += " AND m.id > $2"
		args = append(args, *lastMessageID)
	}
	query += " ORDER BY m.id ASC"

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: sync: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("store: close rows: %v\n", cerr)
		}
	}()

	var out []*Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListMessages returns paginated history for a conversation, from the
// perspective of the requesting device's own envelopes.
func (d *DB) ListMessages(ctx context.Context, conversationID uuid.UUID, deviceID int64, limit, offset int) ([]*Envelope, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+envelopeJoinColumns+`
		FROM message_delivery_envelopes e
		JOIN messages m ON m.id = e.message_id
		WHERE m.conversation_id = $1 AND e.recipient_device_id = $2
		ORDER BY m.sent_at DESC
		LIMIT $3 OFFSET $4`, conversationID, deviceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("store: close rows: %v\n", cerr)
		}
	}()

	var out []*Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
