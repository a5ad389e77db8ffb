// Package signaling implements the Signaling Router of spec.md §4.9: a
// tagged-union frame protocol carried over the realtime channel, with
// symmetric JSON and MessagePack encodings. Grounded on the teacher's
// internal/websocket/hub.go handleMessage dispatch, generalized from its
// single WebSocketMessage struct to the full frame-type table.
package signaling

import "github.com/google/uuid"

// Frame types, the tagged union's discriminant.
const (
	TypeSignalMessage = "SignalMessage"
	TypeAck           = "Ack"
	TypeSyncRequest   = "SyncRequest"
	TypeSyncResponse  = "SyncResponse"
	TypeSdpOffer      = "SdpOffer"
	TypeSdpAnswer     = "SdpAnswer"
	TypeIceCandidate  = "IceCandidate"
	TypeDeliveryStatus = "DeliveryStatus"
	TypeTyping        = "Typing"
	TypePing          = "Ping"
	TypePong          = "Pong"
	TypeError         = "Error"
)

// SignalMessage carries an E2EE ciphertext addressed to one recipient device.
type SignalMessage struct {
	ConversationID    uuid.UUID `json:"conversation_id" msgpack:"conversation_id"`
	ClientMessageID   *uuid.UUID `json:"client_message_id,omitempty" msgpack:"client_message_id,omitempty"`
	RecipientID       uuid.UUID `json:"recipient_id" msgpack:"recipient_id"`
	RecipientDeviceID int64     `json:"recipient_device_id" msgpack:"recipient_device_id"`
	Ciphertext        []byte    `json:"ciphertext" msgpack:"ciphertext"`
	IV                []byte    `json:"iv" msgpack:"iv"`
	MessageType       int       `json:"message_type" msgpack:"message_type"`
	AttachmentURL     *string   `json:"attachment_url,omitempty" msgpack:"attachment_url,omitempty"`
	ThumbnailURL      *string   `json:"thumbnail_url,omitempty" msgpack:"thumbnail_url,omitempty"`
	ReplyToMessageID  *int64    `json:"reply_to_message_id,omitempty" msgpack:"reply_to_message_id,omitempty"`

	// Server-added on forward.
	SenderID       uuid.UUID `json:"sender_id,omitempty" msgpack:"sender_id,omitempty"`
	SenderDeviceID int64     `json:"sender_device_id,omitempty" msgpack:"sender_device_id,omitempty"`
	MessageID      int64     `json:"message_id,omitempty" msgpack:"message_id,omitempty"`
}

// Ack acknowledges delivery of a message to the caller's own device.
type Ack struct {
	MessageID int64 `json:"message_id" msgpack:"message_id"`
}

// SyncRequest asks for undelivered envelopes newer than an optional cursor.
type SyncRequest struct {
	LastMessageID *int64 `json:"last_message_id,omitempty" msgpack:"last_message_id,omitempty"`
}

// SyncResponse carries the result of a Sync run.
type SyncResponse struct {
	Messages []SignalMessage `json:"messages" msgpack:"messages"`
}

// SdpOffer/SdpAnswer/IceCandidate are pure WebRTC signaling relay payloads.
type SdpOffer struct {
	RecipientID       uuid.UUID `json:"recipient_id" msgpack:"recipient_id"`
	RecipientDeviceID int64     `json:"recipient_device_id" msgpack:"recipient_device_id"`
	SDP               string    `json:"sdp" msgpack:"sdp"`

	SenderID       uuid.UUID `json:"sender_id,omitempty" msgpack:"sender_id,omitempty"`
	SenderDeviceID int64     `json:"sender_device_id,omitempty" msgpack:"sender_device_id,omitempty"`
}

type SdpAnswer struct {
	RecipientID       uuid.UUID `json:"recipient_id" msgpack:"recipient_id"`
	RecipientDeviceID int64     `json:"recipient_device_id" msgpack:"recipient_device_id"`
	SDP               string    `json:"sdp" msgpack:"sdp"`

	SenderID       uuid.UUID `json:"sender_id,omitempty" msgpack:"sender_id,omitempty"`
	SenderDeviceID int64     `json:"sender_device_id,omitempty" msgpack:"sender_device_id,omitempty"`
}

type IceCandidate struct {
	RecipientID       uuid.UUID `json:"recipient_id" msgpack:"recipient_id"`
	RecipientDeviceID int64     `json:"recipient_device_id" msgpack:"recipient_device_id"`
	Candidate         string    `json:"candidate" msgpack:"candidate"`

	SenderID       uuid.UUID `json:"sender_id,omitempty" msgpack:"sender_id,omitempty"`
	SenderDeviceID int64     `json:"sender_device_id,omitempty" msgpack:"sender_device_id,omitempty"`
}

// DeliveryStatus reports a recipient's Delivered or Read signal.
type DeliveryStatus struct {
	MessageID      int64     `json:"message_id" msgpack:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id" msgpack:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id" msgpack:"sender_id"`
	Status         string    `json:"status" msgpack:"status"` // "delivered" or "read"
}

// Typing is an ephemeral, unpersisted presence signal.
type Typing struct {
	ConversationID uuid.UUID `json:"conversation_id" msgpack:"conversation_id"`
	RecipientID    uuid.UUID `json:"recipient_id" msgpack:"recipient_id"`
	IsTyping       bool      `json:"is_typing" msgpack:"is_typing"`
}

// ErrorFrame is a server-originated error notification.
type ErrorFrame struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}
