package signaling

import (
	"context"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/messagelog"
	"github.com/hakimino/vyry/internal/metrics"
	"github.com/hakimino/vyry/internal/realtime"
)

// Session is the caller's identity plus a format-aware send function,
// bound to one live connection.
type Session struct {
	UserID   uuid.UUID
	DeviceID int64
	Format   Format
	Conn     *realtime.Conn
}

func (s *Session) sendFrame(frameType string, payload any) {
	raw, err := Encode(frameType, payload, s.Format)
	if err != nil {
		return
	}
	s.Conn.Client.Send(raw)
}

// Router dispatches decoded frames per the table in spec.md §4.9.
type Router struct {
	manager *realtime.Manager
	log     *messagelog.Service
	logger  *logging.Logger
}

func NewRouter(manager *realtime.Manager, messages *messagelog.Service, logger *logging.Logger) *Router {
	return &Router{manager: manager, log: messages, logger: logger}
}

// Handle parses and dispatches one inbound frame. Parse failures log a
// warning and are non-fatal to the connection; unknown types are ignored.
func (r *Router) Handle(ctx context.Context, session *Session, raw []byte) {
	frameType, payload, err := Decode(raw, session.Format)
	if err != nil {
		r.logger.Warn("frame parse failed", "error", err, "user", session.UserID)
		return
	}

	metrics.RecordFrame(frameType, "inbound")

	switch frameType {
	case TypeSignalMessage:
		r.handleSignalMessage(ctx, session, payload)
	case TypeAck:
		r.handleAck(ctx, session, payload)
	case TypeSyncRequest:
		r.handleSyncRequest(ctx, session, payload)
	case TypeSdpOffer:
		r.relay(session, payload, TypeSdpOffer)
	case TypeSdpAnswer:
		r.relay(session, payload, TypeSdpAnswer)
	case TypeIceCandidate:
		r.relay(session, payload, TypeIceCandidate)
	case TypeDeliveryStatus:
		r.handleDeliveryStatus(ctx, session, payload)
	case TypeTyping:
		r.handleTyping(session, payload)
	case TypePing:
		session.sendFrame(TypePong, struct{}{})
	default:
		r.logger.Warn("unknown frame type ignored", "type", frameType)
	}
}

func (r *Router) handleSignalMessage(ctx context.Context, session *Session, payload any) {
	var msg SignalMessage
	if err := DecodePayload(payload, session.Format, &msg); err != nil {
		r.logger.Warn("signal message decode failed", "error", err)
		return
	}

	messageID, err := r.log.Send(ctx, messagelog.SendRequest{
		ConversationID:    msg.ConversationID,
		ClientMessageID:   msg.ClientMessageID,
		SenderUserID:      session.UserID,
		SenderDeviceID:    session.DeviceID,
		RecipientDeviceID: msg.RecipientDeviceID,
		Ciphertext:        msg.Ciphertext,
		IV:                msg.IV,
		Type:              msg.MessageType,
		AttachmentURL:     msg.AttachmentURL,
		ThumbnailURL:      msg.ThumbnailURL,
		ReplyToMessageID:  msg.ReplyToMessageID,
	})
	if err != nil {
		r.logger.Warn("signal message persist failed", "error", err)
		session.sendFrame(TypeError, ErrorFrame{Code: "send_failed", Message: "unable to persist message"})
		return
	}

	msg.SenderID = session.UserID
	msg.SenderDeviceID = session.DeviceID
	msg.MessageID = messageID

	if conn, ok := r.manager.Lookup(msg.RecipientID, msg.RecipientDeviceID); ok {
		raw, err := Encode(TypeSignalMessage, msg, session.Format)
		if err == nil {
			conn.Client.Send(raw)
		}
	}
	// If absent, the recipient picks this up via SyncRequest on reconnect.
}

func (r *Router) handleAck(ctx context.Context, session *Session, payload any) {
	var ack Ack
	if err := DecodePayload(payload, session.Format, &ack); err != nil {
		r.logger.Warn("ack decode failed", "error", err)
		return
	}
	if err := r.log.UpdateStatus(ctx, ack.MessageID, session.DeviceID, false); err != nil {
		r.logger.Warn("ack update failed", "error", err)
	}
}

func (r *Router) handleSyncRequest(ctx context.Context, session *Session, payload any) {
	var req SyncRequest
	if err := DecodePayload(payload, session.Format, &req); err != nil {
		r.logger.Warn("sync request decode failed", "error", err)
		return
	}

	envelopes, err := r.log.Sync(ctx, session.DeviceID, req.LastMessageID)
	if err != nil {
		r.logger.Warn("sync failed", "error", err)
		return
	}

	messages := make([]SignalMessage, 0, len(envelopes))
	for _, e := range envelopes {
		messages = append(messages, SignalMessage{
			ConversationID: e.ConversationID,
			SenderID:       e.SenderUserID,
			SenderDeviceID: e.SenderDeviceID,
			MessageID:      e.ID,
			Ciphertext:     e.Content,
			IV:             e.IV,
			MessageType:    e.Type,
		})
	}
	session.sendFrame(TypeSyncResponse, SyncResponse{Messages: messages})
}

// relay forwards WebRTC signaling frames verbatim, stamping the sender's
// identity into the sender fields of the forwarded copy.
func (r *Router) relay(session *Session, payload any, frameType string) {
	var recipientID uuid.UUID
	var recipientDeviceID int64

	switch frameType {
	case TypeSdpOffer:
		var f SdpOffer
		if err := DecodePayload(payload, session.Format, &f); err != nil {
			return
		}
		recipientID, recipientDeviceID = f.RecipientID, f.RecipientDeviceID
		f.SenderID, f.SenderDeviceID = session.UserID, session.DeviceID
		if conn, ok := r.manager.Lookup(recipientID, recipientDeviceID); ok {
			if raw, err := Encode(frameType, f, session.Format); err == nil {
				conn.Client.Send(raw)
			}
		}
	case TypeSdpAnswer:
		var f SdpAnswer
		if err := DecodePayload(payload, session.Format, &f); err != nil {
			return
		}
		recipientID, recipientDeviceID = f.RecipientID, f.RecipientDeviceID
		f.SenderID, f.SenderDeviceID = session.UserID, session.DeviceID
		if conn, ok := r.manager.Lookup(recipientID, recipientDeviceID); ok {
			if raw, err := Encode(frameType, f, session.Format); err == nil {
				conn.Client.Send(raw)
			}
		}
	case TypeIceCandidate:
		var f IceCandidate
		if err := DecodePayload(payload, session.Format, &f); err != nil {
			return
		}
		recipientID, recipientDeviceID = f.RecipientID, f.RecipientDeviceID
		f.SenderID, f.SenderDeviceID = session.UserID, session.DeviceID
		if conn, ok := r.manager.Lookup(recipientID, recipientDeviceID); ok {
			if raw, err := Encode(frameType, f, session.Format); err == nil {
				conn.Client.Send(raw)
			}
		}
	}
}

func (r *Router) handleDeliveryStatus(ctx context.Context, session *Session, payload any) {
	var ds DeliveryStatus
	if err := DecodePayload(payload, session.Format, &ds); err != nil {
		r.logger.Warn("delivery status decode failed", "error", err)
		return
	}

	if err := r.log.UpdateStatus(ctx, ds.MessageID, session.DeviceID, ds.Status == "read"); err != nil {
		r.logger.Warn("delivery status update failed", "error", err)
	}

	for _, conn := range r.manager.ListByUser(ds.SenderID) {
		raw, err := Encode(TypeDeliveryStatus, ds, session.Format)
		if err == nil {
			conn.Client.Send(raw)
		}
	}
}

func (r *Router) handleTyping(session *Session, payload any) {
	var t Typing
	if err := DecodePayload(payload, session.Format, &t); err != nil {
		r.logger.Warn("typing decode failed", "error", err)
		return
	}
	for _, conn := range r.manager.ListByUser(t.RecipientID) {
		raw, err := Encode(TypeTyping, t, session.Format)
		if err == nil {
			conn.Client.Send(raw)
		}
	}
}
