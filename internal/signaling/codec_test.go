package signaling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripJSON(t *testing.T) {
	ack := Ack{MessageID: 42}
	raw, err := Encode(TypeAck, ack, FormatJSON)
	require.NoError(t, err)

	frameType, payload, err := Decode(raw, FormatJSON)
	require.NoError(t, err)
	require.Equal(t, TypeAck, frameType)

	var decoded Ack
	require.NoError(t, DecodePayload(payload, FormatJSON, &decoded))
	require.Equal(t, ack.MessageID, decoded.MessageID)
}

func TestEncodeDecodeRoundTripMsgPack(t *testing.T) {
	msg := SignalMessage{
		ConversationID:    uuid.New(),
		RecipientID:       uuid.New(),
		RecipientDeviceID: 7,
		Ciphertext:        []byte("ciphertext"),
		IV:                []byte("iv"),
		MessageType:       1,
	}
	raw, err := Encode(TypeSignalMessage, msg, FormatMsgPack)
	require.NoError(t, err)

	frameType, payload, err := Decode(raw, FormatMsgPack)
	require.NoError(t, err)
	require.Equal(t, TypeSignalMessage, frameType)

	var decoded SignalMessage
	require.NoError(t, DecodePayload(payload, FormatMsgPack, &decoded))
	require.Equal(t, msg.RecipientDeviceID, decoded.RecipientDeviceID)
	require.Equal(t, msg.Ciphertext, decoded.Ciphertext)
}

func TestDecodeUnknownFormatErrors(t *testing.T) {
	_, _, err := Decode([]byte("{}"), Format(99))
	require.Error(t, err)
}
