package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/shamaton/msgpack/v2"
)

// Format names the two symmetric wire encodings the router accepts on
// input and echoes on output.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgPack
)

// wireFrame is the {type, payload} shape on the wire, payload kept generic
// so it can be re-marshaled into whichever concrete frame struct Type names.
type wireFrame struct {
	Type    string `json:"type" msgpack:"type"`
	Payload any    `json:"payload" msgpack:"payload"`
}

// Decode parses a raw frame, returning its type tag and a payload decoder
// that reifies the dynamic payload into a concrete struct.
func Decode(raw []byte, format Format) (frameType string, payload any, err error) {
	var wf wireFrame
	switch format {
	case FormatJSON:
		err = json.Unmarshal(raw, &wf)
	case FormatMsgPack:
		err = msgpack.Unmarshal(raw, &wf)
	default:
		return "", nil, fmt.Errorf("signaling: unknown format %d", format)
	}
	if err != nil {
		return "", nil, fmt.Errorf("signaling: decode frame: %w", err)
	}
	return wf.Type, wf.Payload, nil
}

// DecodePayload re-marshals the generic payload and unmarshals it into
// dst, bridging the loosely-typed wire decode to a concrete frame struct.
func DecodePayload(payload any, format Format, dst any) error {
	switch format {
	case FormatJSON:
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("signaling: re-marshal payload: %w", err)
		}
		return json.Unmarshal(raw, dst)
	case FormatMsgPack:
		raw, err := msgpack.Marshal(payload)
		if err != nil {
			return fmt.Errorf("signaling: re-marshal payload: %w", err)
		}
		return msgpack.Unmarshal(raw, dst)
	default:
		return fmt.Errorf("signaling: unknown format %d", format)
	}
}

// Encode produces a complete {type, payload} frame in the requested format.
func Encode(frameType string, payload any, format Format) ([]byte, error) {
	wf := wireFrame{Type: frameType, Payload: payload}
	switch format {
	case FormatJSON:
		return json.Marshal(wf)
	case FormatMsgPack:
		return msgpack.Marshal(wf)
	default:
		return nil, fmt.Errorf("signaling: unknown format %d", format)
	}
}
