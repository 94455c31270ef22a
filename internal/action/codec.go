package action

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
)

// MaxFrameSize bounds a single decoded frame (16 MiB), matching the
// teacher's MaxMessageSize guard against a runaway length prefix.
const MaxFrameSize = 16 * 1024 * 1024

// wireMessage mirrors Message with JSON tags; kept separate so Message
// itself stays free of wire-format concerns.
type wireMessage struct {
	Action       Code       `json:"action"`
	SourceID     int32      `json:"source_id"`
	SourceHandle int32      `json:"source_handle"`
	DestID       int32      `json:"dest_id"`
	DestHandle   int32      `json:"dest_handle"`
	MessageID    uint64     `json:"message_id"`
	Flags        uint16     `json:"flags"`
	Time         float64    `json:"time"`
	Name         string     `json:"name,omitempty"`
	Payload      []byte     `json:"payload,omitempty"`
	ExtraData    []byte     `json:"extra_data,omitempty"`
}

func toWire(m Message) wireMessage {
	return wireMessage{
		Action:       m.Action,
		SourceID:     m.SourceID.BaseValue(),
		SourceHandle: m.SourceHandle.BaseValue(),
		DestID:       m.DestID.BaseValue(),
		DestHandle:   m.DestHandle.BaseValue(),
		MessageID:    uint64(m.MessageID),
		Flags:        m.Flags,
		Time:         m.Time,
		Name:         m.Name,
		Payload:      m.Payload,
		ExtraData:    m.ExtraData,
	}
}

func (w wireMessage) toMessage() Message {
	return Message{
		Action:       w.Action,
		SourceID:     ident.NewFederateID(w.SourceID),
		SourceHandle: ident.NewInterfaceHandle(w.SourceHandle),
		DestID:       ident.NewFederateID(w.DestID),
		DestHandle:   ident.NewInterfaceHandle(w.DestHandle),
		MessageID:    message.ID(w.MessageID),
		Flags:        w.Flags,
		Time:         w.Time,
		Name:         w.Name,
		Payload:      w.Payload,
		ExtraData:    w.ExtraData,
	}
}

// Encode serializes m to its self-describing wire form: a 4-byte
// big-endian length prefix followed by a JSON-encoded frame body. The
// length prefix lets a receiver depacketize without any out-of-band
// framing, per spec §6 — a REDESIGN of the teacher's newline-delimited
// JSON framing (internal/wire), kept to the same JSON body encoding.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(toWire(m))
	if err != nil {
		return nil, fmt.Errorf("action encode: %w", err)
	}
	if len(body) > MaxFrameSize {
		return nil, fmt.Errorf("action encode: frame too large (%d bytes)", len(body))
	}
	return prefixed(body), nil
}

// WriteTo writes m's length-prefixed encoding to w.
func WriteTo(w io.Writer, m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrom reads one length-prefixed frame from r and decodes it.
func ReadFrom(r io.Reader) (Message, error) {
	body, err := readPrefixed(r)
	if err != nil {
		return Message{}, err
	}
	return decodeBody(body)
}

func decodeBody(body []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(body, &w); err != nil {
		return Message{}, fmt.Errorf("action decode: %w", err)
	}
	return w.toMessage(), nil
}

// prefixed wraps body with its own 4-byte big-endian length prefix.
func prefixed(body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body)))
	copy(out[4:], body)
	return out
}

// readPrefixed reads one length-prefixed blob from r.
func readPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("action decode: frame too large (%d bytes)", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("action decode: %w", err)
	}
	return body, nil
}
