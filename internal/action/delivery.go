package action

import (
	"encoding/json"
	"fmt"

	"go.helics.dev/corehub/internal/message"
)

// deliveryPayload mirrors message.Message with JSON tags, for embedding a
// full delivered message inside a CMD_MESSAGE frame's Payload field.
type deliveryPayload struct {
	Source              string  `json:"source"`
	OriginalSource       string  `json:"original_source,omitempty"`
	Destination          string  `json:"destination"`
	OriginalDestination  string  `json:"original_destination,omitempty"`
	Payload              []byte  `json:"payload,omitempty"`
	Time                 float64 `json:"time"`
	ID                   uint64  `json:"id"`
	Flags                uint16  `json:"flags"`
}

// EncodeDelivery packs a message.Message into the opaque Payload bytes a
// CMD_MESSAGE frame carries.
func EncodeDelivery(msg message.Message) ([]byte, error) {
	b, err := json.Marshal(deliveryPayload{
		Source:              msg.Source,
		OriginalSource:      msg.OriginalSource,
		Destination:         msg.Destination,
		OriginalDestination: msg.OriginalDestination,
		Payload:             msg.Payload,
		Time:                msg.Time,
		ID:                  uint64(msg.ID),
		Flags:               msg.Flags,
	})
	if err != nil {
		return nil, fmt.Errorf("delivery encode: %w", err)
	}
	return b, nil
}

// DecodeDelivery unpacks a CMD_MESSAGE frame's Payload bytes back into a
// message.Message.
func DecodeDelivery(b []byte) (message.Message, error) {
	var p deliveryPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return message.Message{}, fmt.Errorf("delivery decode: %w", err)
	}
	return message.Message{
		Source:              p.Source,
		OriginalSource:      p.OriginalSource,
		Destination:         p.Destination,
		OriginalDestination: p.OriginalDestination,
		Payload:             p.Payload,
		Time:                p.Time,
		ID:                  message.ID(p.ID),
		Flags:               p.Flags,
	}, nil
}

// WithDelivery returns a copy of m with Action set to CmdMessage and
// Payload set to msg's encoded form, or an error if encoding fails.
func WithDelivery(m Message, msg message.Message) (Message, error) {
	b, err := EncodeDelivery(msg)
	if err != nil {
		return Message{}, err
	}
	m.Action = CmdMessage
	m.Payload = b
	m.MessageID = msg.ID
	return m, nil
}
