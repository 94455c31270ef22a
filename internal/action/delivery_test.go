package action

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/message"
)

func TestDeliveryRoundTrip(t *testing.T) {
	msg := message.Message{
		Source: "port1", Destination: "port2",
		Payload: []byte("payload bytes"), Time: 4.5, ID: 77, Flags: message.FlagRequired,
	}.StampOrigin()

	b, err := EncodeDelivery(msg)
	require.NoError(t, err)

	out, err := DecodeDelivery(b)
	require.NoError(t, err)
	require.Equal(t, msg, out)
}

func TestWithDeliverySetsActionAndMessageID(t *testing.T) {
	msg := message.Message{Source: "a", Destination: "b", ID: 9}
	frame, err := WithDelivery(Message{}, msg)
	require.NoError(t, err)
	require.Equal(t, CmdMessage, frame.Action)
	require.Equal(t, message.ID(9), frame.MessageID)

	decoded, err := DecodeDelivery(frame.Payload)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}
