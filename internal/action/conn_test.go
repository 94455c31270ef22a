package action

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/crypto"
	"go.helics.dev/corehub/internal/ident"
)

func TestConnRoundTripPlain(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := New(server, nil)
	cc := New(client, nil)

	msg := Message{Action: CmdMessage, SourceID: ident.NewFederateID(1), Time: 3.0, Name: "port1"}

	done := make(chan error, 1)
	go func() { done <- cc.WriteMessage(msg) }()

	got, err := sc.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, msg.Action, got.Action)
	require.Equal(t, msg.Name, got.Name)
	require.Equal(t, msg.Time, got.Time)
}

func TestConnRoundTripEncrypted(t *testing.T) {
	key, err := crypto.DeriveKey("shared-test-token")
	require.NoError(t, err)

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := New(server, key)
	cc := New(client, key)

	msg := Message{Action: CmdFilterResult, MessageID: 42, Payload: []byte("mutated payload")}

	done := make(chan error, 1)
	go func() { done <- cc.WriteMessage(msg) }()

	got, err := sc.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, msg.Action, got.Action)
	require.Equal(t, msg.MessageID, got.MessageID)
	require.Equal(t, msg.Payload, got.Payload)
}
