package tcppeer

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/action"
	"go.helics.dev/corehub/internal/ident"
)

func pipePeers(t *testing.T) (*Peer, *Peer) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	return Accept(client, nil), Accept(server, nil)
}

func TestServeDeliversDecodedFramesToCallback(t *testing.T) {
	a, b := pipePeers(t)

	received := make(chan action.Message, 1)
	go func() { _ = b.Serve(func(m action.Message) { received <- m }) }()
	go func() { _ = a.Serve(func(action.Message) {}) }()

	want := action.Message{Action: action.CmdMessage, DestID: ident.NewFederateID(7), Name: "hello"}
	require.NoError(t, a.Route(want))

	select {
	case got := <-received:
		require.Equal(t, want.Action, got.Action)
		require.Equal(t, want.Name, got.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivered frame")
	}
}

func TestServeSwallowsKeepaliveFrames(t *testing.T) {
	a, b := pipePeers(t)

	received := make(chan action.Message, 1)
	go func() { _ = b.Serve(func(m action.Message) { received <- m }) }()
	go func() { _ = a.Serve(func(action.Message) {}) }()

	require.NoError(t, a.Route(action.Message{Action: action.CmdIgnore}))
	require.NoError(t, a.Route(action.Message{Action: action.CmdStop}))

	select {
	case got := <-received:
		require.Equal(t, action.CmdStop, got.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for non-keepalive frame")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	a, _ := pipePeers(t)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close()) // idempotent
}

func TestRouterFallsBackToUpstreamForUnknownDest(t *testing.T) {
	table := NewRouter()
	a, b := pipePeers(t)
	defer a.Close()
	table.SetUpstream(a)

	received := make(chan action.Message, 1)
	go func() { _ = b.Serve(func(m action.Message) { received <- m }) }()
	go func() { _ = a.Serve(func(action.Message) {}) }()

	require.NoError(t, table.Route(action.Message{Action: action.CmdMessage, DestID: ident.NewFederateID(99)}))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("expected upstream fallback delivery")
	}
}

func TestRouterPrefersAttachedPeerOverUpstream(t *testing.T) {
	table := NewRouter()
	up1, up2 := pipePeers(t)
	defer up1.Close()
	direct1, direct2 := pipePeers(t)
	defer direct1.Close()

	table.SetUpstream(up1)
	dest := ident.NewFederateID(5)
	table.Attach(dest, direct1)

	upReceived := make(chan action.Message, 1)
	directReceived := make(chan action.Message, 1)
	go func() { _ = up2.Serve(func(m action.Message) { upReceived <- m }) }()
	go func() { _ = up1.Serve(func(action.Message) {}) }()
	go func() { _ = direct2.Serve(func(m action.Message) { directReceived <- m }) }()
	go func() { _ = direct1.Serve(func(action.Message) {}) }()

	require.NoError(t, table.Route(action.Message{Action: action.CmdMessage, DestID: dest}))

	select {
	case <-directReceived:
	case <-time.After(2 * time.Second):
		t.Fatal("expected direct attachment to win over upstream")
	}
	select {
	case <-upReceived:
		t.Fatal("upstream should not have received a message routed to an attached peer")
	case <-time.After(100 * time.Millisecond):
	}
}
