package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStampOriginOnlyOnce(t *testing.T) {
	m := Message{Source: "port1", Destination: "port2"}
	m = m.StampOrigin()
	require.Equal(t, "port1", m.OriginalSource)
	require.Equal(t, "port2", m.OriginalDestination)

	m.Source = "port3" // a later filter rewrites Source
	m = m.StampOrigin() // must not overwrite the already-stamped origin
	require.Equal(t, "port1", m.OriginalSource)
	require.Equal(t, "port2", m.OriginalDestination)
}

func TestCloneDeepCopiesPayload(t *testing.T) {
	m := Message{Payload: []byte("hello")}
	cp := m.Clone()
	cp.Payload[0] = 'H'
	require.Equal(t, "hello", string(m.Payload))
	require.Equal(t, "Hello", string(cp.Payload))
}

func TestFlags(t *testing.T) {
	m := Message{}
	require.False(t, m.HasFlag(FlagRequired))
	m = m.WithFlag(FlagRequired)
	require.True(t, m.HasFlag(FlagRequired))
	require.False(t, m.HasFlag(FlagDisconnected))
	m = m.WithFlag(FlagDisconnected)
	require.True(t, m.HasFlag(FlagRequired))
	require.True(t, m.HasFlag(FlagDisconnected))
}

func TestEndpointLifecycle(t *testing.T) {
	e := &Endpoint{Name: "port1"}
	require.Equal(t, EndpointCreated, e.State)

	e.Activate()
	require.Equal(t, EndpointActive, e.State)

	e.Disconnect()
	require.Equal(t, EndpointDisconnected, e.State)
}
