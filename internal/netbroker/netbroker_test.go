package netbroker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBarePort(t *testing.T) {
	iface, err := Parse("23500")
	require.NoError(t, err)
	require.Equal(t, "", iface.Host)
	require.Equal(t, 23500, iface.Port)
	require.Equal(t, FamilyUnspecified, iface.Family)
}

func TestParseHostPort(t *testing.T) {
	iface, err := Parse("192.168.1.5:23500")
	require.NoError(t, err)
	require.Equal(t, "192.168.1.5", iface.Host)
	require.Equal(t, 23500, iface.Port)
	require.Equal(t, FamilyIPv4, iface.Family)
}

func TestParseTCPScheme(t *testing.T) {
	iface, err := Parse("tcp://localhost:8080")
	require.NoError(t, err)
	require.Equal(t, "localhost", iface.Host)
	require.Equal(t, 8080, iface.Port)
}

func TestParseIPv6Bracketed(t *testing.T) {
	iface, err := Parse("[::1]:23500")
	require.NoError(t, err)
	require.Equal(t, FamilyIPv6, iface.Family)
	require.Equal(t, 23500, iface.Port)
}

func TestParseWildcardHost(t *testing.T) {
	iface, err := Parse("*:23500")
	require.NoError(t, err)
	require.Equal(t, "", iface.Host)
	require.Equal(t, 23500, iface.Port)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestReconcileSwapsAmbiguousOrdering(t *testing.T) {
	broker := Interface{Host: "broker.example.com", Port: -1}
	local := Interface{Host: "", Port: 23500}

	rb, rl := ReconcileBrokerAndLocalPort(broker, local)
	require.Equal(t, 23500, rb.Port, "empty local interface with a port becomes the broker port")
	require.Equal(t, -1, rl.Port)
}

func TestReconcileLeavesUnambiguousAlone(t *testing.T) {
	broker := Interface{Host: "broker.example.com", Port: 23500}
	local := Interface{Host: "eth0", Port: 23501}

	rb, rl := ReconcileBrokerAndLocalPort(broker, local)
	require.Equal(t, 23500, rb.Port)
	require.Equal(t, 23501, rl.Port)
}
