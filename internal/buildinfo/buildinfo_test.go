package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCompatibleAcceptsNewerOrEqualPeer(t *testing.T) {
	ok, err := CheckCompatible(MinSupportedProtocol)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = CheckCompatible("99.0.0")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckCompatibleRejectsOlderPeer(t *testing.T) {
	ok, err := CheckCompatible("0.0.0-alpha")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckCompatibleErrorsOnMalformedVersion(t *testing.T) {
	_, err := CheckCompatible("not-a-version")
	require.Error(t, err)
}

func TestRequireCompatibleWrapsFailureWithMessage(t *testing.T) {
	err := RequireCompatible("0.0.0-alpha")
	require.Error(t, err)
	require.Contains(t, err.Error(), "older than minimum supported protocol")
}

func TestRequireCompatibleSucceedsForCurrentMin(t *testing.T) {
	require.NoError(t, RequireCompatible(MinSupportedProtocol))
}
