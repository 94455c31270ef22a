package corerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKindFormatting(t *testing.T) {
	err := New(InvalidParameter, "unknown property %q", "frobnicate")
	require.Equal(t, "InvalidParameter: unknown property \"frobnicate\"", err.Error())
}

func TestIsUnwraps(t *testing.T) {
	base := New(RegistrationFailure, "duplicate name")
	wrapped := fmt.Errorf("registering endpoint: %w", base)
	require.True(t, Is(wrapped, RegistrationFailure))
	require.False(t, Is(wrapped, SystemFailure))
}
