package brokerloop

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomTagShapeAndAlphabet(t *testing.T) {
	tag := randomTag()
	require.Len(t, tag, 21)
	require.Equal(t, byte('-'), tag[10])
	for i, c := range []byte(tag) {
		if i == 10 {
			continue
		}
		require.Contains(t, tagAlphabet, string(c), "character %d (%q) must come from the tag alphabet", i, c)
	}
}

func TestRandomTagIsNotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		seen[randomTag()] = true
	}
	require.Greater(t, len(seen), 1, "successive calls must not all collide")
}

func TestGenIDPrefixedByProcessID(t *testing.T) {
	id := GenID()
	want := fmt.Sprintf("%d-", os.Getpid())
	require.True(t, strings.HasPrefix(id, want), "GenID() = %q, want prefix %q", id, want)
}
