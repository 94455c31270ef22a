// Package buildinfo carries this build's version and a protocol
// compatibility check that compares a version string against the minimum
// protocol version this build supports. cmd/helicscore's core command runs
// it on its own --protocol value before dialing a broker; the version is
// not carried to the broker in any CMD_PROTOCOL exchange.
package buildinfo

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// Version is this build's version string, normally overridden at link time
// via -ldflags "-X go.helics.dev/corehub/internal/buildinfo.Version=...".
var Version = "0.0.0-dev"

// MinSupportedProtocol is the oldest protocol version CheckCompatible
// accepts. Bumped only when a wire-incompatible change ships.
const MinSupportedProtocol = "0.0.0"

// CheckCompatible parses peerVersion and reports whether it satisfies
// MinSupportedProtocol. A malformed peer version string is reported as
// incompatible together with a non-nil error.
func CheckCompatible(peerVersion string) (bool, error) {
	peer, err := version.NewVersion(peerVersion)
	if err != nil {
		return false, fmt.Errorf("buildinfo: malformed peer version %q: %w", peerVersion, err)
	}
	min, err := version.NewVersion(MinSupportedProtocol)
	if err != nil {
		return false, fmt.Errorf("buildinfo: malformed MinSupportedProtocol %q: %w", MinSupportedProtocol, err)
	}
	return !peer.LessThan(min), nil
}

// RequireCompatible is CheckCompatible's error-returning form, for callers
// that want a single check-and-fail-fast call during handshake.
func RequireCompatible(peerVersion string) error {
	ok, err := CheckCompatible(peerVersion)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("buildinfo: peer version %q is older than minimum supported protocol %q", peerVersion, MinSupportedProtocol)
	}
	return nil
}
