// Package timeparse parses the simulated-time duration strings accepted by
// filter string properties (e.g. Delay's "delay" property: "10s", "45ms"),
// returning a value in simulated seconds as used throughout the filter
// catalog and message timer.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
)

// unit suffixes recognized; orderedUnits tries longer suffixes first so "ms"
// is tried before "s".
var unitSeconds = []struct {
	suffix  string
	seconds float64
}{
	{"ns", 1e-9},
	{"us", 1e-6},
	{"ms", 1e-3},
	{"s", 1},
	{"min", 60},
	{"hr", 3600},
	{"h", 3600},
}

// Seconds parses a duration string such as "10s", "45ms", "2.5", or "1.5min"
// into a count of simulated seconds. A bare number with no suffix is
// interpreted as seconds.
func Seconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("timeparse: empty duration string")
	}

	for _, u := range orderedUnits() {
		if strings.HasSuffix(s, u.suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			if numPart == "" {
				continue
			}
			val, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				continue
			}
			return val * u.seconds, nil
		}
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("timeparse: %q is not a recognized duration: %w", s, err)
	}
	return val, nil
}

// orderedUnits returns unitSeconds sorted so longer suffixes are matched
// before shorter ones that would otherwise shadow them (e.g. "ms" before
// "s", "min" before "h").
func orderedUnits() []struct {
	suffix  string
	seconds float64
} {
	out := make([]struct {
		suffix  string
		seconds float64
	}, len(unitSeconds))
	copy(out, unitSeconds)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j].suffix) > len(out[j-1].suffix); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// String formats seconds back into a compact duration string in ns, us, ms
// or s, picking the unit by magnitude; values of one second or more are
// always written in seconds (120 becomes "120s").
func String(seconds float64) string {
	switch {
	case seconds == 0:
		return "0s"
	case seconds < 1e-6:
		return fmt.Sprintf("%gns", seconds/1e-9)
	case seconds < 1e-3:
		return fmt.Sprintf("%gus", seconds/1e-6)
	case seconds < 1:
		return fmt.Sprintf("%gms", seconds/1e-3)
	default:
		return fmt.Sprintf("%gs", seconds)
	}
}
