// Package message defines the data-plane Message and Endpoint types that
// flow through the filter federate and its operators.
//
// A Message is the unit the whole delivery/filtering subsystem operates on:
// filters read and transform it, the timer delays its release, and the
// federate executor routes it to its final endpoint. Endpoint is the named
// inbox/outbox a Message is addressed to or from.
package message

import "fmt"

// Flag bits carried on Message.Flags. Semantic names only — these are not
// the action-message routing flag bits used internally by the core's own
// command frames, which are out of this package's scope.
const (
	FlagRequired uint16 = 1 << iota
	FlagExtra1
	FlagExtra2
	FlagExtra3
	FlagExtra4
	FlagDisconnected
)

// ID is a process-local monotonically increasing message identifier.
// Zero is reserved as "unassigned".
type ID uint64

// Message is the unit carried between endpoints through the filter chain.
//
// OriginalSource and OriginalDestination are set once, at the first filter
// traversal a message passes through, and are immutable afterward — later
// filters may rewrite Source/Destination but must never touch the
// Original* fields. Time may only increase across any single filter
// transformation; it never runs backward.
type Message struct {
	Source              string
	OriginalSource      string
	Destination         string
	OriginalDestination string
	Payload             []byte
	Time                float64
	ID                  ID
	Flags               uint16
}

// Clone returns a deep copy, safe to hand to a second filter chain (e.g. a
// cloning filter's copies) without aliasing the original's payload.
func (m Message) Clone() Message {
	cp := m
	if m.Payload != nil {
		cp.Payload = append([]byte(nil), m.Payload...)
	}
	return cp
}

// HasFlag reports whether bit is set on the message's flag word.
func (m Message) HasFlag(bit uint16) bool {
	return m.Flags&bit != 0
}

// WithFlag returns a copy of m with bit set.
func (m Message) WithFlag(bit uint16) Message {
	m.Flags |= bit
	return m
}

// originFilled reports whether the immutable origin fields have already
// been stamped by an earlier filter traversal.
func (m Message) originFilled() bool {
	return m.OriginalSource != "" || m.OriginalDestination != ""
}

// StampOrigin fills OriginalSource/OriginalDestination from Source/
// Destination the first time a message is seen by a filter chain. Calling
// it again on an already-stamped message is a no-op, preserving the
// immutability invariant.
func (m Message) StampOrigin() Message {
	if m.originFilled() {
		return m
	}
	m.OriginalSource = m.Source
	m.OriginalDestination = m.Destination
	return m
}

func (m Message) String() string {
	return fmt.Sprintf("Message{id=%d %s->%s t=%g len=%d}", m.ID, m.Source, m.Destination, m.Time, len(m.Payload))
}

// EndpointState is the lifecycle state of an Endpoint, tracking its owning
// federate's progression from Created through Initializing to disconnected.
type EndpointState int

const (
	EndpointCreated EndpointState = iota
	EndpointActive
	EndpointDisconnected
)

func (s EndpointState) String() string {
	switch s {
	case EndpointCreated:
		return "created"
	case EndpointActive:
		return "active"
	case EndpointDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Endpoint is a named message interface owned by exactly one federate.
// Name is globally unique once scoping (federate-name prefixing for
// non-global endpoints) has been applied.
type Endpoint struct {
	Name        string
	Type        string
	OwnerFedID  int32
	LocalHandle int32
	State       EndpointState
}

// Activate transitions the endpoint to EndpointActive, matching the
// federate's transition to its Initializing state.
func (e *Endpoint) Activate() {
	if e.State == EndpointCreated {
		e.State = EndpointActive
	}
}

// Disconnect marks the endpoint disconnected, matching its owning
// federate's finalization.
func (e *Endpoint) Disconnect() {
	e.State = EndpointDisconnected
}
