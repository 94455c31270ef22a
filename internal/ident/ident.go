// Package ident implements the strongly typed identifier algebra used
// throughout the core: federate, broker, interface and route identifiers,
// and the composite (fed, interface) handle that names an interface
// cluster-wide.
//
// Federate and broker identifiers share one numeric space, split by two
// shift constants so that a raw local index, a federation-wide federate id,
// and a broker id can never collide: values below GlobalFederateIDShift are
// local indices, values in [GlobalFederateIDShift, GlobalBrokerIDShift) are
// global federate ids, and values at or above GlobalBrokerIDShift are
// broker ids (with id 1 reserved for the root broker as a special case).
package ident

import "fmt"

// Base is the underlying representation for every identifier in this
// package. HELICS itself allows for roughly 1.9 billion federates and 268
// million brokers in this space; int32 is ample headroom for a Go
// reimplementation and keeps identifiers comparable and hashable as plain
// struct values.
type Base = int32

const (
	// GlobalFederateIDShift separates local federate indices from
	// federation-wide global federate ids.
	GlobalFederateIDShift Base = 0x0002_0000
	// GlobalBrokerIDShift separates global federate ids from broker ids.
	GlobalBrokerIDShift Base = 0x7000_0000
	// PriorityBlockSize is the block size used for global priority levels.
	PriorityBlockSize Base = 100_000_000

	invalidFederateID Base = -2_010_000_000
	invalidBrokerID    Base = -2_010_000_000
	invalidHandle      Base = -1_070_000_000
)

// BrokerID is a globally unique identifier for a broker or core.
type BrokerID struct{ v Base }

// NewBrokerID wraps a raw value as a BrokerID.
func NewBrokerID(v Base) BrokerID { return BrokerID{v} }

// ParentBrokerID addresses "the parent" of whatever object receives it.
var ParentBrokerID = BrokerID{0}

// RootBrokerID is the reserved id of the root broker of a federation.
var RootBrokerID = BrokerID{1}

// InvalidBrokerID is the sentinel for an unset BrokerID. It is not the Go
// zero value: BrokerID{} holds 0, which is ParentBrokerID.
var InvalidBrokerID = BrokerID{invalidBrokerID}

func (b BrokerID) BaseValue() Base { return b.v }

func (b BrokerID) IsValid() bool { return b.v != invalidBrokerID && b.v != invalidHandle }

func (b BrokerID) IsBroker() bool { return b.v >= GlobalBrokerIDShift || b.v == 1 }

func (b BrokerID) LocalIndex() Base {
	if b.v >= GlobalBrokerIDShift {
		return b.v - GlobalBrokerIDShift
	}
	return b.v
}

func (b BrokerID) String() string { return fmt.Sprintf("broker(%d)", b.v) }

// FederateID is a globally unique identifier for a federate. A FederateID
// is freely convertible to/from BrokerID since the two share one id space
// (a federate always belongs to exactly one core, which is itself
// addressable by the same numeric space as a broker).
type FederateID struct{ v Base }

// NewFederateID wraps a raw value as a FederateID.
func NewFederateID(v Base) FederateID { return FederateID{v} }

// InvalidFederateID is the sentinel for an unset FederateID; the Go zero
// value FederateID{} holds 0 and is valid.
var InvalidFederateID = FederateID{invalidFederateID}

// DirectCoreID addresses the local core directly, even before the core has
// been assigned a global federate id.
var DirectCoreID = FederateID{-235262}

func (f FederateID) BaseValue() Base { return f.v }

func (f FederateID) AsBrokerID() BrokerID { return BrokerID{f.v} }

func FederateIDFromBroker(b BrokerID) FederateID { return FederateID{b.v} }

func (f FederateID) IsValid() bool { return f.v != invalidFederateID && f.v != invalidHandle }

func (f FederateID) IsFederate() bool {
	return f.v >= GlobalFederateIDShift && f.v < GlobalBrokerIDShift
}

func (f FederateID) IsBroker() bool { return f.v >= GlobalBrokerIDShift || f.v == 1 }

func (f FederateID) LocalIndex() Base {
	if f.v >= GlobalFederateIDShift {
		return f.v - GlobalFederateIDShift
	}
	return f.v
}

func (f FederateID) String() string { return fmt.Sprintf("fed(%d)", f.v) }

// SpecialFederateID returns one of the small number of reserved federate
// ids a broker/core assigns itself for internal bookkeeping (e.g. the
// filter federate's own id), offset from that broker's id.
func SpecialFederateID(broker BrokerID, index Base) FederateID {
	if broker != RootBrokerID {
		return FederateID{GlobalBrokerIDShift - 3*(broker.v-GlobalBrokerIDShift+2) + index}
	}
	return FederateID{GlobalBrokerIDShift - 3 + index}
}

// InterfaceHandle is a process-local handle for an endpoint, publication,
// input, filter, or translator. It is only meaningful in combination with
// the owning federate's id (see GlobalHandle).
type InterfaceHandle struct{ v Base }

// NewInterfaceHandle wraps a raw value as an InterfaceHandle.
func NewInterfaceHandle(v Base) InterfaceHandle { return InterfaceHandle{v} }

// InvalidInterfaceHandle is the sentinel for an unset handle; the Go zero
// value InterfaceHandle{} holds 0 and is valid.
var InvalidInterfaceHandle = InterfaceHandle{invalidHandle}

func (h InterfaceHandle) BaseValue() Base { return h.v }

func (h InterfaceHandle) IsValid() bool { return h.v != invalidHandle }

func (h InterfaceHandle) String() string { return fmt.Sprintf("handle(%d)", h.v) }

// GlobalHandle uniquely names an interface (endpoint, filter, ...)
// cluster-wide by pairing the owning federate's id with the interface's
// process-local handle.
type GlobalHandle struct {
	Fed    FederateID
	Handle InterfaceHandle
}

func NewGlobalHandle(fed FederateID, handle InterfaceHandle) GlobalHandle {
	return GlobalHandle{Fed: fed, Handle: handle}
}

func (g GlobalHandle) IsValid() bool { return g.Fed.IsValid() && g.Handle.IsValid() }

func (g GlobalHandle) String() string {
	return fmt.Sprintf("%s/%s", g.Fed.String(), g.Handle.String())
}

// RouteID identifies a transport route between two cores/brokers.
type RouteID struct{ v Base }

func NewRouteID(v Base) RouteID { return RouteID{v} }

// ParentRouteID is the reserved route id addressing a parent connection.
var ParentRouteID = RouteID{0}

// DirectSendRouteID is the reserved route id meaning "send directly,
// bypassing routing tables".
var DirectSendRouteID = RouteID{-1}

func (r RouteID) BaseValue() Base { return r.v }

func (r RouteID) String() string { return fmt.Sprintf("route(%d)", r.v) }
