// Package filterfed implements the filter federate: the executor at the
// heart of the core. It runs each endpoint's filter coordinator, tracks
// outstanding asynchronous filter operator completions as process
// markers, and publishes the minimum return time those markers impose on
// the owning federate's time advancement.
package filterfed

import (
	"sync"

	"go.helics.dev/corehub/internal/filtercoord"
	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
)

// State is the filter federate's lifecycle state, driven by commands from
// the broker-base loop.
type State int

const (
	Created State = iota
	Initializing
	Executing
	Finalized
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initializing:
		return "initializing"
	case Executing:
		return "executing"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// initialMessageCounter is the arbitrary but recognizably large starting
// value for message_id assignment, so zero-initialized ids are clearly
// invalid. Ported verbatim from the original's messageCounter{54}.
const initialMessageCounter message.ID = 54

// marker records one outstanding asynchronous filter operator completion:
// the process must finish, and return no later than ReturnTime, before the
// owning federate may advance its granted time past it.
type marker struct {
	processID ident.Base
	messageID message.ID
	returnTime float64
}

// DeliverFunc hands a fully processed message to the transport layer for
// delivery to its current Destination.
type DeliverFunc func(msg message.Message)

// TimeCoordinator is the minimal collaborator contract the filter
// federate needs from the (out-of-scope) time coordinator: publishing how
// far outstanding filter processes block this federate's granted time.
type TimeCoordinator interface {
	SetMinReturnTime(fedID ident.FederateID, t float64, blocked bool)
}

// Federate is the filter federate for one owning core/federate. It holds
// one Coordinator per endpoint name and the bookkeeping for asynchronous
// filter-operator completions.
type Federate struct {
	mu sync.Mutex

	fedID ident.FederateID
	state State

	coordinators map[string]*filtercoord.Coordinator

	messageCounter message.ID
	nextProcessID  ident.Base

	ongoingSourceProcesses map[ident.Base]marker
	ongoingDestProcesses   map[ident.Base]marker

	deliver DeliverFunc
	coord   TimeCoordinator
	onClamp func(endpoint string, from, to float64)
	onWarn  func(format string, args ...any)
}

// NewFederate returns a Federate in the Created state.
func NewFederate(fedID ident.FederateID, deliver DeliverFunc, coord TimeCoordinator) *Federate {
	return &Federate{
		fedID:                  fedID,
		state:                  Created,
		coordinators:           make(map[string]*filtercoord.Coordinator),
		messageCounter:         initialMessageCounter,
		ongoingSourceProcesses: make(map[ident.Base]marker),
		ongoingDestProcesses:   make(map[ident.Base]marker),
		deliver:                deliver,
		coord:                  coord,
	}
}

// SetClampLogger installs a callback invoked whenever a filter clamps a
// message's time forward to satisfy monotonicity.
func (f *Federate) SetClampLogger(fn func(endpoint string, from, to float64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onClamp = fn
}

// SetWarnLogger installs a callback for WARNING-level conditions (e.g. a
// filter return with no outstanding marker).
func (f *Federate) SetWarnLogger(fn func(format string, args ...any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onWarn = fn
}

// State returns the federate's current lifecycle state.
func (f *Federate) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// transitions allowed by the state machine: Created -> Initializing ->
// Executing -> Finalized, strictly forward.
var validTransitions = map[State]State{
	Created:      Initializing,
	Initializing: Executing,
	Executing:    Finalized,
}

// Transition advances the state machine. It reports false if newState is
// not the state immediately following the current one.
func (f *Federate) Transition(newState State) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if validTransitions[f.state] != newState {
		return false
	}
	f.state = newState
	return true
}

// Coordinator returns (creating if necessary) the filter coordinator for
// the named endpoint.
func (f *Federate) Coordinator(endpoint string) *filtercoord.Coordinator {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coordinators[endpoint]
	if !ok {
		c = filtercoord.New()
		f.coordinators[endpoint] = c
		ep := endpoint
		c.SetTimeClampLogger(func(from, to float64) {
			f.mu.Lock()
			cb := f.onClamp
			f.mu.Unlock()
			if cb != nil {
				cb(ep, from, to)
			}
		})
	}
	return c
}

func (f *Federate) nextMessageID() message.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCounter++
	return f.messageCounter
}

// ProcessMessage runs the source-side filter chain for msg (addressed by
// its current Source endpoint), delivering any clone outputs immediately
// and returning the primary output for the caller to deliver, or ok ==
// false if the chain dropped it.
//
// If msg has no message id yet, one is assigned here — the point at which
// a filter federate first relays a message, per the message-counter
// discipline.
func (f *Federate) ProcessMessage(msg message.Message) (out message.Message, ok bool) {
	if msg.ID == 0 {
		msg.ID = f.nextMessageID()
	}
	c := f.Coordinator(msg.Source)
	res := c.ProcessSource(msg)
	for _, clone := range res.Clones {
		f.deliver(clone)
	}
	if !res.Keep {
		return message.Message{}, false
	}
	return res.Primary, true
}

// DestinationProcessMessage runs the destination-side processing for msg
// (addressed by its current Destination endpoint): cloning destination
// filters dispatch immediately, then the single non-cloning destination
// filter (if any) runs. It reports whether the original command should
// proceed to the endpoint's receive queue.
func (f *Federate) DestinationProcessMessage(msg message.Message) (out message.Message, proceed bool) {
	if msg.ID == 0 {
		msg.ID = f.nextMessageID()
	}
	c := f.Coordinator(msg.Destination)
	res := c.ProcessDestination(msg)
	for _, clone := range res.Clones {
		f.deliver(clone)
	}
	if !res.Keep {
		return message.Message{}, false
	}
	return res.Primary, true
}

// BeginAsyncProcess records a new outstanding asynchronous filter-operator
// completion for msg, blocking the owning federate's granted time at
// returnTime until ProcessFilterReturn matches it. dest selects whether
// this is a source-side or destination-side marker.
func (f *Federate) BeginAsyncProcess(msg message.Message, returnTime float64, dest bool) ident.Base {
	f.mu.Lock()
	f.nextProcessID++
	pid := f.nextProcessID
	m := marker{processID: pid, messageID: msg.ID, returnTime: returnTime}
	if dest {
		f.ongoingDestProcesses[pid] = m
	} else {
		f.ongoingSourceProcesses[pid] = m
	}
	minTime, blocked := f.minReturnTimeLocked()
	f.mu.Unlock()

	if f.coord != nil {
		f.coord.SetMinReturnTime(f.fedID, minTime, blocked)
	}
	return pid
}

// ProcessFilterReturn matches an arriving filter-return message by its
// message id against an outstanding marker, removes the marker,
// recomputes minReturnTime, and forwards the (possibly mutated) message
// for delivery. A return with no matching marker makes it return false
// and is logged at WARNING.
func (f *Federate) ProcessFilterReturn(msg message.Message) (matched bool) {
	f.mu.Lock()
	found := false
	for pid, m := range f.ongoingSourceProcesses {
		if m.messageID == msg.ID {
			delete(f.ongoingSourceProcesses, pid)
			found = true
			break
		}
	}
	if !found {
		for pid, m := range f.ongoingDestProcesses {
			if m.messageID == msg.ID {
				delete(f.ongoingDestProcesses, pid)
				found = true
				break
			}
		}
	}
	minTime, blocked := f.minReturnTimeLocked()
	warn := f.onWarn
	f.mu.Unlock()

	if !found {
		if warn != nil {
			warn("filter return for message %d has no outstanding marker, discarding", msg.ID)
		}
		return false
	}

	if f.coord != nil {
		f.coord.SetMinReturnTime(f.fedID, minTime, blocked)
	}
	f.deliver(msg)
	return true
}

// minReturnTimeLocked computes the minimum return time across all
// outstanding markers. Caller must hold f.mu.
func (f *Federate) minReturnTimeLocked() (t float64, blocked bool) {
	first := true
	for _, m := range f.ongoingSourceProcesses {
		if first || m.returnTime < t {
			t = m.returnTime
			first = false
		}
	}
	for _, m := range f.ongoingDestProcesses {
		if first || m.returnTime < t {
			t = m.returnTime
			first = false
		}
	}
	return t, !first
}

// MinReturnTime reports the current minimum return time across all
// outstanding markers, and whether any are outstanding at all.
func (f *Federate) MinReturnTime() (t float64, blocked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minReturnTimeLocked()
}

// PendingProcessCount reports the number of outstanding asynchronous
// filter-operator completions, for diagnostics.
func (f *Federate) PendingProcessCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ongoingSourceProcesses) + len(f.ongoingDestProcesses)
}

// FilterNames returns the endpoint names that have a filter coordinator
// (created lazily by the first ProcessMessage/DestinationProcessMessage
// call or a direct Coordinator lookup), for read-only introspection.
func (f *Federate) FilterNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.coordinators))
	for name := range f.coordinators {
		out = append(out, name)
	}
	return out
}
