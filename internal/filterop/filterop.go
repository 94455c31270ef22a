// Package filterop defines the closed set of message operator variants a
// filter coordinator composes: retime, rewrite-destination, mutate-
// payload, conditional pass/drop, clone, and firewall. Each is immutable
// after construction except for an atomic swap of its own configuration
// (e.g. a delay value or predicate), matching the filter operations
// catalog's own configurable-instance contract.
package filterop

import "go.helics.dev/corehub/internal/message"

// Operator transforms a single message into at most one output message.
// Returning ok == false drops the message.
type Operator interface {
	Process(msg message.Message) (out message.Message, ok bool)
}

// Cloner transforms a single message into zero or more output messages,
// used by filters whose semantics fan a single input out to many
// destinations.
type Cloner interface {
	ProcessClone(msg message.Message) []message.Message
}

// RetimeFunc computes a new delivery time from the current one.
type RetimeFunc func(t float64) float64

// RetimeOp rewrites a message's delivery time via f, set atomically by
// whatever owns the operator (e.g. the Delay filter's configuration).
type RetimeOp struct {
	f RetimeFunc
}

// NewRetimeOp returns a RetimeOp that applies f to each message's time.
func NewRetimeOp(f RetimeFunc) *RetimeOp { return &RetimeOp{f: f} }

// SetFunc atomically swaps the retiming function.
func (r *RetimeOp) SetFunc(f RetimeFunc) { r.f = f }

// Process implements Operator.
func (r *RetimeOp) Process(msg message.Message) (message.Message, bool) {
	msg.Time = r.f(msg.Time)
	return msg, true
}

// RewriteDestFunc computes a new destination from a message's current
// source and destination.
type RewriteDestFunc func(src, dst string) string

// RewriteDestOp rewrites a message's destination via f. The first time a
// given message's destination actually changes, OriginalDestination is
// stamped from the pre-rewrite value (via Message.StampOrigin), and never
// touched again by a later traversal.
type RewriteDestOp struct {
	f RewriteDestFunc
}

// NewRewriteDestOp returns a RewriteDestOp driven by f.
func NewRewriteDestOp(f RewriteDestFunc) *RewriteDestOp { return &RewriteDestOp{f: f} }

// SetFunc atomically swaps the rewrite function.
func (r *RewriteDestOp) SetFunc(f RewriteDestFunc) { r.f = f }

// Process implements Operator.
func (r *RewriteDestOp) Process(msg message.Message) (message.Message, bool) {
	newDst := r.f(msg.Source, msg.Destination)
	if newDst != msg.Destination {
		msg = msg.StampOrigin()
		msg.Destination = newDst
	}
	return msg, true
}

// MutatePayloadFunc transforms a message's payload in place.
type MutatePayloadFunc func(payload []byte) []byte

// MutatePayloadOp replaces a message's payload via f.
type MutatePayloadOp struct {
	f MutatePayloadFunc
}

// NewMutatePayloadOp returns a MutatePayloadOp driven by f.
func NewMutatePayloadOp(f MutatePayloadFunc) *MutatePayloadOp { return &MutatePayloadOp{f: f} }

// SetFunc atomically swaps the mutation function.
func (m *MutatePayloadOp) SetFunc(f MutatePayloadFunc) { m.f = f }

// Process implements Operator.
func (m *MutatePayloadOp) Process(msg message.Message) (message.Message, bool) {
	msg.Payload = m.f(msg.Payload)
	return msg, true
}

// PredicateFunc evaluates a condition over a message.
type PredicateFunc func(msg message.Message) bool

// ConditionalPassOp drops a message when its predicate evaluates false.
type ConditionalPassOp struct {
	pred PredicateFunc
}

// NewConditionalPassOp returns a ConditionalPassOp driven by pred.
func NewConditionalPassOp(pred PredicateFunc) *ConditionalPassOp {
	return &ConditionalPassOp{pred: pred}
}

// SetPredicate atomically swaps the predicate.
func (c *ConditionalPassOp) SetPredicate(pred PredicateFunc) { c.pred = pred }

// Process implements Operator.
func (c *ConditionalPassOp) Process(msg message.Message) (message.Message, bool) {
	if !c.pred(msg) {
		return message.Message{}, false
	}
	return msg, true
}

// CloneFunc computes the set of destinations a message should be copied
// to.
type CloneFunc func(msg message.Message) []string

// CloneOp produces one copy of the input message per destination returned
// by f, each with OriginalDestination set to the input's current
// destination.
type CloneOp struct {
	f CloneFunc
}

// NewCloneOp returns a CloneOp driven by f.
func NewCloneOp(f CloneFunc) *CloneOp { return &CloneOp{f: f} }

// SetFunc atomically swaps the destination-list function.
func (c *CloneOp) SetFunc(f CloneFunc) { c.f = f }

// ProcessClone implements Cloner.
func (c *CloneOp) ProcessClone(msg message.Message) []message.Message {
	dests := c.f(msg)
	out := make([]message.Message, 0, len(dests))
	for _, d := range dests {
		cp := msg.Clone()
		cp.OriginalDestination = msg.Destination
		cp.Destination = d
		out = append(out, cp)
	}
	return out
}

// FirewallAction is the disposition a FirewallOp applies once its
// predicate has been evaluated.
type FirewallAction int

const (
	FirewallDropOnTrue FirewallAction = iota
	FirewallDropOnFalse
	FirewallSetFlag
)

// FirewallOp evaluates a predicate and then drops the message or sets a
// flag bit depending on its configured action.
type FirewallOp struct {
	pred   PredicateFunc
	action FirewallAction
	flag   uint16
}

// NewFirewallOp returns a FirewallOp with the given predicate, action, and
// (for FirewallSetFlag) flag bit.
func NewFirewallOp(pred PredicateFunc, action FirewallAction, flag uint16) *FirewallOp {
	return &FirewallOp{pred: pred, action: action, flag: flag}
}

// SetPredicate atomically swaps the predicate.
func (f *FirewallOp) SetPredicate(pred PredicateFunc) { f.pred = pred }

// Process implements Operator.
func (f *FirewallOp) Process(msg message.Message) (message.Message, bool) {
	result := f.pred(msg)
	switch f.action {
	case FirewallDropOnTrue:
		if result {
			return message.Message{}, false
		}
	case FirewallDropOnFalse:
		if !result {
			return message.Message{}, false
		}
	case FirewallSetFlag:
		if result {
			msg = msg.WithFlag(f.flag)
		}
	}
	return msg, true
}

// AsyncOperator is the interface for operators whose Process may complete
// on a goroutine other than the caller's (e.g. a filter operator that
// defers to an external service). No type in this module implements it,
// and filtercoord.Coordinator does not dispatch through it: the
// coordinator calls Process synchronously. Process markers for
// asynchronous completions are recorded only through filterfed.Federate's
// BeginAsyncProcess and ProcessFilterReturn.
type AsyncOperator interface {
	ProcessAsync(msg message.Message, done func(out message.Message, ok bool))
}
