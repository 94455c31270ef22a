// Package corert assembles the core: it wires the handle manager (C8),
// filter coordinator (C9), filter federate (C10), broker-base event loop
// (C11), the message timer (C7), and the ActionMessage wire protocol into
// one running unit that a transport (internal/netbroker-addressed TCP
// links, or a local in-process test harness) can drive.
package corert

import (
	"sync"
	"time"

	"go.helics.dev/corehub/internal/action"
	"go.helics.dev/corehub/internal/brokerloop"
	"go.helics.dev/corehub/internal/filterfed"
	"go.helics.dev/corehub/internal/handles"
	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
	"go.helics.dev/corehub/internal/msgtimer"
	"go.helics.dev/corehub/internal/query"
)

// Router resolves an action.Message's destination federate to whatever
// sends frames to it: another Core in-process, or a network link. It is
// the seam between corert and the transport layer (internal/tcppeer).
type Router interface {
	Route(m action.Message) error
}

// asyncReturn is the delayed payload scheduled into the message timer for
// an outstanding async filter-operator completion.
type asyncReturn struct {
	processID ident.Base
	dest      bool
	msg       message.Message
}

var _ query.Source = (*Core)(nil)

// Core is one running core: the filter federate executor plus the
// handle manager and broker-base event loop that drive it.
type Core struct {
	mu sync.Mutex

	id      ident.FederateID
	handles *handles.Manager
	fed     *filterfed.Federate
	timer   *msgtimer.Timer[asyncReturn]
	loop    *brokerloop.Loop
	router  Router

	onLog func(format string, args ...any)
}

// Config holds construction parameters for New.
type Config struct {
	ID           ident.FederateID
	Separator    string
	TickInterval time.Duration
	Router       Router
	TimeCoord    filterfed.TimeCoordinator
}

// New assembles a Core in the Created state, not yet running — call Run
// (typically in its own goroutine) to start its event loop.
func New(cfg Config) *Core {
	c := &Core{
		id:      cfg.ID,
		handles: handles.NewManager(cfg.Separator),
		router:  cfg.Router,
	}
	c.fed = filterfed.NewFederate(cfg.ID, c.deliver, cfg.TimeCoord)
	c.timer = msgtimer.New(c.fireAsyncReturn)
	c.loop = brokerloop.NewLoop(c, cfg.TickInterval)
	return c
}

// SetLogger installs a callback for WARNING/ERROR-shaped diagnostics not
// already routed through the filter federate's own clamp/warn loggers.
func (c *Core) SetLogger(fn func(format string, args ...any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLog = fn
}

// SetRouter installs (or replaces) the transport-layer Router, for a
// listener that only learns its peer after the first inbound connection.
func (c *Core) SetRouter(r Router) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router = r
}

// Federate exposes the underlying filter federate, for attaching filter
// operators during setup.
func (c *Core) Federate() *filterfed.Federate { return c.fed }

// Handles exposes the handle manager, for endpoint/filter registration.
func (c *Core) Handles() *handles.Manager { return c.handles }

// Push enqueues an inbound ActionMessage for the event loop to process.
// Transport readers call this for every frame they decode.
func (c *Core) Push(m action.Message) { c.loop.Queue().Push(m) }

// Run drives the event loop until CMD_STOP/CMD_TERMINATE_IMMEDIATELY or
// JoinAllThreads. It returns when the loop has fully wound down.
func (c *Core) Run() { c.loop.Run() }

// JoinAllThreads requests cooperative shutdown of the event loop.
func (c *Core) JoinAllThreads() { c.loop.JoinAllThreads() }

// RegisterEndpoint allocates a handle for a named endpoint owned by this
// core. name should already be the caller's intended globally-unique form
// (see handles.Manager.ScopedName for non-global endpoints).
func (c *Core) RegisterEndpoint(name, typ string, flags uint16) *handles.Info {
	return c.handles.Register(name, typ, c.id, flags)
}

// deliver is the filter federate's DeliverFunc: route a fully processed
// message onward via Router, addressed by its current Destination.
func (c *Core) deliver(msg message.Message) {
	info, ok := c.handles.Lookup(msg.Destination)
	destID := c.id
	if ok {
		destID = info.Owner
	}
	frame, err := action.WithDelivery(action.Message{DestID: destID}, msg)
	if err != nil {
		c.warn("deliver: encode failed for %s: %v", msg.Destination, err)
		return
	}
	c.mu.Lock()
	r := c.router
	c.mu.Unlock()
	if r == nil {
		return
	}
	if err := r.Route(frame); err != nil {
		c.warn("deliver: route to %s failed: %v", msg.Destination, err)
	}
}

// HandleIncoming processes one decoded ActionMessage against the filter
// federate, matching spec §4.9's process_message / filter-return /
// destination_process_message dispatch.
func (c *Core) HandleIncoming(m action.Message) {
	switch m.Action {
	case action.CmdMessage:
		msg, err := action.DecodeDelivery(m.Payload)
		if err != nil {
			c.warn("incoming CMD_MESSAGE: decode failed: %v", err)
			return
		}
		msg = msg.StampOrigin()
		out, ok := c.fed.ProcessMessage(msg)
		if !ok {
			return
		}
		// Every message arriving at a destination endpoint traverses exactly
		// one non-cloning destination filter (identity if none configured).
		// That only happens here, inline, when this core owns the
		// destination; otherwise the owning core runs it once the message
		// has been routed to it.
		if info, known := c.handles.Lookup(out.Destination); known && info.Owner == c.id {
			out, ok = c.fed.DestinationProcessMessage(out)
			if !ok {
				return
			}
		}
		c.deliver(out)

	case action.CmdFilterResult:
		msg, err := action.DecodeDelivery(m.Payload)
		if err != nil {
			c.warn("incoming CMD_FILTER_RESULT: decode failed: %v", err)
			return
		}
		c.fed.ProcessFilterReturn(msg)

	case action.CmdDestFilterResult:
		msg, err := action.DecodeDelivery(m.Payload)
		if err != nil {
			c.warn("incoming CMD_DEST_FILTER_RESULT: decode failed: %v", err)
			return
		}
		out, proceed := c.fed.DestinationProcessMessage(msg)
		if proceed {
			c.deliver(out)
		}

	default:
		c.warn("incoming: unhandled action %s", m.Action)
	}
}

// ScheduleAsyncReturn arranges for ProcessFilterReturn to be driven after
// delay elapses, for an async filter operator's out-of-band completion.
// delay is wall-clock, scaled by the caller from simulated time.
func (c *Core) ScheduleAsyncReturn(pid ident.Base, dest bool, msg message.Message, delay time.Duration) msgtimer.ID {
	return c.timer.AddTimerFromNow(delay, asyncReturn{processID: pid, dest: dest, msg: msg})
}

func (c *Core) fireAsyncReturn(_ msgtimer.ID, payload asyncReturn) {
	c.fed.ProcessFilterReturn(payload.msg)
}

func (c *Core) warn(format string, args ...any) {
	c.mu.Lock()
	fn := c.onLog
	c.mu.Unlock()
	if fn != nil {
		fn(format, args...)
	}
}

// --- brokerloop.Handler ---

func (c *Core) ProcessPriorityCommand(m action.Message) {
	switch m.Action {
	case action.CmdNewRoute, action.CmdRemoveRoute, action.CmdConnectionInformation,
		action.CmdBrokerAck, action.CmdInit, action.CmdRequestPorts,
		action.CmdPortDefinitions, action.CmdCloseReceiver, action.CmdProtocol,
		action.CmdDisconnect:
		// Topology/connection bookkeeping beyond handle registration and
		// routing is owned by the transport layer (C12), out of this
		// package's scope; the event loop only guarantees these commands
		// are dispatched ahead of data-plane traffic.
	default:
		c.warn("unexpected priority command %s", m.Action)
	}
}

func (c *Core) ProcessCommand(m action.Message) {
	switch m.Action {
	case action.CmdMessage, action.CmdFilterResult, action.CmdDestFilterResult:
		c.HandleIncoming(m)
	case action.CmdQuery, action.CmdQueryReply:
		// Read-only introspection is served by internal/query; nothing to
		// do on the data-plane dispatch path itself.
	case action.CmdTick, action.CmdStop:
		// handled by brokerloop.Loop itself before ProcessCommand runs for
		// CMD_TICK, or alongside ProcessDisconnect for CMD_STOP.
	default:
		c.warn("unexpected command %s", m.Action)
	}
}

func (c *Core) ProcessDisconnect() {
	c.fed.Transition(filterfed.Finalized)
	c.timer.Close()
}

func (c *Core) RestartIOService() {
	c.warn("restarting I/O service after CMD_TICK error flag")
}

// Endpoints returns every endpoint registered with this core's handle
// manager, for the query/status surface.
func (c *Core) Endpoints() []*handles.Info {
	return c.handles.All()
}

// FilterEndpoints returns the endpoint names that currently have a filter
// coordinator attached, for the query/status surface.
func (c *Core) FilterEndpoints() []string {
	return c.fed.FilterNames()
}

// Status returns a read-only snapshot of the core's current state, for the
// query/status surface.
func (c *Core) Status() query.Status {
	return query.Status{
		FederateID:     c.id.BaseValue(),
		State:          c.fed.State().String(),
		PendingAsync:   c.fed.PendingProcessCount(),
		ActionQueueLen: c.loop.Queue().Len(),
	}
}
