// Package filtercoord implements the filter coordinator: it orders the
// filters attached to one endpoint and presents them as a single
// transformation, matching spec §4.8's ordering and close-filter rules.
//
// Source filters run in attach order, preserved even across multiple
// filter-federates. A cloning filter's outputs are enqueued into the
// dispatch path independently, without removing the primary message from
// the chain. A destination filter, if any, runs last — after any cloning
// destination filters.
package filtercoord

import (
	"sync"

	"go.helics.dev/corehub/internal/filterop"
	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
)

// attachedFilter pairs a filter's operator/cloner with the global handle
// identifying it, so close_filter can find and disconnect it later.
type attachedFilter struct {
	handle      ident.GlobalHandle
	operator    filterop.Operator // nil if this entry is a cloning filter
	cloner      filterop.Cloner   // nil if this entry is not a cloning filter
	disconnected bool
}

// Result is the outcome of running an endpoint's filter chain: the
// (possibly transformed) primary message, whether it survived, and any
// independently-dispatched clone outputs.
type Result struct {
	Primary message.Message
	Keep    bool
	Clones  []message.Message
}

// Coordinator holds the ordered filter chains for one endpoint: its
// source-side filters (attach order), its single non-cloning destination
// filter, and its cloning destination filters.
type Coordinator struct {
	mu                 sync.Mutex
	allSourceFilters   []*attachedFilter
	destFilter         *attachedFilter
	cloningDestFilters []*attachedFilter
	onTimeClamp        func(from, to float64)
}

// New returns an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// SetTimeClampLogger installs a callback invoked whenever a filter's
// output time would run backward; the chain clamps it to the input time
// instead of letting it decrease, matching spec §4.9's monotonicity rule.
func (c *Coordinator) SetTimeClampLogger(fn func(from, to float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTimeClamp = fn
}

// AttachSourceOperator appends a non-cloning source filter in attach
// order.
func (c *Coordinator) AttachSourceOperator(handle ident.GlobalHandle, op filterop.Operator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allSourceFilters = append(c.allSourceFilters, &attachedFilter{handle: handle, operator: op})
}

// AttachSourceCloner appends a cloning source filter in attach order.
func (c *Coordinator) AttachSourceCloner(handle ident.GlobalHandle, cl filterop.Cloner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allSourceFilters = append(c.allSourceFilters, &attachedFilter{handle: handle, cloner: cl})
}

// SetDestOperator sets the endpoint's single non-cloning destination
// filter, run last among destination-side processing.
func (c *Coordinator) SetDestOperator(handle ident.GlobalHandle, op filterop.Operator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destFilter = &attachedFilter{handle: handle, operator: op}
}

// AttachDestCloner appends a cloning destination filter.
func (c *Coordinator) AttachDestCloner(handle ident.GlobalHandle, cl filterop.Cloner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cloningDestFilters = append(c.cloningDestFilters, &attachedFilter{handle: handle, cloner: cl})
}

// ProcessSource runs the endpoint's source-side filter chain over msg.
func (c *Coordinator) ProcessSource(msg message.Message) Result {
	c.mu.Lock()
	chain := make([]*attachedFilter, len(c.allSourceFilters))
	copy(chain, c.allSourceFilters)
	c.mu.Unlock()

	return c.runChain(chain, msg)
}

// ProcessDestination runs the endpoint's destination-side processing:
// cloning destination filters are dispatched immediately (independent of
// the primary), then the single non-cloning destination filter (if any)
// runs and its output — or drop — determines whether the original command
// should proceed to the endpoint's receive queue.
func (c *Coordinator) ProcessDestination(msg message.Message) Result {
	c.mu.Lock()
	cloningFilters := make([]*attachedFilter, len(c.cloningDestFilters))
	copy(cloningFilters, c.cloningDestFilters)
	destFilter := c.destFilter
	c.mu.Unlock()

	var clones []message.Message
	for _, f := range cloningFilters {
		if f.disconnected {
			continue
		}
		clones = append(clones, f.cloner.ProcessClone(msg)...)
	}

	if destFilter == nil || destFilter.disconnected {
		return Result{Primary: msg, Keep: true, Clones: clones}
	}
	out, ok := destFilter.operator.Process(msg)
	if ok && out.Time < msg.Time {
		if c.onTimeClamp != nil {
			c.onTimeClamp(msg.Time, out.Time)
		}
		out.Time = msg.Time
	}
	return Result{Primary: out, Keep: ok, Clones: clones}
}

func (c *Coordinator) runChain(chain []*attachedFilter, msg message.Message) Result {
	var clones []message.Message
	current := msg
	for _, f := range chain {
		if f.disconnected {
			continue
		}
		if f.cloner != nil {
			clones = append(clones, f.cloner.ProcessClone(current)...)
			continue
		}
		out, ok := f.operator.Process(current)
		if !ok {
			return Result{Keep: false, Clones: clones}
		}
		if out.Time < current.Time {
			if c.onTimeClamp != nil {
				c.onTimeClamp(current.Time, out.Time)
			}
			out.Time = current.Time
		}
		current = out
	}
	return Result{Primary: current, Keep: true, Clones: clones}
}

// CloseFilter walks all_source_filters, dest_filter, and
// cloning_dest_filters; any entry matching handle is flagged disconnected
// (becoming identity — skipped in the chain) and thereafter remains so.
// Calling it again for an already-disconnected handle is a no-op.
func (c *Coordinator) CloseFilter(handle ident.GlobalHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.allSourceFilters {
		if f.handle == handle {
			f.disconnected = true
		}
	}
	if c.destFilter != nil && c.destFilter.handle == handle {
		c.destFilter.disconnected = true
	}
	for _, f := range c.cloningDestFilters {
		if f.handle == handle {
			f.disconnected = true
		}
	}
}
