package tcppeer

import (
	"fmt"
	"sync"

	"go.helics.dev/corehub/internal/action"
	"go.helics.dev/corehub/internal/ident"
)

// Router fans ActionMessages out to whichever Peer owns the frame's
// DestID, falling back to a single upstream link (a core's broker, or a
// broker's parent broker) when the destination isn't a directly attached
// peer. It is itself a corert.Router, so Core.SetRouter(table) lets one
// core or broker speak to many peers over one Core.
type Router struct {
	mu       sync.RWMutex
	peers    map[ident.FederateID]*Peer
	upstream *Peer
}

// NewRouter builds an empty routing table.
func NewRouter() *Router {
	return &Router{peers: make(map[ident.FederateID]*Peer)}
}

// SetUpstream installs the default peer frames route to when DestID isn't
// a locally attached federate (typically the broker this core reports to).
func (t *Router) SetUpstream(p *Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.upstream = p
}

// Attach registers p as the owner of id, so frames addressed to id route
// directly to it instead of upstream.
func (t *Router) Attach(id ident.FederateID, p *Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[id] = p
}

// Detach removes id's routing entry, e.g. once its CMD_DISCONNECT lands.
func (t *Router) Detach(id ident.FederateID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
}

// Route implements corert.Router.
func (t *Router) Route(m action.Message) error {
	t.mu.RLock()
	p, ok := t.peers[m.DestID]
	up := t.upstream
	t.mu.RUnlock()

	if ok {
		return p.Route(m)
	}
	if up != nil {
		return up.Route(m)
	}
	return fmt.Errorf("tcppeer router: no route to %s", m.DestID)
}
