// Package handles implements the handle manager: it assigns interface
// handles on registration and maintains the bidirectional name<->handle
// maps, global/scoped naming, and pending-target resolution used when a
// filter attaches to a target before that target has registered.
package handles

import (
	"fmt"
	"sync"

	"go.helics.dev/corehub/internal/ident"
)

// Info is the handle manager's record for one registered interface,
// mirroring the original's BasicHandleInfo: name, type, owning federate,
// and flags.
type Info struct {
	Name    string
	Type    string
	Owner   ident.FederateID
	Handle  ident.InterfaceHandle
	Flags   uint16
}

// Manager assigns handles and resolves names, including scoped (federate-
// name-prefixed) names and deferred target resolution.
type Manager struct {
	mu        sync.RWMutex
	separator string
	nextLocal ident.Base

	byName   map[string]*Info
	byHandle map[ident.InterfaceHandle]*Info

	// pending maps an unresolved textual target to the callbacks waiting
	// on it; each is retried whenever a new interface registers.
	pending map[string][]func(ident.GlobalHandle)
}

// NewManager returns an empty Manager. separator joins a federate name to
// a locally-scoped interface name (e.g. "fed1/port1" with separator "/").
func NewManager(separator string) *Manager {
	if separator == "" {
		separator = "/"
	}
	return &Manager{
		separator: separator,
		byName:    make(map[string]*Info),
		byHandle:  make(map[ident.InterfaceHandle]*Info),
		pending:   make(map[string][]func(ident.GlobalHandle)),
	}
}

// ScopedName joins a federate name and a local interface name using the
// manager's separator.
func (m *Manager) ScopedName(fedName, localName string) string {
	return fedName + m.separator + localName
}

// Register assigns a new handle for name, owned by owner, and returns its
// Info. If name is already registered, the existing Info's handle is
// returned unchanged (idempotent re-registration).
func (m *Manager) Register(name, typ string, owner ident.FederateID, flags uint16) *Info {
	m.mu.Lock()
	if existing, ok := m.byName[name]; ok {
		m.mu.Unlock()
		return existing
	}
	m.nextLocal++
	handle := ident.NewInterfaceHandle(m.nextLocal)
	info := &Info{Name: name, Type: typ, Owner: owner, Handle: handle, Flags: flags}
	m.byName[name] = info
	m.byHandle[handle] = info
	m.mu.Unlock()

	m.resolvePending(name, ident.NewGlobalHandle(owner, handle))
	return info
}

// Lookup returns the Info registered under name, if any.
func (m *Manager) Lookup(name string) (*Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.byName[name]
	return info, ok
}

// LookupHandle returns the Info registered under handle, if any.
func (m *Manager) LookupHandle(handle ident.InterfaceHandle) (*Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.byHandle[handle]
	return info, ok
}

// ResolveTarget resolves name to a GlobalHandle immediately if it is
// already registered; otherwise cb is queued and invoked the next time an
// interface registers under that name (from Register's call to
// resolvePending).
func (m *Manager) ResolveTarget(name string, cb func(ident.GlobalHandle)) {
	m.mu.Lock()
	if info, ok := m.byName[name]; ok {
		m.mu.Unlock()
		cb(ident.NewGlobalHandle(info.Owner, info.Handle))
		return
	}
	m.pending[name] = append(m.pending[name], cb)
	m.mu.Unlock()
}

func (m *Manager) resolvePending(name string, gh ident.GlobalHandle) {
	m.mu.Lock()
	cbs := m.pending[name]
	delete(m.pending, name)
	m.mu.Unlock()

	for _, cb := range cbs {
		cb(gh)
	}
}

// PendingCount reports how many distinct target names are still
// unresolved, for diagnostics.
func (m *Manager) PendingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}

// All returns every registered Info, for read-only introspection (e.g. a
// query/status surface). The returned slice is a snapshot; mutating it does
// not affect the manager.
func (m *Manager) All() []*Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Info, 0, len(m.byName))
	for _, info := range m.byName {
		out = append(out, info)
	}
	return out
}

func (i *Info) String() string {
	return fmt.Sprintf("Info{name=%s type=%s owner=%s handle=%s}", i.Name, i.Type, i.Owner, i.Handle)
}
