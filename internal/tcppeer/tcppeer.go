// Package tcppeer adapts a net.Conn into the transport a corert.Core
// needs on each end of an inter-core link: framed ActionMessage delivery
// plus a keepalive, generalized from the teacher's hub.Peer (which adapted
// a net.Conn for newline-delimited clipboard JSON over internal/wire) to
// the length-prefixed internal/action wire format a core or broker speaks
// per spec §6/§12.
package tcppeer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"go.helics.dev/corehub/internal/action"
)

const (
	pingInterval = 15 * time.Second
	pongDeadline = 10 * time.Second
	sendBuffer   = 256
)

// Peer wraps a single TCP (or TLS) connection carrying ActionMessage
// frames to or from one remote core/broker. It satisfies corert.Router so
// a *Peer can be handed to Core.SetRouter directly.
type Peer struct {
	id     string
	conn   *action.Conn
	sendCh chan action.Message
	log    *slog.Logger

	lastSeen atomic.Int64 // UnixNano
	closed   atomic.Bool
}

// Dial opens an outbound connection to addr (the link a core opens to its
// broker, or a broker opens to its own parent broker).
func Dial(addr string, key *[32]byte) (*Peer, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcppeer dial %s: %w", addr, err)
	}
	return Accept(conn, key), nil
}

// Accept wraps an already-established connection (inbound, from a
// listener's Accept loop, or outbound from Dial) as a Peer.
func Accept(conn net.Conn, key *[32]byte) *Peer {
	p := &Peer{
		id:     conn.RemoteAddr().String(),
		conn:   action.New(conn, key),
		sendCh: make(chan action.Message, sendBuffer),
		log:    slog.With("peer", conn.RemoteAddr().String()),
	}
	p.lastSeen.Store(time.Now().UnixNano())
	return p
}

// ID returns the peer's remote address, used as its routing-table key
// until CMD_CONNECTION_INFORMATION resolves it to a federate/broker id.
func (p *Peer) ID() string { return p.id }

// Route enqueues m for delivery to this peer, dropping it and returning an
// error if the send buffer is full rather than blocking the caller (the
// core's event loop thread).
func (p *Peer) Route(m action.Message) error {
	select {
	case p.sendCh <- m:
		return nil
	default:
		return fmt.Errorf("tcppeer %s: send buffer full", p.id)
	}
}

// Close closes the underlying connection. Safe to call more than once.
func (p *Peer) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		return p.conn.Close()
	}
	return nil
}

// Serve runs the peer's writer, keepalive, and reader loops until the
// connection fails or Close is called. Every decoded frame is handed to
// onMessage (typically Core.Push); CMD_IGNORE frames are swallowed as
// keepalive traffic and never reach onMessage. Serve blocks until the
// connection ends and always returns a non-nil error (io.EOF-wrapping on a
// clean remote close).
func (p *Peer) Serve(onMessage func(action.Message)) error {
	defer p.Close()

	done := make(chan struct{})
	defer close(done)

	go p.writeLoop()
	go p.pingLoop(done)

	for {
		m, err := p.conn.ReadMessage()
		if err != nil {
			if p.closed.Load() || errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("tcppeer %s: closed", p.id)
			}
			return fmt.Errorf("tcppeer %s: read: %w", p.id, err)
		}
		p.lastSeen.Store(time.Now().UnixNano())

		if m.Action == action.CmdIgnore {
			continue
		}
		onMessage(m)
	}
}

func (p *Peer) writeLoop() {
	for m := range p.sendCh {
		if err := p.conn.WriteMessage(m); err != nil {
			p.log.Warn("write failed", "err", err)
			p.Close()
			return
		}
	}
}

func (p *Peer) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			last := time.Unix(0, p.lastSeen.Load())
			if time.Since(last) > pingInterval+pongDeadline {
				p.log.Warn("peer unresponsive, closing")
				p.Close()
				return
			}
			_ = p.Route(action.Message{Action: action.CmdIgnore})
		}
	}
}
