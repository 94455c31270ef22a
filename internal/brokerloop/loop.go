package brokerloop

import (
	"sync"
	"sync/atomic"
	"time"

	"go.helics.dev/corehub/internal/action"
)

// Handler is the event loop's collaborator: the broker/core-specific
// reaction to each class of command. Implementations must not block for
// long — the loop's only suspension point is ActionQueue.Pop.
type Handler interface {
	// ProcessPriorityCommand handles a priority-band command other than
	// CMD_TICK/CMD_IGNORE/CMD_TERMINATE_IMMEDIATELY/CMD_STOP.
	ProcessPriorityCommand(m action.Message)
	// ProcessCommand handles a normal-band command, and also a CMD_TICK
	// when messagesSinceLastTick is zero.
	ProcessCommand(m action.Message)
	// ProcessDisconnect runs once, after CMD_STOP has been processed.
	ProcessDisconnect()
	// RestartIOService restarts the transport's async I/O service loop,
	// invoked when a CMD_TICK arrives with the error flag set.
	RestartIOService()
}

// Loop is the single event loop a broker or core runs: one goroutine
// draining an ActionQueue, plus a repeating tick timer that keeps it
// scheduled even when idle.
type Loop struct {
	queue        *ActionQueue
	handler      Handler
	tickInterval time.Duration

	messagesSinceLastTick atomic.Int32

	tickerMu sync.Mutex
	ticker   *time.Ticker
	tickDone chan struct{}

	stopped atomic.Bool
}

// NewLoop returns a Loop driving handler off an internal ActionQueue, with
// a repeating CMD_TICK every tickInterval.
func NewLoop(handler Handler, tickInterval time.Duration) *Loop {
	return &Loop{
		queue:        NewActionQueue(),
		handler:      handler,
		tickInterval: tickInterval,
	}
}

// Queue returns the loop's ActionQueue, for callers (transport readers,
// timer callbacks) to push commands onto.
func (l *Loop) Queue() *ActionQueue { return l.queue }

// startTick launches the repeating tick timer goroutine, pushing CMD_TICK
// into the normal band every tickInterval.
func (l *Loop) startTick() {
	if l.tickInterval <= 0 {
		return
	}
	l.tickerMu.Lock()
	if l.ticker != nil {
		l.tickerMu.Unlock()
		return
	}
	l.ticker = time.NewTicker(l.tickInterval)
	l.tickDone = make(chan struct{})
	ticker := l.ticker
	done := l.tickDone
	l.tickerMu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				l.queue.Push(action.Message{Action: action.CmdTick})
			case <-done:
				return
			}
		}
	}()
}

// haltTick stops the tick timer goroutine, idempotently.
func (l *Loop) haltTick() {
	l.tickerMu.Lock()
	defer l.tickerMu.Unlock()
	if l.ticker == nil {
		return
	}
	l.ticker.Stop()
	close(l.tickDone)
	l.ticker = nil
}

// Run starts the tick timer and drains the queue until a CMD_STOP or
// CMD_TERMINATE_IMMEDIATELY is processed, or the queue is closed. It
// returns when the loop has fully wound down.
//
// Dispatch follows spec §4.10's table: CMD_TICK with no error flag invokes
// ProcessCommand only if no other traffic arrived since the last tick, then
// always reschedules; CMD_TICK with the error flag restarts the I/O service
// before rescheduling; CMD_IGNORE is a no-op; CMD_TERMINATE_IMMEDIATELY
// halts the tick and returns immediately, skipping disconnect processing;
// CMD_STOP halts the tick, processes the command, then runs
// ProcessDisconnect; anything else is routed by priority/normal band and
// increments messagesSinceLastTick.
func (l *Loop) Run() {
	l.startTick()
	for {
		m, ok := l.queue.Pop()
		if !ok {
			l.haltTick()
			return
		}

		switch m.Action {
		case action.CmdTick:
			if m.HasFlag(action.FlagError) {
				l.handler.RestartIOService()
			} else if l.messagesSinceLastTick.Load() == 0 {
				l.handler.ProcessCommand(m)
			}
			l.messagesSinceLastTick.Store(0)

		case action.CmdIgnore:
			// no-op

		case action.CmdTerminateImmediately:
			l.haltTick()
			l.stopped.Store(true)
			return

		case action.CmdStop:
			l.haltTick()
			l.handler.ProcessCommand(m)
			l.handler.ProcessDisconnect()
			l.stopped.Store(true)
			return

		default:
			if m.Action.IsPriority() {
				l.handler.ProcessPriorityCommand(m)
			} else {
				l.handler.ProcessCommand(m)
			}
			l.messagesSinceLastTick.Add(1)
		}
	}
}

// Stopped reports whether Run has returned via CMD_STOP or
// CMD_TERMINATE_IMMEDIATELY.
func (l *Loop) Stopped() bool { return l.stopped.Load() }

// JoinAllThreads requests cooperative shutdown: it pushes
// CMD_TERMINATE_IMMEDIATELY so a concurrently running Run returns promptly.
// The caller is still responsible for waiting on Run's goroutine to exit.
func (l *Loop) JoinAllThreads() {
	l.queue.Push(action.Message{Action: action.CmdTerminateImmediately})
}
