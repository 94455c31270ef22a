package brokerloop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/action"
)

type recordingHandler struct {
	mu                 sync.Mutex
	priorityCmds       []action.Code
	commands           []action.Code
	disconnectCalled   bool
	restartCalled      int
}

func (h *recordingHandler) ProcessPriorityCommand(m action.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.priorityCmds = append(h.priorityCmds, m.Action)
}

func (h *recordingHandler) ProcessCommand(m action.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, m.Action)
}

func (h *recordingHandler) ProcessDisconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnectCalled = true
}

func (h *recordingHandler) RestartIOService() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.restartCalled++
}

func (h *recordingHandler) snapshot() (priority, normal []action.Code, disconnected bool, restarts int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]action.Code(nil), h.priorityCmds...), append([]action.Code(nil), h.commands...), h.disconnectCalled, h.restartCalled
}

func TestLoopProcessesCommandsUntilStop(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoop(h, 0)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	l.Queue().Push(action.Message{Action: action.CmdNewRoute})
	l.Queue().Push(action.Message{Action: action.CmdMessage})
	// CMD_STOP is priority-band and would overtake a still-queued
	// CMD_MESSAGE, so wait for the data-plane command to be dispatched first.
	require.Eventually(t, func() bool {
		_, normal, _, _ := h.snapshot()
		return len(normal) == 1
	}, time.Second, time.Millisecond)
	l.Queue().Push(action.Message{Action: action.CmdStop})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	priority, normal, disconnected, _ := h.snapshot()
	require.Contains(t, priority, action.CmdNewRoute)
	require.Contains(t, normal, action.CmdMessage)
	require.Contains(t, normal, action.CmdStop, "CMD_STOP itself is processed via ProcessCommand")
	require.True(t, disconnected)
	require.True(t, l.Stopped())
}

func TestLoopTerminateImmediatelySkipsDisconnect(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoop(h, 0)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	l.Queue().Push(action.Message{Action: action.CmdTerminateImmediately})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	_, _, disconnected, _ := h.snapshot()
	require.False(t, disconnected, "CMD_TERMINATE_IMMEDIATELY must skip disconnect processing")
}

func TestLoopTickWithErrorFlagRestartsIOService(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoop(h, 0)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	l.Queue().Push(action.Message{Action: action.CmdTick, Flags: action.FlagError})
	// CMD_TICK is normal-band, so a priority-band terminate pushed right
	// behind it would overtake it; wait for the tick to be dispatched first.
	require.Eventually(t, func() bool {
		_, _, _, restarts := h.snapshot()
		return restarts > 0
	}, time.Second, time.Millisecond)
	l.Queue().Push(action.Message{Action: action.CmdTerminateImmediately})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	_, _, _, restarts := h.snapshot()
	require.Equal(t, 1, restarts)
}

func TestLoopIgnoreIsNoOp(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoop(h, 0)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	l.Queue().Push(action.Message{Action: action.CmdIgnore})
	l.Queue().Push(action.Message{Action: action.CmdTerminateImmediately})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	priority, normal, _, _ := h.snapshot()
	require.Empty(t, priority)
	require.Empty(t, normal)
}

func TestLoopTickFiresAfterInterval(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoop(h, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, normal, _, _ := h.snapshot()
		for _, c := range normal {
			if c == action.CmdTick {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	l.JoinAllThreads()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after JoinAllThreads")
	}
}

func TestJoinAllThreadsPushesTerminate(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoop(h, 0)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	l.JoinAllThreads()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
