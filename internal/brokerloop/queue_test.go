package brokerloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/action"
)

func TestPriorityDrainsBeforeNormal(t *testing.T) {
	q := NewActionQueue()
	q.Push(action.Message{Action: action.CmdMessage, Name: "n1"})
	q.Push(action.Message{Action: action.CmdTick})
	q.Push(action.Message{Action: action.CmdMessage, Name: "n2"})
	q.Push(action.Message{Action: action.CmdNewRoute})

	m, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, action.CmdNewRoute, m.Action, "priority band drains first")

	m, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "n1", m.Name, "normal band preserves push order")

	m, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, action.CmdTick, m.Action, "CMD_TICK travels in the normal band")

	m, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "n2", m.Name)
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := NewActionQueue()
	result := make(chan action.Message, 1)
	go func() {
		m, ok := q.Pop()
		if ok {
			result <- m
		}
	}()

	select {
	case <-result:
		t.Fatal("Pop returned before any Push")
	case <-time.After(30 * time.Millisecond):
	}

	q.Push(action.Message{Action: action.CmdStop})
	require.Eventually(t, func() bool {
		select {
		case m := <-result:
			return m.Action == action.CmdStop
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestCloseUnblocksPop(t *testing.T) {
	q := NewActionQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	require.Eventually(t, func() bool {
		select {
		case ok := <-done:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestTryPopNonBlocking(t *testing.T) {
	q := NewActionQueue()
	_, ok := q.TryPop()
	require.False(t, ok)

	q.Push(action.Message{Action: action.CmdIgnore})
	m, ok := q.TryPop()
	require.True(t, ok)
	require.Equal(t, action.CmdIgnore, m.Action)
}

func TestPushAfterCloseIsDropped(t *testing.T) {
	q := NewActionQueue()
	q.Close()
	q.Push(action.Message{Action: action.CmdMessage})
	require.Equal(t, 0, q.Len())
}
