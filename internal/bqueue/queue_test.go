package bqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	for i := 0; i < 5; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	require.False(t, ok)
}

func TestQueueBlockingPop(t *testing.T) {
	q := New[string]()
	done := make(chan string)
	go func() {
		v, ok := q.Pop()
		require.True(t, ok)
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-done:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock")
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := New[int]()
	done := make(chan bool)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock on close")
	}
}

func TestQueuePopTimeoutExpires(t *testing.T) {
	q := New[int]()
	start := time.Now()
	_, ok := q.PopTimeout(20 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueuePopTimeoutGetsValue(t *testing.T) {
	q := New[int]()
	q.Push(7)
	v, ok := q.PopTimeout(time.Second)
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestQueuePopCallbackInvokedWhileEmpty(t *testing.T) {
	q := New[int]()
	var calls int
	var mu sync.Mutex

	done := make(chan int)
	go func() {
		v, ok := q.PopCallback(func() {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				q.Push(42)
			}
		})
		require.True(t, ok)
		done <- v
	}()

	select {
	case v := <-done:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("PopCallback never returned a value")
	}
	mu.Lock()
	require.GreaterOrEqual(t, calls, 1)
	mu.Unlock()
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	q := New[int]()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Push(i)
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, q.Len())

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		seen[v] = true
	}
	require.Len(t, seen, n)
	require.True(t, q.Empty())
}
