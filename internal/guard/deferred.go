package guard

import (
	"sync"
	"sync/atomic"
)

// DeferredCell is a guarded value that additionally accepts mutations while
// it is busy: ModifyDetach and ModifyAsync run inline when the exclusive
// lock is free, or else queue the mutation for the next holder of the lock
// to apply. A shared reader that observes the pending flag set drains the
// queue itself before reading, so no reader ever sees state that skipped a
// still-pending deferred mutation.
type DeferredCell[T any] struct {
	mu  sync.Mutex
	val T

	pending   atomic.Bool
	pendingMu sync.Mutex
	queue     []func(*T)
}

// NewDeferred returns a DeferredCell initialized with v.
func NewDeferred[T any](v T) *DeferredCell[T] {
	return &DeferredCell[T]{val: v}
}

// drainLocked applies every queued mutation in FIFO order. Caller must hold
// c.mu.
func (c *DeferredCell[T]) drainLocked() {
	if !c.pending.Load() {
		return
	}
	c.pendingMu.Lock()
	local := c.queue
	c.queue = nil
	c.pending.Store(false)
	c.pendingMu.Unlock()

	for _, fn := range local {
		fn(&c.val)
	}
}

// Exclusive runs fn with exclusive access, first draining any pending
// deferred mutations.
func (c *DeferredCell[T]) Exclusive(fn func(v *T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainLocked()
	fn(&c.val)
}

// Load returns a copy of the guarded value, draining any pending deferred
// mutation first.
func (c *DeferredCell[T]) Load() T {
	var v T
	c.Shared(func(val T) { v = val })
	return v
}

// Shared runs fn with read access. If a deferred mutation is pending it is
// drained first (taking the exclusive lock to do so) so fn never observes
// stale state.
func (c *DeferredCell[T]) Shared(fn func(v T)) {
	if c.pending.Load() {
		c.mu.Lock()
		c.drainLocked()
		v := c.val
		c.mu.Unlock()
		fn(v)
		return
	}
	c.mu.Lock()
	v := c.val
	c.mu.Unlock()
	fn(v)
}

// ModifyDetach runs fn immediately if the exclusive lock is free; otherwise
// fn is queued and applied by whichever goroutine next acquires the lock
// (via Exclusive, ModifyDetach, ModifyAsync, or a pending-draining Shared).
func (c *DeferredCell[T]) ModifyDetach(fn func(v *T)) {
	if c.mu.TryLock() {
		c.drainLocked()
		fn(&c.val)
		c.mu.Unlock()
		return
	}
	c.pendingMu.Lock()
	c.queue = append(c.queue, fn)
	c.pending.Store(true)
	c.pendingMu.Unlock()
}

// Future is the result of a deferred ModifyAsync mutation: Get blocks until
// the mutation has run and returns its result, or the panic it raised
// converted to an error.
type Future[R any] struct {
	ch chan futureResult[R]
}

type futureResult[R any] struct {
	val R
	err error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{ch: make(chan futureResult[R], 1)}
}

func (f *Future[R]) resolve(val R, err error) {
	f.ch <- futureResult[R]{val: val, err: err}
}

// Get blocks until the deferred function has run.
func (f *Future[R]) Get() (R, error) {
	r := <-f.ch
	return r.val, r.err
}

func runCaptured[R any](fn func() R) (res R, err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
			} else {
				err = panicError{p}
			}
		}
	}()
	res = fn()
	return res, nil
}

type panicError struct{ v any }

func (p panicError) Error() string { return "deferred mutation panicked" }

// ModifyAsync is a free function (Go methods cannot introduce their own
// type parameters) that runs fn against c's guarded value, inline if the
// lock is immediately available, or deferred to the next lock holder
// otherwise. It always returns a Future that resolves once fn has actually
// run.
func ModifyAsync[T any, R any](c *DeferredCell[T], fn func(v *T) R) *Future[R] {
	future := newFuture[R]()

	if c.mu.TryLock() {
		c.drainLocked()
		val, err := runCaptured(func() R { return fn(&c.val) })
		c.mu.Unlock()
		future.resolve(val, err)
		return future
	}

	c.pendingMu.Lock()
	c.queue = append(c.queue, func(v *T) {
		val, err := runCaptured(func() R { return fn(v) })
		future.resolve(val, err)
	})
	c.pending.Store(true)
	c.pendingMu.Unlock()
	return future
}
