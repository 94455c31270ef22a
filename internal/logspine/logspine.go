// Package logspine implements the logging spine (spec component C3): a
// single background goroutine drains a queue of (sink index, text)
// records and dispatches each to its registered Sink, recognizing two
// control sentinels instead of delivering them.
//
// Log records follow spec §6's format: "name(fed_id)::message". Producers
// only push onto the queue and never wait on sink delivery; the push takes
// the queue's mutex briefly, so it is not lock-free. Only the Spine's single
// consumer goroutine touches sinks, so a Sink implementation need not be
// goroutine-safe against concurrent Write calls from this package.
package logspine

import (
	"fmt"

	"go.helics.dev/corehub/internal/bqueue"
)

// Control-prefix sentinels recognized by the spine itself and never
// delivered to sinks, per spec §6.
const (
	sentinelFlush = "!!>flush"
	sentinelClose = "!!>close"
)

// Sink receives finished log lines. Flush is called when a flush sentinel
// is drained; most sinks can make it a no-op.
type Sink interface {
	Write(line string)
	Flush()
}

// record is one queued (sink, text) pair.
type record struct {
	sink int
	text string
}

// Spine owns the background consumer goroutine and the registered sinks it
// dispatches to by index.
type Spine struct {
	queue *bqueue.Queue[record]
	sinks []Sink
	done  chan struct{}
}

// New returns a Spine with no sinks registered and starts its consumer
// goroutine.
func New() *Spine {
	s := &Spine{
		queue: bqueue.New[record](),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// AddSink registers sink and returns the index future log calls must use
// to address it.
func (s *Spine) AddSink(sink Sink) int {
	s.sinks = append(s.sinks, sink)
	return len(s.sinks) - 1
}

// Log formats "name(fedID)::message" per spec §6 and enqueues it for
// sinkIndex. The call never blocks on sink delivery.
func (s *Spine) Log(sinkIndex int, name string, fedID int32, format string, args ...any) {
	text := fmt.Sprintf("%s(%d)::%s", name, fedID, fmt.Sprintf(format, args...))
	s.queue.Push(record{sink: sinkIndex, text: text})
}

// Raw enqueues text verbatim for sinkIndex, bypassing the "name(fed_id)::"
// formatting — used for control sentinels and records a caller has already
// formatted.
func (s *Spine) Raw(sinkIndex int, text string) {
	s.queue.Push(record{sink: sinkIndex, text: text})
}

// Flush enqueues a flush sentinel for sinkIndex: when drained, the spine
// calls that sink's Flush instead of Write.
func (s *Spine) Flush(sinkIndex int) {
	s.queue.Push(record{sink: sinkIndex, text: sentinelFlush})
}

// Close enqueues a close sentinel and waits for the consumer goroutine to
// drain everything queued before it and exit.
func (s *Spine) Close() {
	s.queue.Push(record{text: sentinelClose})
	<-s.done
}

func (s *Spine) run() {
	defer close(s.done)
	for {
		rec, ok := s.queue.Pop()
		if !ok {
			return
		}
		switch rec.text {
		case sentinelClose:
			return
		case sentinelFlush:
			s.dispatchFlush(rec.sink)
		default:
			s.dispatch(rec.sink, rec.text)
		}
	}
}

func (s *Spine) dispatch(sinkIndex int, text string) {
	if sinkIndex < 0 || sinkIndex >= len(s.sinks) {
		return
	}
	s.sinks[sinkIndex].Write(text)
}

func (s *Spine) dispatchFlush(sinkIndex int) {
	if sinkIndex < 0 || sinkIndex >= len(s.sinks) {
		return
	}
	s.sinks[sinkIndex].Flush()
}
