package logspine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	lines  []string
	flushed int
}

func (s *recordingSink) Write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *recordingSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed++
}

func (s *recordingSink) snapshot() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...), s.flushed
}

func TestLogFormatsNameFedIDMessage(t *testing.T) {
	sp := New()
	defer sp.Close()

	sink := &recordingSink{}
	idx := sp.AddSink(sink)

	sp.Log(idx, "filterfed1", 42, "processed %d messages", 3)

	require.Eventually(t, func() bool {
		lines, _ := sink.snapshot()
		return len(lines) == 1
	}, time.Second, time.Millisecond)

	lines, _ := sink.snapshot()
	require.Equal(t, "filterfed1(42)::processed 3 messages", lines[0])
}

func TestFlushSentinelNotDeliveredAsLine(t *testing.T) {
	sp := New()
	defer sp.Close()

	sink := &recordingSink{}
	idx := sp.AddSink(sink)

	sp.Log(idx, "core1", 1, "hello")
	sp.Flush(idx)

	require.Eventually(t, func() bool {
		_, flushed := sink.snapshot()
		return flushed == 1
	}, time.Second, time.Millisecond)

	lines, _ := sink.snapshot()
	require.Len(t, lines, 1, "the flush sentinel itself must never reach Write")
	require.Equal(t, "core1(1)::hello", lines[0])
}

func TestCloseDrainsBeforeReturning(t *testing.T) {
	sp := New()
	sink := &recordingSink{}
	idx := sp.AddSink(sink)

	for i := 0; i < 50; i++ {
		sp.Log(idx, "n", 0, "msg %d", i)
	}
	sp.Close()

	lines, _ := sink.snapshot()
	require.Len(t, lines, 50, "Close must wait until everything queued before it has drained")
}

func TestRawBypassesFormatting(t *testing.T) {
	sp := New()
	defer sp.Close()

	sink := &recordingSink{}
	idx := sp.AddSink(sink)
	sp.Raw(idx, "already formatted")

	require.Eventually(t, func() bool {
		lines, _ := sink.snapshot()
		return len(lines) == 1
	}, time.Second, time.Millisecond)

	lines, _ := sink.snapshot()
	require.Equal(t, "already formatted", lines[0])
}
