package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordMessageIncrementsByDirection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordMessage("source")
	m.RecordMessage("source")
	m.RecordMessage("destination")

	require.Equal(t, float64(2), testutil.ToFloat64(m.MessagesProcessed.WithLabelValues("source")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.MessagesProcessed.WithLabelValues("destination")))
}

func TestRecordFilterResultAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordFilterResult("dropped")
	m.SetAsyncPending(3)
	m.SetQueueDepth("priority", 2)
	m.ObserveTickDuration(0.01)

	require.Equal(t, float64(1), testutil.ToFloat64(m.FilterChainResults.WithLabelValues("dropped")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.AsyncPending))
	require.Equal(t, float64(2), testutil.ToFloat64(m.QueueDepth.WithLabelValues("priority")))
}

func TestNilMetricsMethodsAreNoOps(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordMessage("source")
		m.RecordFilterResult("kept")
		m.SetAsyncPending(1)
		m.ObserveTickDuration(0.1)
		m.SetQueueDepth("normal", 5)
	})
}

func TestNullReturnsNil(t *testing.T) {
	require.Nil(t, Null())
}
