// Package metrics exposes Prometheus instrumentation for a running core or
// broker: message throughput, filter-chain outcomes, outstanding async
// filter-operator markers, and broker-loop tick timing.
//
// All counters and gauges use nil-receiver methods, so a caller that never
// constructs a Metrics (e.g. a short-lived CLI invocation) can pass a nil
// *Metrics everywhere without branching on whether metrics are enabled.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every Prometheus collector a core or broker reports.
type Metrics struct {
	MessagesProcessed  *prometheus.CounterVec
	FilterChainResults *prometheus.CounterVec
	AsyncPending       prometheus.Gauge
	TickDuration       prometheus.Histogram
	QueueDepth         *prometheus.GaugeVec
}

// New creates and registers a core/broker's metrics under reg. Panics if
// registration fails, which only happens on a duplicate registration bug
// during process startup.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corehub_messages_processed_total",
				Help: "Total messages processed by direction (source, destination)",
			},
			[]string{"direction"},
		),
		FilterChainResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corehub_filter_chain_results_total",
				Help: "Total filter chain outcomes by result (kept, dropped, cloned)",
			},
			[]string{"result"},
		),
		AsyncPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corehub_async_filter_markers_pending",
				Help: "Current number of outstanding asynchronous filter operator completions",
			},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corehub_broker_tick_duration_seconds",
				Help:    "Wall-clock time spent processing one broker-loop tick",
				Buckets: prometheus.DefBuckets,
			},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corehub_action_queue_depth",
				Help: "Current ActionQueue depth by priority band (priority, normal)",
			},
			[]string{"band"},
		),
	}

	reg.MustRegister(
		m.MessagesProcessed,
		m.FilterChainResults,
		m.AsyncPending,
		m.TickDuration,
		m.QueueDepth,
	)
	return m
}

// RecordMessage counts one message processed in the given direction
// ("source" or "destination").
func (m *Metrics) RecordMessage(direction string) {
	if m == nil {
		return
	}
	m.MessagesProcessed.WithLabelValues(direction).Inc()
}

// RecordFilterResult counts one filter chain outcome ("kept", "dropped", or
// "cloned").
func (m *Metrics) RecordFilterResult(result string) {
	if m == nil {
		return
	}
	m.FilterChainResults.WithLabelValues(result).Inc()
}

// SetAsyncPending updates the outstanding-marker gauge.
func (m *Metrics) SetAsyncPending(n int) {
	if m == nil {
		return
	}
	m.AsyncPending.Set(float64(n))
}

// ObserveTickDuration records how long one broker-loop tick took.
func (m *Metrics) ObserveTickDuration(seconds float64) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(seconds)
}

// SetQueueDepth updates the queue-depth gauge for one priority band.
func (m *Metrics) SetQueueDepth(band string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(band).Set(float64(depth))
}

// Null returns nil, which every method above treats as a no-op collector.
func Null() *Metrics {
	return nil
}
