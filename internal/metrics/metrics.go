package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments of the name pipeline.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	Published      prometheus.Counter
	PublishFailed  *prometheus.CounterVec
	Persisted      prometheus.Counter
	ConsumeFailed  *prometheus.CounterVec
	DeadLettered   prometheus.Counter
	ConsumeLatency prometheus.Histogram
	StatsFallbacks *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Each binary passes its own registry so tests stay isolated from global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_published_total",
			Help: "Total number of names accepted by the queue.",
		}),

		PublishFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_publish_failed_total",
			Help: "Total number of names the queue did not accept, by failure class.",
		}, []string{"reason"}),

		Persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_persisted_total",
			Help: "Total number of consumed names written to the database.",
		}),

		ConsumeFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_consume_failed_total",
			Help: "Total number of failed delivery attempts, by failure class.",
		}, []string{"reason"}),

		DeadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_dead_lettered_total",
			Help: "Total number of messages routed to the dead-letter subject.",
		}),

		ConsumeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "submission_consume_seconds",
			Help:    "Time from message receipt to acknowledgement.",
			Buckets: prometheus.DefBuckets,
		}),

		StatsFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_fallback_total",
			Help: "Total number of stats responses served from placeholder data.",
		}, []string{"source"}),
	}

	reg.MustRegister(
		m.Published,
		m.PublishFailed,
		m.Persisted,
		m.ConsumeFailed,
		m.DeadLettered,
		m.ConsumeLatency,
		m.StatsFallbacks,
	)

	return m
}

// PublishHooks returns the callbacks expected by publisher.MetricHooks.
func (m *Metrics) PublishHooks() (onPublished func(), onFailed func(reason string)) {
	onPublished = func() { m.Published.Inc() }
	onFailed = func(reason string) { m.PublishFailed.WithLabelValues(reason).Inc() }
	return
}

// ConsumeHooks returns the callbacks expected by worker.MetricHooks.
func (m *Metrics) ConsumeHooks() (
	onPersisted func(time.Duration),
	onFailed func(reason string),
	onDeadLettered func(),
) {
	onPersisted = func(latency time.Duration) {
		m.Persisted.Inc()
		m.ConsumeLatency.Observe(latency.Seconds())
	}
	onFailed = func(reason string) { m.ConsumeFailed.WithLabelValues(reason).Inc() }
	onDeadLettered = func() { m.DeadLettered.Inc() }
	return
}

// FallbackHook returns a callback counting placeholder stats responses
// for the given source ("database" on the backend, "backend" on the frontend).
func (m *Metrics) FallbackHook(source string) func() {
	c := m.StatsFallbacks.WithLabelValues(source)
	return func() { c.Inc() }
}
