package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
)

// otherEventLabel stands in for every event name outside the well-known set,
// so callers cannot create unbounded series.
const otherEventLabel = "other"

// eventLabel returns the metric label for event.
func eventLabel(event EventName) string {
	switch event {
	case EventProgress, EventPctComplete, EventBugCount:
		return event.String()
	}
	return otherEventLabel
}

// Metrics holds the publisher's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	published      *prometheus.CounterVec
	failures       *prometheus.CounterVec
	missingSession prometheus.Counter
	duration       prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testerpub_messages_published_total",
				Help: "Number of messages handed to the transport, by well-known event or \"other\".",
			},
			[]string{"event"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testerpub_publish_failures_total",
				Help: "Number of messages the transport rejected, by well-known event or \"other\".",
			},
			[]string{"event"},
		),
		missingSession: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "testerpub_missing_session_total",
				Help: "Number of publish calls made without a session id.",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "testerpub_publish_duration_seconds",
				Help:    "Time taken by the transport to accept a message.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	for _, c := range []prometheus.Collector{m.published, m.failures, m.missingSession, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observePublished(event EventName, seconds float64) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(eventLabel(event)).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) observeFailure(event EventName) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(eventLabel(event)).Inc()
}

func (m *Metrics) observeMissingSession() {
	if m == nil {
		return
	}
	m.missingSession.Inc()
}
