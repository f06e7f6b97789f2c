package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	EventsRecorded *prometheus.CounterVec
	RecordFailures prometheus.Counter
	MirrorDropped  prometheus.Counter
	ClearsTotal    prometheus.Counter
	QueryDuration  prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hirelog_events_recorded_total",
			Help: "Total number of activity events durably recorded, by kind",
		}, []string{"kind"}),
		RecordFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hirelog_record_failures_total",
			Help: "Total number of activity event appends that failed at the store",
		}),
		MirrorDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hirelog_mirror_dropped_total",
			Help: "Total number of event copies dropped because the mirror inbox was full",
		}),
		ClearsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hirelog_clears_total",
			Help: "Total number of bulk clear operations executed",
		}),
		QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hirelog_query_duration_seconds",
			Help:    "Latency of filtered activity log queries",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementEventsRecorded increments the recorded-events counter for a kind.
func (m *Metrics) IncrementEventsRecorded(kind string) {
	m.EventsRecorded.WithLabelValues(kind).Inc()
}

// IncrementRecordFailures increments the failed-append counter by 1.
func (m *Metrics) IncrementRecordFailures() {
	m.RecordFailures.Inc()
}

// IncrementMirrorDropped increments the dropped-mirror-copy counter by 1.
func (m *Metrics) IncrementMirrorDropped() {
	m.MirrorDropped.Inc()
}

// IncrementClears increments the clear-operations counter by 1.
func (m *Metrics) IncrementClears() {
	m.ClearsTotal.Inc()
}

// ObserveQueryDuration records one query latency sample.
func (m *Metrics) ObserveQueryDuration(d time.Duration) {
	m.QueryDuration.Observe(d.Seconds())
}
