package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by the coordinator.
type Metrics struct {
	passes        prometheus.Counter
	passDuration  prometheus.Histogram
	localFailures prometheus.Counter
	cloudWrites   *prometheus.CounterVec
	cloudFailures *prometheus.CounterVec
	inProgress    prometheus.Gauge
	degraded      prometheus.Gauge
}

// NewMetrics registers the sync collectors with reg. A nil reg keeps them
// on a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "academy", Subsystem: "sync", Name: "passes_total",
			Help: "Sync passes run.",
		}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "academy", Subsystem: "sync", Name: "pass_duration_seconds",
			Help:    "Wall time of a sync pass.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		localFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "academy", Subsystem: "sync", Name: "local_write_failures_total",
			Help: "Collections that could not be written to the local store.",
		}),
		cloudWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy", Subsystem: "sync", Name: "cloud_writes_total",
			Help: "Successful cloud writes by operation.",
		}, []string{"op"}),
		cloudFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy", Subsystem: "sync", Name: "cloud_failures_total",
			Help: "Failed cloud calls by operation.",
		}, []string{"op"}),
		inProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "academy", Subsystem: "sync", Name: "in_progress",
			Help: "1 while a sync pass runs.",
		}),
		degraded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "academy", Subsystem: "sync", Name: "degraded",
			Help: "1 while cloud writes keep failing.",
		}),
	}
}
