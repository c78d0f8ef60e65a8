// Package metrics exposes Prometheus collectors for the image pipeline and
// the HTTP layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "autodealer"

// Relocation outcomes for a single image reference during commit.
const (
	OutcomeCommitted   = "committed"
	OutcomePassThrough = "passthrough"
	OutcomeFailed      = "failed"
)

// Metrics groups the collectors of the service.
type Metrics struct {
	relocations    *prometheus.CounterVec
	cleanupObjects *prometheus.CounterVec
	sweptObjects   prometheus.Counter
	uploads        prometheus.Counter
	requestLatency *prometheus.HistogramVec
}

// MustNewMetrics builds the collectors and registers them with reg, or with
// the default registerer when reg is nil. Registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		relocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "images",
				Name:      "relocations_total",
				Help:      "Image references processed by commit, by outcome.",
			},
			[]string{"outcome"},
		),
		cleanupObjects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "images",
				Name:      "cleanup_objects_total",
				Help:      "Staged objects targeted by batch cleanup, by result.",
			},
			[]string{"result"},
		),
		sweptObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "swept_objects_total",
			Help:      "Expired staged objects removed by the sweeper.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "uploaded_total",
			Help:      "Images stored through the upload endpoint.",
		}),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency of HTTP requests by route and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(m.relocations, m.cleanupObjects, m.sweptObjects, m.uploads, m.requestLatency)
	return m
}

// IncRelocation counts one commit item with the given outcome.
func (m *Metrics) IncRelocation(outcome string) {
	if m == nil {
		return
	}
	m.relocations.WithLabelValues(outcome).Inc()
}

// AddCleanup records the result of one batch cleanup.
func (m *Metrics) AddCleanup(deleted, failed int) {
	if m == nil {
		return
	}
	m.cleanupObjects.WithLabelValues("deleted").Add(float64(deleted))
	m.cleanupObjects.WithLabelValues("failed").Add(float64(failed))
}

// AddSwept counts objects removed by a sweep run.
func (m *Metrics) AddSwept(n int) {
	if m == nil {
		return
	}
	m.sweptObjects.Add(float64(n))
}

// AddUploads counts stored uploads.
func (m *Metrics) AddUploads(n int) {
	if m == nil {
		return
	}
	m.uploads.Add(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}
