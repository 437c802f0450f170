package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NFSMetrics provides observability for the MNT and LOOKUP handlers.
//
// This interface is optional - if not provided to a handler, a no-op
// implementation is used with zero overhead.
type NFSMetrics interface {
	// RecordRequest records a completed request with its procedure name,
	// duration, and wire status (0 is success).
	RecordRequest(procedure string, duration time.Duration, status uint32)

	// RecordRequestStart increments the in-flight request counter.
	RecordRequestStart(procedure string)

	// RecordRequestEnd decrements the in-flight request counter.
	RecordRequestEnd(procedure string)
}

// nfsMetrics is the Prometheus implementation of NFSMetrics.
type nfsMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

// NewNFSMetrics creates a Prometheus-backed NFSMetrics registered with the
// global registry, or a no-op implementation when metrics are disabled.
func NewNFSMetrics() NFSMetrics {
	if !IsEnabled() {
		return &noopNFSMetrics{}
	}
	return newNFSMetrics(GetRegistry())
}

func newNFSMetrics(reg prometheus.Registerer) *nfsMetrics {
	return &nfsMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsfh_requests_total",
				Help: "Total number of MNT and LOOKUP requests by procedure and status",
			},
			[]string{"procedure", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nfsfh_request_duration_seconds",
				Help: "Duration of MNT and LOOKUP requests in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1.0,    // 1s
				},
			},
			[]string{"procedure"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nfsfh_requests_in_flight",
				Help: "Current number of requests being processed",
			},
			[]string{"procedure"},
		),
	}
}

func (m *nfsMetrics) RecordRequest(procedure string, duration time.Duration, status uint32) {
	label := "success"
	if status != 0 {
		label = "error"
	}

	m.requestsTotal.WithLabelValues(procedure, label).Inc()
	m.requestDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

func (m *nfsMetrics) RecordRequestStart(procedure string) {
	m.requestsInFlight.WithLabelValues(procedure).Inc()
}

func (m *nfsMetrics) RecordRequestEnd(procedure string) {
	m.requestsInFlight.WithLabelValues(procedure).Dec()
}

// noopNFSMetrics is a no-op implementation of NFSMetrics with zero overhead.
type noopNFSMetrics struct{}

func (noopNFSMetrics) RecordRequest(procedure string, duration time.Duration, status uint32) {}
func (noopNFSMetrics) RecordRequestStart(procedure string)                                 {}
func (noopNFSMetrics) RecordRequestEnd(procedure string)                                   {}

// NFSOrNoop returns m, or a no-op implementation if m is nil.
func NFSOrNoop(m NFSMetrics) NFSMetrics {
	if m == nil {
		return &noopNFSMetrics{}
	}
	return m
}
