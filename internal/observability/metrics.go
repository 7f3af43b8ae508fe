package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	backendRequestsTotal    *prometheus.CounterVec
	backendLatencySeconds   *prometheus.HistogramVec
	portalRequestsTotal     *prometheus.CounterVec
	portalLatencySeconds    *prometheus.HistogramVec
	courseworkMutations     *prometheus.CounterVec
	sessionTransitionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		backendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseforge_backend_requests_total",
			Help: "Total number of requests sent to the CourseForge backend.",
		}, []string{"method", "route", "status"})

		backendLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courseforge_backend_request_duration_seconds",
			Help:    "Latency distribution for CourseForge backend requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		portalRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseforge_portal_requests_total",
			Help: "Total number of portal requests served.",
		}, []string{"method", "route", "status"})

		portalLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courseforge_portal_latency_seconds",
			Help:    "Latency distribution for portal requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		courseworkMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseforge_coursework_mutations_total",
			Help: "Coursework mutations issued by the portal, by operation and outcome.",
		}, []string{"operation", "outcome"})

		sessionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseforge_session_transitions_total",
			Help: "Session lifecycle transitions.",
		}, []string{"event"})

		prometheus.MustRegister(
			backendRequestsTotal,
			backendLatencySeconds,
			portalRequestsTotal,
			portalLatencySeconds,
			courseworkMutations,
			sessionTransitionsTotal,
		)
	})
}

// BackendRequests exposes the counter for outgoing backend requests.
func BackendRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return backendRequestsTotal
}

// BackendLatency exposes the latency histogram for outgoing backend requests.
func BackendLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return backendLatencySeconds
}

// PortalRequests exposes the counter for portal requests.
func PortalRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return portalRequestsTotal
}

// PortalLatency exposes the latency histogram for portal requests.
func PortalLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return portalLatencySeconds
}

// CourseworkMutations exposes the coursework mutation counter.
func CourseworkMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return courseworkMutations
}

// SessionTransitions exposes the session lifecycle counter.
func SessionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionTransitionsTotal
}
