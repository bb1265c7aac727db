package metrics

import "github.com/prometheus/client_golang/prometheus"

// Coordinator client Prometheus metrics.
var (
	CoordinatorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerhub",
			Name:      "coordinator_requests_total",
			Help:      "Total Coordinator route requests",
		},
		[]string{"status"}, // "success" / "failure"
	)

	CoordinatorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerhub",
			Name:      "coordinator_errors_total",
			Help:      "Coordinator errors by classified code",
		},
		[]string{"code"},
	)

	CoordinatorDownstreamTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerhub",
			Name:      "coordinator_downstream_total",
			Help:      "Successful routes by downstream service",
		},
		[]string{"service"},
	)

	CoordinatorFallbackRoutesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "answerhub",
			Name:      "coordinator_fallback_routes_total",
			Help:      "Successful routes served by a non-primary service (rank_used > 0)",
		},
	)

	CoordinatorRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "answerhub",
			Name:      "coordinator_request_duration_seconds",
			Help:      "Coordinator route duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var coordinatorMetricsRegistered bool

// RegisterCoordinatorMetrics registers Prometheus Coordinator metrics. Must be called once from main.
func RegisterCoordinatorMetrics() {
	if coordinatorMetricsRegistered {
		return
	}
	prometheus.MustRegister(CoordinatorRequestsTotal)
	prometheus.MustRegister(CoordinatorErrorsTotal)
	prometheus.MustRegister(CoordinatorDownstreamTotal)
	prometheus.MustRegister(CoordinatorFallbackRoutesTotal)
	prometheus.MustRegister(CoordinatorRequestDuration)
	coordinatorMetricsRegistered = true
}
