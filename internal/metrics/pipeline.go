package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerhub",
			Name:      "pipeline_queries_total",
			Help:      "Total pipeline queries by terminal reason",
		},
		[]string{"tenant", "reason"},
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "answerhub",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Per-stage pipeline duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	PipelineStageSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerhub",
			Name:      "pipeline_stage_skipped_total",
			Help:      "Pipeline stages skipped after a degradable failure",
		},
		[]string{"stage"},
	)

	PipelineCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "answerhub",
			Name:      "pipeline_candidates",
			Help:      "Candidate counts observed at pipeline checkpoints",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"checkpoint"}, // "vector", "filtered", "final"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineQueriesTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineStageSkippedTotal)
	prometheus.MustRegister(PipelineCandidates)
	pipelineMetricsRegistered = true
}
