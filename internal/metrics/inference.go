package metrics

import "github.com/prometheus/client_golang/prometheus"

// Remote inference Prometheus metrics (embedding endpoint + folding workflow).
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proteinrank",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding inference requests",
		},
		[]string{"provider", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "proteinrank",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding inference request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	FoldJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proteinrank",
			Name:      "fold_jobs_total",
			Help:      "Total number of structure prediction jobs by outcome",
		},
		[]string{"status"}, // "success" / "error"
	)

	FoldJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "proteinrank",
			Name:      "fold_job_duration_seconds",
			Help:      "Structure prediction job duration in seconds, submission to terminal state",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"status"},
	)

	InferenceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proteinrank",
			Name:      "inference_cache_total",
			Help:      "Inference result cache hits and misses",
		},
		[]string{"kind", "result"}, // kind: "embedding" / "structure"; result: "hit" / "miss"
	)
)

var inferenceMetricsRegistered bool

// RegisterInferenceMetrics registers Prometheus inference metrics. Must be called once from main.
func RegisterInferenceMetrics() {
	if inferenceMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(FoldJobsTotal)
	prometheus.MustRegister(FoldJobDuration)
	prometheus.MustRegister(InferenceCacheTotal)
	inferenceMetricsRegistered = true
}
