package metrics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation and pipeline Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of text-generation requests",
		},
		[]string{"stage", "status"}, // stage: draft/refine, status: success/error/timeout
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Text-generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"stage"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Total text-generation tokens consumed",
		},
		[]string{"model", "type"},
	)

	PipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Pipeline runs by responder outcome",
		},
		[]string{"outcome"},
	)

	RetrievalRelevanceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_relevance_total",
			Help:      "Retrievals by relevance level",
		},
		[]string{"level"},
	)

	RetrievalErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_errors_total",
			Help:      "Retrievals degraded by an index failure",
		},
	)

	CritiqueScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "critique_score",
			Help:      "Distribution of critique scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
		},
	)

	RefinementTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinement_total",
			Help:      "Refinement decisions by path",
		},
		[]string{"path"}, // noop, refined, fallback
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

var registerOnce sync.Once

// Collectors returns the embedding, generation and pipeline collectors.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
		IndexDocuments,
		GenerationRequestsTotal,
		GenerationRequestDuration,
		GenerationTokensTotal,
		PipelineRequestsTotal,
		RetrievalRelevanceTotal,
		RetrievalErrorsTotal,
		CritiqueScore,
		RefinementTotal,
		PipelineDuration,
	}
}

// Register registers the embedding, generation and pipeline metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// RegisterOn registers the same collectors on reg. Collectors already
// registered there are skipped.
func RegisterOn(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}
