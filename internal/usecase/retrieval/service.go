package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

// Service turns index hits into a classified retrieval report.
type Service struct {
	index  Index
	policy Policy
	logger *zap.Logger
}

// New creates a retrieval service. An invalid policy is a configuration error.
func New(idx Index, policy Policy, l *zap.Logger) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{index: idx, policy: policy, logger: l}, nil
}

// Policy returns the thresholds the service classifies with.
func (s *Service) Policy() Policy { return s.policy }

// Classify retrieves and classifies documents for query. topK <= 0 uses the
// policy default. Index failures degrade to an empty report with Error set;
// Classify itself never fails.
func (s *Service) Classify(ctx context.Context, query string, topK int) domain.RetrievalReport {
	if topK <= 0 {
		topK = s.policy.TopK
	}
	log := logger.FromContextOr(ctx, s.logger)
	start := time.Now()

	hits, err := s.index.Query(ctx, query, topK)
	if err != nil {
		metrics.RetrievalErrorsTotal.Inc()
		metrics.RetrievalRelevanceTotal.WithLabelValues(string(domain.RelevanceNone)).Inc()
		log.Warn("Retrieval degraded", zap.Error(err))
		return domain.EmptyReport(query, err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	var maxSim float64
	for _, h := range hits {
		sim := Similarity(h.Distance)
		if sim <= s.policy.SimilarityFloor {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Content:    h.Document.Content,
			Category:   h.Document.Category,
			Tags:       append([]string(nil), h.Document.Tags...),
			Similarity: sim,
		})
		maxSim = max(maxSim, sim)
	}

	report := domain.RetrievalReport{
		Query:          query,
		Results:        results,
		MaxSimilarity:  maxSim,
		ResultsCount:   len(results),
		IsRelevant:     maxSim > s.policy.RelevanceThreshold,
		RelevanceLevel: s.policy.Level(maxSim),
	}

	metrics.RetrievalRelevanceTotal.WithLabelValues(string(report.RelevanceLevel)).Inc()
	log.Debug("Retrieval classified",
		zap.Int("results", report.ResultsCount),
		zap.Float64("max_similarity", report.MaxSimilarity),
		zap.String("relevance_level", string(report.RelevanceLevel)),
		zap.Bool("is_relevant", report.IsRelevant),
		zap.Duration("duration", time.Since(start)),
	)
	return report
}
