// Package pipeline runs retrieval, draft, critique and refinement for one query.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
	"github.com/kailas-cloud/genesis/internal/metrics"
	"github.com/kailas-cloud/genesis/internal/usecase/refine"
)

// Service wires the four stages together.
type Service struct {
	retriever Retriever
	responder Responder
	critic    Critic
	refiner   Refiner
	logger    *zap.Logger
}

// New creates a pipeline.
func New(retriever Retriever, responder Responder, critic Critic, refiner Refiner, l *zap.Logger) (*Service, error) {
	if retriever == nil || responder == nil || critic == nil || refiner == nil {
		return nil, fmt.Errorf("pipeline: all stages are required: %w", domain.ErrConfiguration)
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		responder: responder,
		critic:    critic,
		refiner:   refiner,
		logger:    l,
	}, nil
}

// Process answers query. It never fails: stage failures degrade to
// deterministic text and a panic in any stage yields a populated result.
// An empty requestID is replaced with a new UUID.
func (s *Service) Process(ctx context.Context, query, requestID string) (res domain.PipelineResult) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	start := time.Now()
	// A request-scoped logger from the transport already carries request_id.
	log, ok := logger.FromContextOK(ctx)
	if !ok {
		log = s.logger.With(zap.String("request_id", requestID))
		ctx = logger.ContextWithLogger(ctx, log)
	}

	res = domain.PipelineResult{RequestID: requestID, Query: query}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Pipeline panic recovered", zap.Any("panic", r), zap.Stack("stack"))
			s.recoverResult(&res)
		}
		res.Duration = time.Since(start)
		s.observe(log, res)
	}()

	res.Retrieval = s.retriever.Classify(ctx, query, 0)
	res.Draft = s.responder.Respond(ctx, query, res.Retrieval)
	res.Critique = s.critic.Critique(res.Draft.Text, query, res.Retrieval)
	res.Refinement = s.refiner.Refine(ctx, res.Draft.Text, res.Critique, query)
	res.FinalResponse = res.Refinement.Text
	return res
}

func (s *Service) recoverResult(res *domain.PipelineResult) {
	if res.Retrieval.Results == nil {
		res.Retrieval = domain.EmptyReport(res.Query, nil)
	}
	if res.Draft.Text == "" {
		res.Draft = domain.Draft{Text: s.responder.OutOfScopeReply(res.Query), Outcome: domain.OutcomeOutOfScope}
	}
	if res.Critique.Issues == nil {
		res.Critique.Issues = []domain.Issue{}
	}
	if res.FinalResponse == "" {
		res.FinalResponse = res.Draft.Text
		res.Refinement = domain.Refinement{Text: res.Draft.Text}
	}
}

func (s *Service) observe(log *zap.Logger, res domain.PipelineResult) {
	level := res.Retrieval.RelevanceLevel
	if level == "" {
		level = domain.RelevanceNone
	}
	path := refinementPath(res.Refinement)

	metrics.PipelineRequestsTotal.WithLabelValues(string(res.Draft.Outcome)).Inc()
	metrics.CritiqueScore.Observe(res.Critique.Score)
	metrics.PipelineDuration.Observe(res.Duration.Seconds())

	log.Info("pipeline_completed",
		zap.String("outcome", string(res.Draft.Outcome)),
		zap.Bool("draft_generated", res.Draft.Generated),
		zap.String("relevance_level", string(level)),
		zap.Float64("max_similarity", res.Retrieval.MaxSimilarity),
		zap.Int("results", res.Retrieval.ResultsCount),
		zap.Bool("retrieval_degraded", res.Retrieval.Failed()),
		zap.Float64("critique_score", res.Critique.Score),
		zap.Int("issues", len(res.Critique.Issues)),
		zap.String("refinement", path),
		zap.Duration("duration", res.Duration),
	)
}

func refinementPath(r domain.Refinement) string {
	switch {
	case r.Fallback:
		return refine.PathFallback
	case r.Refined:
		return refine.PathRefined
	default:
		return refine.PathNoop
	}
}
