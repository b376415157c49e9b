// Package chat is the request-level entry point: validation, pipeline, history.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
)

const (
	// MaxQueryRunes bounds the accepted message length.
	MaxQueryRunes = 2000
	// DefaultRecentLimit is used when a non-positive limit is requested.
	DefaultRecentLimit = 20
	// MaxRecentLimit caps a single history read.
	MaxRecentLimit = 100
)

// Request is one user message.
type Request struct {
	Message   string
	UserID    string
	RequestID string
}

// Service answers messages and keeps their history.
type Service struct {
	pipeline Processor
	repo     InteractionRepo
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Service. repo can be nil, which disables history.
func New(p Processor, repo InteractionRepo, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{pipeline: p, repo: repo, logger: l, now: time.Now}
}

// Ask validates the message, runs the pipeline and records the interaction.
// A failed save is logged and does not fail the request.
func (s *Service) Ask(ctx context.Context, req Request) (domain.PipelineResult, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return domain.PipelineResult{}, fmt.Errorf("message is empty: %w", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(msg); n > MaxQueryRunes {
		return domain.PipelineResult{}, fmt.Errorf("message has %d characters, max %d: %w",
			n, MaxQueryRunes, domain.ErrInvalidQuery)
	}

	res := s.pipeline.Process(ctx, msg, req.RequestID)

	if s.repo != nil {
		in := domain.NewInteraction(res, req.UserID, s.now())
		if err := s.repo.Save(ctx, in); err != nil {
			logger.FromContextOr(ctx, s.logger).Warn("Failed to save interaction",
				zap.String("request_id", res.RequestID),
				zap.Error(err),
			)
		}
	}
	return res, nil
}

// Get returns one recorded interaction.
func (s *Service) Get(ctx context.Context, requestID string) (domain.Interaction, error) {
	if s.repo == nil {
		return domain.Interaction{}, fmt.Errorf("interaction %q: %w", requestID, domain.ErrNotFound)
	}
	if strings.TrimSpace(requestID) == "" {
		return domain.Interaction{}, fmt.Errorf("request id is empty: %w", domain.ErrInvalidQuery)
	}
	return s.repo.Get(ctx, requestID)
}

// Recent returns up to limit interactions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	if s.repo == nil {
		return []domain.Interaction{}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	return s.repo.Recent(ctx, limit)
}
