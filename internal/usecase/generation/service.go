package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

// Stage labels the pipeline step a generation call belongs to.
type Stage string

const (
	StageDraft  Stage = "draft"
	StageRefine Stage = "refine"
)

// Unavailable is the Generator used when no provider is configured. Every
// call fails, so callers take their deterministic fallback paths.
type Unavailable struct{}

// Generate always returns domain.ErrGeneration.
func (Unavailable) Generate(_ context.Context, _ []domain.Message, _ float32) (string, error) {
	return "", fmt.Errorf("no generation provider configured: %w", domain.ErrGeneration)
}

// HealthCheck always fails.
func (Unavailable) HealthCheck(_ context.Context) error {
	return fmt.Errorf("no generation provider configured: %w", domain.ErrGeneration)
}

// Instrumented bounds each call with a timeout, normalizes failures to
// domain.ErrGeneration and records per-stage metrics.
type Instrumented struct {
	inner   Generator
	stage   Stage
	timeout time.Duration
	logger  *zap.Logger
}

// NewInstrumented wraps inner for one pipeline stage. timeout <= 0 disables the bound.
func NewInstrumented(inner Generator, stage Stage, timeout time.Duration, l *zap.Logger) *Instrumented {
	if l == nil {
		l = zap.NewNop()
	}
	return &Instrumented{inner: inner, stage: stage, timeout: timeout, logger: l}
}

// Generate implements Generator.
func (g *Instrumented) Generate(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	log := logger.FromContextOr(ctx, g.logger)
	start := time.Now()

	text, err := g.inner.Generate(ctx, messages, temperature)
	duration := time.Since(start)
	metrics.GenerationRequestDuration.WithLabelValues(string(g.stage)).Observe(duration.Seconds())

	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("empty completion: %w", domain.ErrGeneration)
	}
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.GenerationRequestsTotal.WithLabelValues(string(g.stage), status).Inc()
		log.Warn("Generation failed",
			zap.String("stage", string(g.stage)),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrGeneration) {
			err = fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		return "", err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(string(g.stage), "success").Inc()
	log.Debug("Generation completed",
		zap.String("stage", string(g.stage)),
		zap.Duration("duration", duration),
		zap.Int("chars", len(text)),
	)
	return text, nil
}
