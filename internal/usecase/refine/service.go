// Package refine improves a draft according to its critique.
package refine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

// Refinement paths, also used as metric labels.
const (
	PathNoop     = "noop"
	PathRefined  = "refined"
	PathFallback = "fallback"
)

const (
	genericLowScore  = 0.6
	genericLowText   = "mejora significativamente la respuesta, añade más valor y detalles"
	genericRefineTxt = "refina la respuesta para hacerla más útil y completa"
)

var instructions = map[domain.Issue]string{
	domain.IssueTooShort:             "expande la respuesta con más detalles y ejemplos",
	domain.IssueTooLong:              "haz la respuesta más concisa pero mantén los puntos clave",
	domain.IssueMissingTechnical:     "añade contenido técnico específico y comandos prácticos",
	domain.IssueUnstructured:         "mejora la estructura organizando con puntos claros",
	domain.IssueOffTopic:             "enfócate más directamente en la pregunta del usuario",
	domain.IssueScopeNotAcknowledged: "indica claramente que la consulta está fuera del ámbito técnico",
}

// Policy configures the refinement controller.
type Policy struct {
	HighQualityThreshold float64 // score at or above it with no issues skips refinement
	Temperature          float32
}

// Validate checks that every value is present.
func (p Policy) Validate() error {
	var errs []error
	if p.HighQualityThreshold <= 0 || p.HighQualityThreshold > 1 {
		errs = append(errs, fmt.Errorf("high_quality_threshold must be in (0,1], got %v", p.HighQualityThreshold))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Errorf("refine temperature must be in [0,2], got %v", p.Temperature))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("refinement policy: %w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// Service is the refinement controller.
type Service struct {
	gen    Generator
	policy Policy
	logger *zap.Logger
}

// New creates a refinement controller.
func New(gen Generator, policy Policy, l *zap.Logger) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, fmt.Errorf("refine: generator is required: %w", domain.ErrConfiguration)
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{gen: gen, policy: policy, logger: l}, nil
}

// Refine returns the final response. A high-quality draft with no issues is
// returned unchanged; otherwise the draft is rewritten by the generator, or
// annotated with the directive when generation fails.
func (s *Service) Refine(ctx context.Context, draft string, critique domain.CritiqueReport, query string) domain.Refinement {
	if critique.Score >= s.policy.HighQualityThreshold && len(critique.Issues) == 0 {
		metrics.RefinementTotal.WithLabelValues(PathNoop).Inc()
		return domain.Refinement{Text: draft}
	}

	log := logger.FromContextOr(ctx, s.logger)
	directive := Directive(critique)

	text, err := s.gen.Generate(ctx, s.prompt(draft, critique, query, directive), s.policy.Temperature)
	if err == nil && strings.TrimSpace(text) != "" {
		metrics.RefinementTotal.WithLabelValues(PathRefined).Inc()
		return domain.Refinement{Text: text, Refined: true, Directive: directive}
	}
	if err == nil {
		err = fmt.Errorf("empty refinement: %w", domain.ErrGeneration)
	}

	metrics.RefinementTotal.WithLabelValues(PathFallback).Inc()
	log.Warn("Refinement generation failed, annotating draft",
		zap.Float64("score", critique.Score),
		zap.Error(err),
	)
	return domain.Refinement{
		Text:      fmt.Sprintf("🔄 MEJORADO: %s\n\n💡 Mejoras aplicadas: %s", draft, directive),
		Refined:   true,
		Directive: directive,
		Fallback:  true,
	}
}

// Directive builds the improvement instruction for a critique: one instruction
// per issue category in issue order, then the advice unless already included.
func Directive(critique domain.CritiqueReport) string {
	if len(critique.Issues) == 0 {
		if critique.Score < genericLowScore {
			return genericLowText
		}
		return genericRefineTxt
	}

	parts := make([]string, 0, len(critique.Issues)+1)
	seen := make(map[domain.IssueCategory]struct{}, len(critique.Issues))
	for _, issue := range critique.Issues {
		cat := issue.Category()
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		if text, ok := instructions[issue]; ok {
			parts = append(parts, text)
		}
	}

	directive := strings.Join(parts, ". ")
	advice := strings.TrimSpace(critique.Advice)
	if advice != "" && !strings.Contains(strings.ToLower(directive), strings.ToLower(strings.TrimSuffix(advice, "."))) {
		if directive == "" {
			return advice
		}
		directive += ". " + advice
	}
	return directive
}

func (s *Service) prompt(draft string, critique domain.CritiqueReport, query, directive string) []domain.Message {
	issues := make([]string, len(critique.Issues))
	for i, issue := range critique.Issues {
		issues[i] = string(issue)
	}
	listed := "ninguno"
	if len(issues) > 0 {
		listed = strings.Join(issues, "; ")
	}

	return []domain.Message{
		domain.SystemMessage("Mejora la respuesta incorporando este feedback: " + directive),
		domain.UserMessage(fmt.Sprintf(
			"Pregunta original: %s\n\nRespuesta inicial: %s\n\nPuntuación recibida: %.2f/1.0\n"+
				"Problemas identificados: %s\n\nDevuelve una respuesta mejorada que solucione los problemas mencionados.",
			query, draft, critique.Score, listed)),
	}
}
