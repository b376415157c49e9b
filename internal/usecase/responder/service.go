package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
)

const previewRunes = 150

// Policy configures the scope gate and the draft prompt.
type Policy struct {
	AssistantName       string
	Topics              []string
	AcceptanceThreshold float64 // allowlisted queries generate when max_similarity exceeds it
	HighTier            float64 // best results at or above it get the full-content fallback
	Temperature         float32
}

// Validate checks that every value is present.
func (p Policy) Validate() error {
	var errs []error
	if strings.TrimSpace(p.AssistantName) == "" {
		errs = append(errs, errors.New("assistant_name is required"))
	}
	if len(p.Topics) == 0 {
		errs = append(errs, errors.New("topics must not be empty"))
	}
	if p.AcceptanceThreshold <= 0 || p.AcceptanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("acceptance threshold must be in (0,1], got %v", p.AcceptanceThreshold))
	}
	if p.HighTier <= 0 || p.HighTier > 1 {
		errs = append(errs, fmt.Errorf("high tier must be in (0,1], got %v", p.HighTier))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Errorf("draft temperature must be in [0,2], got %v", p.Temperature))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("responder policy: %w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// Service is the draft responder: a scope gate in front of grounded generation.
type Service struct {
	gen    Generator
	scope  Scope
	policy Policy
	logger *zap.Logger
}

// New creates a draft responder.
func New(gen Generator, scope Scope, policy Policy, l *zap.Logger) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if gen == nil || scope == nil {
		return nil, fmt.Errorf("responder: generator and scope are required: %w", domain.ErrConfiguration)
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		gen:    gen,
		scope:  scope,
		policy: policy,
		logger: l,
	}, nil
}

// Respond produces the draft for query. It never returns empty text.
//
// Precedence: capability phrase, zero results, denylist, relevant retrieval,
// allowlisted keyword above the acceptance threshold, otherwise out of scope.
func (s *Service) Respond(ctx context.Context, query string, report domain.RetrievalReport) domain.Draft {
	log := logger.FromContextOr(ctx, s.logger)

	if s.scope.IsCapability(query) {
		log.Debug("Draft decision", zap.String("outcome", string(domain.OutcomeCapability)))
		return domain.Draft{Text: s.capabilityReply(), Outcome: domain.OutcomeCapability}
	}

	reason := ""
	switch best, ok := report.Best(); {
	case !ok || report.ResultsCount == 0:
		reason = "no_results"
	case s.denied(query):
		reason = "denylist"
	case report.IsRelevant:
		return s.generate(ctx, query, best)
	case s.allowed(query, report.MaxSimilarity):
		log.Debug("Draft accepted by allowlist", zap.Float64("max_similarity", report.MaxSimilarity))
		return s.generate(ctx, query, best)
	default:
		reason = "low_relevance"
	}

	log.Debug("Draft decision",
		zap.String("outcome", string(domain.OutcomeOutOfScope)),
		zap.String("reason", reason),
	)
	return domain.Draft{Text: s.OutOfScopeReply(query), Outcome: domain.OutcomeOutOfScope}
}

func (s *Service) denied(query string) bool {
	_, ok := s.scope.Denied(query)
	return ok
}

func (s *Service) allowed(query string, maxSimilarity float64) bool {
	_, ok := s.scope.Allowed(query)
	return ok && maxSimilarity > s.policy.AcceptanceThreshold
}

func (s *Service) generate(ctx context.Context, query string, best domain.RetrievalResult) domain.Draft {
	text, err := s.gen.Generate(ctx, s.prompt(query, best), s.policy.Temperature)
	if err == nil && strings.TrimSpace(text) != "" {
		return domain.Draft{Text: text, Outcome: domain.OutcomeGenerated, Generated: true}
	}
	if err == nil {
		err = fmt.Errorf("empty draft: %w", domain.ErrGeneration)
	}

	logger.FromContextOr(ctx, s.logger).Warn("Draft generation failed, using fallback",
		zap.String("category", best.Category),
		zap.Error(err),
	)
	return domain.Draft{Text: s.fallback(best), Outcome: domain.OutcomeGenerated}
}

func (s *Service) prompt(query string, best domain.RetrievalResult) []domain.Message {
	system := fmt.Sprintf(
		"Eres %s, un asistente especializado en %s. "+
			"Responde en español usando el contexto proporcionado, de forma precisa y estructurada. "+
			"Si el contexto no basta, dilo con claridad.",
		s.policy.AssistantName, strings.Join(s.policy.Topics, ", "))
	return []domain.Message{
		domain.SystemMessage(system),
		domain.SystemMessage(fmt.Sprintf("Contexto (categoría %s): %s", best.Category, best.Content)),
		domain.UserMessage(query),
	}
}

// fallback is the deterministic draft used when generation is unavailable.
func (s *Service) fallback(best domain.RetrievalResult) string {
	if best.Similarity >= s.policy.HighTier {
		return fmt.Sprintf("🎯 **%s**: %s", cases.Title(language.Spanish).String(best.Category), best.Content)
	}
	return fmt.Sprintf("💡 Basado en mi conocimiento de %s: %s\n\n*Nota: Esta información puede no ser exactamente lo que buscas.*",
		best.Category, preview(best.Content))
}

func (s *Service) capabilityReply() string {
	var b strings.Builder
	fmt.Fprintf(&b, "¡Hola! 👋 Soy %s, un asistente especializado en desarrollo de software.\n\n", s.policy.AssistantName)
	b.WriteString("**Temas que domino**:\n")
	for _, t := range s.policy.Topics {
		fmt.Fprintf(&b, "• %s\n", t)
	}
	b.WriteString("\nPregúntame sobre estos temas y te ayudo con información específica.")
	return b.String()
}

// OutOfScopeReply is the templated refusal for query.
func (s *Service) OutOfScopeReply(query string) string {
	return fmt.Sprintf("🔍 **Fuera de mi ámbito especializado**\n\n"+
		"Me concentro en **tecnologías de desarrollo**: %s.\n\n"+
		"Tu pregunta sobre *\"%s\"* está fuera de estos temas.\n\n"+
		"¿Te puedo ayudar con algo relacionado con desarrollo de software?",
		strings.Join(s.policy.Topics, ", "), strings.TrimSpace(query))
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewRunes {
		return content
	}
	return string(r[:previewRunes]) + "..."
}
