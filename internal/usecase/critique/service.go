// Package critique scores a draft answer with fixed heuristics.
package critique

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Advice texts, selected by the first issue category in priority order.
const (
	AdviceWellFormed = "Excelente respuesta, bien estructurada y completa."
	AdviceTechnical  = "Añade ejemplos técnicos específicos y comandos."
	AdviceStructure  = "Organiza la respuesta con puntos o listas numeradas."
	AdviceExpand     = "Expande con más detalles y ejemplos prácticos."
	AdviceCondense   = "Resume la respuesta manteniendo solo los puntos clave."
	AdviceFocus      = "Mejora el enfoque en los puntos clave de la pregunta."
)

// Capability reports whether a query is a greeting/capability phrase.
type Capability interface {
	IsCapability(query string) bool
}

// Service is the critique engine. It is pure and safe for concurrent use.
type Service struct {
	capability Capability
	policy     Policy
	technical  []string
	outOfScope []string
}

// New creates a critique engine.
func New(capability Capability, policy Policy) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if capability == nil {
		return nil, fmt.Errorf("critique: capability matcher is required: %w", domain.ErrConfiguration)
	}
	return &Service{
		capability: capability,
		policy:     policy,
		technical:  lowerAll(policy.TechnicalTerms),
		outOfScope: lowerAll(policy.OutOfScopeMarkers),
	}, nil
}

// Policy returns the scoring policy.
func (s *Service) Policy() Policy { return s.policy }

// Critique scores draft against query and the retrieval that grounded it.
// Issues appear in check order: scope, length, technical, structure, context.
func (s *Service) Critique(draft, query string, report domain.RetrievalReport) domain.CritiqueReport {
	p := s.policy
	w := p.Weights

	if s.capability.IsCapability(query) {
		return domain.CritiqueReport{Score: p.CapabilityScore, Issues: []domain.Issue{}, Advice: AdviceWellFormed}
	}

	lowerDraft := strings.ToLower(draft)
	lowerQuery := strings.ToLower(query)
	score := p.BaseScore
	issues := []domain.Issue{}

	if !report.IsRelevant {
		if containsAny(lowerDraft, s.outOfScope) {
			score += w.ScopeReward
		} else {
			score -= w.ScopePenalty
			issues = append(issues, domain.IssueScopeNotAcknowledged)
		}
	}

	switch n := utf8.RuneCountInString(draft); {
	case n < p.MinLength:
		score -= w.ShortPenalty
		issues = append(issues, domain.IssueTooShort)
	case n > p.MaxLength:
		score -= w.LongPenalty
		issues = append(issues, domain.IssueTooLong)
	default:
		score += w.LengthReward
	}

	switch terms := countTerms(lowerDraft, s.technical); {
	case terms >= p.MinTechnicalTerms:
		score += w.TechnicalReward
	case terms == 0 && containsAny(lowerQuery, s.technical):
		score -= w.TechnicalPenalty
		issues = append(issues, domain.IssueMissingTechnical)
	}

	if containsAny(draft, p.StructureMarkers) {
		score += w.StructureReward
	} else {
		issues = append(issues, domain.IssueUnstructured)
	}

	ratio, checked := contextMatch(lowerDraft, query, p.SignificantTokenLength)
	if checked {
		if ratio >= p.ContextMatchRatio {
			score += w.ContextReward
		} else {
			score -= w.ContextPenalty
			issues = append(issues, domain.IssueOffTopic)
		}
	}

	if report.MaxSimilarity > p.HighConfidenceSimilarity {
		score += w.SimilarityBonus
	}

	return domain.CritiqueReport{
		Score:             clamp(round2(score), p.MinScore, p.MaxScore),
		Issues:            issues,
		Advice:            advice(issues),
		ContextMatchRatio: round2(ratio),
	}
}

func advice(issues []domain.Issue) string {
	if len(issues) == 0 {
		return AdviceWellFormed
	}
	has := func(want domain.Issue) bool {
		for _, i := range issues {
			if i == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(domain.IssueMissingTechnical):
		return AdviceTechnical
	case has(domain.IssueUnstructured):
		return AdviceStructure
	case has(domain.IssueTooShort):
		return AdviceExpand
	case has(domain.IssueTooLong):
		return AdviceCondense
	default:
		return AdviceFocus
	}
}

// contextMatch is the fraction of distinct significant query tokens found
// literally in the draft. checked is false when the query has none.
func contextMatch(lowerDraft, query string, minRunes int) (ratio float64, checked bool) {
	seen := make(map[string]struct{})
	var total, matched int
	for _, tok := range domain.Tokens(query) {
		if utf8.RuneCountInString(tok) < minRunes {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		total++
		if strings.Contains(lowerDraft, tok) {
			matched++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(matched) / float64(total), true
}

func countTerms(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
