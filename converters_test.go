package genesis

import (
	"testing"
	"time"

	"github.com/kailas-cloud/genesis/internal/domain"
)

func TestAnswerFromDomain(t *testing.T) {
	res := domain.PipelineResult{
		RequestID:     "req-1",
		Query:         "¿Qué es Docker?",
		FinalResponse: "🔄 MEJORADO: draft",
		Draft:         domain.Draft{Text: "draft", Outcome: domain.OutcomeGenerated},
		Retrieval: domain.RetrievalReport{
			Results: []domain.RetrievalResult{
				{Content: "Docker es…", Category: "docker", Tags: []string{"containers"}, Similarity: 0.62},
			},
			MaxSimilarity:  0.62,
			ResultsCount:   1,
			IsRelevant:     true,
			RelevanceLevel: domain.RelevanceHigh,
		},
		Critique: domain.CritiqueReport{
			Score:  0.55,
			Issues: []domain.Issue{domain.IssueTooShort, domain.IssueUnstructured},
			Advice: "Organiza la respuesta con puntos o listas numeradas.",
		},
		Refinement: domain.Refinement{Text: "🔄 MEJORADO: draft", Refined: true, Fallback: true, Directive: "x"},
		Duration:   42 * time.Millisecond,
	}

	ans := answerFromDomain(res)

	if ans.Response != res.FinalResponse || ans.Draft != "draft" || ans.Generated {
		t.Errorf("unexpected texts %+v", ans)
	}
	if !ans.Refined || !ans.Fallback || ans.Directive != "x" {
		t.Errorf("refinement flags not mapped: %+v", ans)
	}
	if len(ans.Retrieval.Results) != 1 || ans.Retrieval.Results[0].Category != "docker" ||
		ans.Retrieval.RelevanceLevel != "high" {
		t.Errorf("unexpected retrieval %+v", ans.Retrieval)
	}
	if len(ans.Critique.Issues) != 2 || ans.Critique.Issues[0] != string(domain.IssueTooShort) {
		t.Errorf("unexpected critique issues %v", ans.Critique.Issues)
	}
	if ans.Duration != 42*time.Millisecond {
		t.Errorf("duration = %v", ans.Duration)
	}
}

func TestInteractionFromDomain(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := interactionFromDomain(domain.Interaction{
		RequestID:     "req-2",
		UserID:        "u1",
		Message:       "pizza",
		Draft:         "🔍 **Fuera de mi ámbito especializado**",
		Outcome:       domain.OutcomeOutOfScope,
		FinalResponse: "🔍 **Fuera de mi ámbito especializado**",
		Retrieval:     domain.EmptyReport("pizza", nil),
		Timestamp:     at,
	})

	if in.Outcome != OutcomeOutOfScope || in.Response != in.Draft || !in.Timestamp.Equal(at) {
		t.Errorf("unexpected interaction %+v", in)
	}
	if in.Retrieval.Results == nil || len(in.Retrieval.Results) != 0 {
		t.Errorf("empty retrieval should map to an empty slice, got %#v", in.Retrieval.Results)
	}
	if in.Critique.Issues == nil {
		t.Error("issues should be an empty slice, not nil")
	}
}
