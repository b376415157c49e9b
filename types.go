package genesis

import (
	"time"

	"github.com/kailas-cloud/genesis/internal/domain"
	healthuc "github.com/kailas-cloud/genesis/internal/usecase/health"
)

// Outcome is the branch the draft responder took.
type Outcome string

const (
	OutcomeCapability Outcome = "capability"
	OutcomeOutOfScope Outcome = "out_of_scope"
	OutcomeGenerated  Outcome = "generated"
)

// Request is one user message. Empty RequestID gets a generated UUID.
type Request struct {
	Message   string
	UserID    string
	RequestID string
}

// Result is a single retrieved knowledge-base entry.
type Result struct {
	Content    string
	Category   string
	Tags       []string
	Similarity float64
}

// Retrieval is the classified retrieval for a query.
// Error is set when the index failed and the pipeline degraded.
type Retrieval struct {
	Results        []Result
	MaxSimilarity  float64
	IsRelevant     bool
	RelevanceLevel string
	Error          string
}

// Critique is the heuristic quality assessment of the draft.
type Critique struct {
	Score             float64
	Issues            []string
	Advice            string
	ContextMatchRatio float64
}

// Answer is everything one pipeline run produced.
type Answer struct {
	RequestID string
	Query     string
	Response  string
	Draft     string
	Outcome   Outcome
	// Generated is false when a template replaced the model output.
	Generated bool
	Retrieval Retrieval
	Critique  Critique
	Refined   bool
	Fallback  bool
	Directive string
	Duration  time.Duration
}

// Interaction is a recorded request from the history.
type Interaction struct {
	RequestID string
	UserID    string
	Message   string
	Draft     string
	Outcome   Outcome
	Response  string
	Retrieval Retrieval
	Critique  Critique
	Timestamp time.Time
}

// HealthReport is the aggregated component status: "ok", "degraded" or "error".
type HealthReport struct {
	Status string
	Checks map[string]string
}

func answerFromDomain(r domain.PipelineResult) Answer {
	return Answer{
		RequestID: r.RequestID,
		Query:     r.Query,
		Response:  r.FinalResponse,
		Draft:     r.Draft.Text,
		Outcome:   Outcome(r.Draft.Outcome),
		Generated: r.Draft.Generated,
		Retrieval: retrievalFromDomain(r.Retrieval),
		Critique:  critiqueFromDomain(r.Critique),
		Refined:   r.Refinement.Refined,
		Fallback:  r.Refinement.Fallback,
		Directive: r.Refinement.Directive,
		Duration:  r.Duration,
	}
}

func interactionFromDomain(in domain.Interaction) Interaction {
	return Interaction{
		RequestID: in.RequestID,
		UserID:    in.UserID,
		Message:   in.Message,
		Draft:     in.Draft,
		Outcome:   Outcome(in.Outcome),
		Response:  in.FinalResponse,
		Retrieval: retrievalFromDomain(in.Retrieval),
		Critique:  critiqueFromDomain(in.Critique),
		Timestamp: in.Timestamp,
	}
}

func retrievalFromDomain(r domain.RetrievalReport) Retrieval {
	results := make([]Result, len(r.Results))
	for i, res := range r.Results {
		results[i] = Result{
			Content:    res.Content,
			Category:   res.Category,
			Tags:       res.Tags,
			Similarity: res.Similarity,
		}
	}
	return Retrieval{
		Results:        results,
		MaxSimilarity:  r.MaxSimilarity,
		IsRelevant:     r.IsRelevant,
		RelevanceLevel: string(r.RelevanceLevel),
		Error:          r.Error,
	}
}

func critiqueFromDomain(c domain.CritiqueReport) Critique {
	issues := make([]string, len(c.Issues))
	for i, is := range c.Issues {
		issues[i] = string(is)
	}
	return Critique{
		Score:             c.Score,
		Issues:            issues,
		Advice:            c.Advice,
		ContextMatchRatio: c.ContextMatchRatio,
	}
}

func healthFromReport(r healthuc.Report) HealthReport {
	checks := make(map[string]string, len(r.Checks))
	for name, res := range r.Checks {
		checks[name] = string(res)
	}
	return HealthReport{Status: string(r.Status), Checks: checks}
}
