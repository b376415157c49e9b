package domain

import "time"

// Outcome is the branch the draft responder took for a query.
type Outcome string

const (
	// OutcomeCapability is the fixed reply about the assistant itself.
	OutcomeCapability Outcome = "capability"
	// OutcomeOutOfScope is the templated refusal for unrelated queries.
	OutcomeOutOfScope Outcome = "out_of_scope"
	// OutcomeGenerated is the normal retrieval-grounded answer.
	OutcomeGenerated Outcome = "generated"
)

// Draft is the first answer, before critique-driven refinement.
// Generated is false when the deterministic fallback replaced a failed generation.
type Draft struct {
	Text      string  `json:"text"`
	Outcome   Outcome `json:"outcome"`
	Generated bool    `json:"generated"`
}

// Refinement is the outcome of the improvement step.
type Refinement struct {
	Text      string `json:"text"`
	Refined   bool   `json:"refined"`
	Directive string `json:"directive,omitempty"`
	Fallback  bool   `json:"fallback"`
}

// PipelineResult is everything one pipeline run produced.
type PipelineResult struct {
	RequestID     string          `json:"request_id"`
	Query         string          `json:"query"`
	FinalResponse string          `json:"final_response"`
	Draft         Draft           `json:"draft"`
	Retrieval     RetrievalReport `json:"retrieval"`
	Critique      CritiqueReport  `json:"critique"`
	Refinement    Refinement      `json:"refinement"`
	Duration      time.Duration   `json:"duration"`
}

// Interaction is the persisted record of one request.
type Interaction struct {
	RequestID     string          `json:"request_id"`
	UserID        string          `json:"user_id,omitempty"`
	Message       string          `json:"message"`
	Retrieval     RetrievalReport `json:"retrieval"`
	Draft         string          `json:"draft"`
	Outcome       Outcome         `json:"outcome"`
	Critique      CritiqueReport  `json:"critique"`
	FinalResponse string          `json:"final_response"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewInteraction builds the persisted record from a pipeline result.
func NewInteraction(res PipelineResult, userID string, at time.Time) Interaction {
	return Interaction{
		RequestID:     res.RequestID,
		UserID:        userID,
		Message:       res.Query,
		Retrieval:     res.Retrieval,
		Draft:         res.Draft.Text,
		Outcome:       res.Draft.Outcome,
		Critique:      res.Critique,
		FinalResponse: res.FinalResponse,
		Timestamp:     at.UTC(),
	}
}
