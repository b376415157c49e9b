package chi

import (
	"time"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// ErrorCode is the machine-readable error identifier of an ErrorResponse.
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeInteractionNotFound ErrorCode = "interaction_not_found"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed    ErrorCode = "method_not_allowed"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// Improvement describes what the refinement step did.
type Improvement struct {
	Original  string `json:"original"`
	Improved  string `json:"improved"`
	Refined   bool   `json:"refined"`
	Fallback  bool   `json:"fallback"`
	Directive string `json:"directive,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	RequestID     string                 `json:"request_id"`
	FinalResponse string                 `json:"final_response"`
	Draft         string                 `json:"draft"`
	Outcome       domain.Outcome         `json:"outcome"`
	RAGContext    domain.RetrievalReport `json:"rag_context"`
	CriticReview  domain.CritiqueReport  `json:"critic_review"`
	Improvement   Improvement            `json:"improvement"`
	DurationMs    int64                  `json:"duration_ms"`
	Timestamp     time.Time              `json:"timestamp"`
}

// InteractionListResponse is the body of GET /interactions.
type InteractionListResponse struct {
	Interactions []domain.Interaction `json:"interactions"`
	Count        int                  `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

func chatToResponse(res domain.PipelineResult, at time.Time) ChatResponse {
	return ChatResponse{
		RequestID:     res.RequestID,
		FinalResponse: res.FinalResponse,
		Draft:         res.Draft.Text,
		Outcome:       res.Draft.Outcome,
		RAGContext:    res.Retrieval,
		CriticReview:  res.Critique,
		Improvement: Improvement{
			Original:  res.Draft.Text,
			Improved:  res.FinalResponse,
			Refined:   res.Refinement.Refined,
			Fallback:  res.Refinement.Fallback,
			Directive: res.Refinement.Directive,
		},
		DurationMs: res.Duration.Milliseconds(),
		Timestamp:  at.UTC(),
	}
}
