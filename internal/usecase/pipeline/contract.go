package pipeline

import (
	"context"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Retriever classifies the corpus against a query.
type Retriever interface {
	Classify(ctx context.Context, query string, topK int) domain.RetrievalReport
}

// Responder produces the draft answer.
type Responder interface {
	Respond(ctx context.Context, query string, report domain.RetrievalReport) domain.Draft
	OutOfScopeReply(query string) string
}

// Critic scores a draft.
type Critic interface {
	Critique(draft, query string, report domain.RetrievalReport) domain.CritiqueReport
}

// Refiner turns a draft and its critique into the final response.
type Refiner interface {
	Refine(ctx context.Context, draft string, critique domain.CritiqueReport, query string) domain.Refinement
}
