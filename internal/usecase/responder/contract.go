package responder

import (
	"context"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Generator produces the draft text. Failures wrap domain.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, messages []domain.Message, temperature float32) (string, error)
}

// Scope answers the keyword questions of the scope gate.
type Scope interface {
	IsCapability(query string) bool
	Denied(query string) (string, bool)
	Allowed(query string) (string, bool)
}
