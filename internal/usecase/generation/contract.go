package generation

import (
	"context"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Generator produces text from an ordered prompt. Failures wrap domain.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, messages []domain.Message, temperature float32) (string, error)
}
