package chat

import (
	"context"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Processor runs the answer pipeline.
type Processor interface {
	Process(ctx context.Context, query, requestID string) domain.PipelineResult
}

// InteractionRepo persists and reads interaction records.
type InteractionRepo interface {
	Save(ctx context.Context, in domain.Interaction) error
	Get(ctx context.Context, requestID string) (domain.Interaction, error)
	Recent(ctx context.Context, limit int) ([]domain.Interaction, error)
}
