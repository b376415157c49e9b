package chi

import (
	"context"

	"github.com/kailas-cloud/genesis/internal/domain"
	chatuc "github.com/kailas-cloud/genesis/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/genesis/internal/usecase/health"
)

// ChatService answers messages and serves the interaction history.
type ChatService interface {
	Ask(ctx context.Context, req chatuc.Request) (domain.PipelineResult, error)
	Get(ctx context.Context, requestID string) (domain.Interaction, error)
	Recent(ctx context.Context, limit int) ([]domain.Interaction, error)
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
