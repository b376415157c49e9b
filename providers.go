package genesis

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Role identifies the author of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a generation prompt.
type Message struct {
	Role    Role
	Content string
}

// Generator produces text from an ordered prompt.
// An error sends the pipeline down its template fallback.
type Generator interface {
	Generate(ctx context.Context, messages []Message, temperature float32) (string, error)
}

// HealthChecker is optionally implemented by an Embedder or Generator.
// Its result shows up in Client.Health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// embedderAdapter bridges the public Embedder to domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	return checkHealth(ctx, a.inner)
}

// generatorAdapter bridges the public Generator to the internal one.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	msgs := make([]Message, len(messages))
	for i, m := range messages {
		msgs[i] = Message{Role: Role(m.Role), Content: m.Content}
	}
	text, err := a.inner.Generate(ctx, msgs, temperature)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return text, nil
}

func (a *generatorAdapter) HealthCheck(ctx context.Context) error {
	return checkHealth(ctx, a.inner)
}

// checkHealth passes when the provider has no health probe of its own.
func checkHealth(ctx context.Context, v any) error {
	if hc, ok := v.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
