package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

// Generator implements generation.Generator via chat completions.
type Generator struct {
	client    *openai.Client
	model     string
	maxTokens int
	user      string
	logger    *zap.Logger
}

// NewGenerator creates a chat-completion backed generator.
func NewGenerator(cfg *Config) *Generator {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Generator{
		client:    newClient(cfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		user:      cfg.User,
		logger:    l,
	}
}

// Generate sends the prompt and returns the first choice's content.
func (g *Generator) Generate(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    toChatMessages(messages),
		Temperature: temperature,
		User:        g.user,
	}
	if g.maxTokens > 0 {
		req.MaxTokens = g.maxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError("chat completion", err, domain.ErrGeneration)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", domain.ErrGeneration)
	}

	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content: %w", domain.ErrGeneration)
	}
	return text, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toChatMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
