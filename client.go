package genesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/app"
	"github.com/kailas-cloud/genesis/internal/config"
	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/metrics"
	chatuc "github.com/kailas-cloud/genesis/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/genesis/internal/usecase/health"
)

// Internal interfaces for substitution in tests.
type chatUseCase interface {
	Ask(ctx context.Context, req chatuc.Request) (domain.PipelineResult, error)
	Get(ctx context.Context, requestID string) (domain.Interaction, error)
	Recent(ctx context.Context, limit int) ([]domain.Interaction, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the genesis SDK entry point.
type Client struct {
	app       *app.App
	chatSvc   chatUseCase
	healthSvc healthUseCase
}

// New loads the configuration, connects the history store and builds the
// knowledge-base index. The context bounds the readiness check and indexing.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg, err := loadConfig(cc)
	if err != nil {
		return nil, err
	}

	if cc.metricsReg != nil {
		if err := metrics.RegisterOn(cc.metricsReg); err != nil {
			return nil, fmt.Errorf("genesis: %w", err)
		}
	}

	var appOpts []app.Option
	if cc.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: cc.embedder}))
	}
	if cc.generator != nil {
		appOpts = append(appOpts, app.WithGenerator(&generatorAdapter{inner: cc.generator}))
	}

	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a, err := app.New(ctx, cfg, logger, appOpts...)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return &Client{app: a, chatSvc: a.Chat, healthSvc: a.Health}, nil
}

func loadConfig(cc *clientConfig) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if cc.configPath != "" {
		cfg, err = config.LoadFile(cc.configPath)
	} else {
		env := cc.env
		if env == "" {
			env = config.GetEnv()
		}
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("genesis: %w", err)
	}

	if cc.driver != "" {
		cfg.Database.Driver = cc.driver
		cfg.Database.Addrs = cc.addrs
		cfg.Database.Password = cc.password
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("genesis: %w", err)
		}
	}
	return cfg, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Ask runs one message through the pipeline and records it in the history.
// Only an invalid message fails; provider outages degrade to templates.
func (c *Client) Ask(ctx context.Context, req Request) (Answer, error) {
	res, err := c.chatSvc.Ask(ctx, chatuc.Request{
		Message:   req.Message,
		UserID:    req.UserID,
		RequestID: req.RequestID,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return answerFromDomain(res), nil
}

// Interaction returns one recorded request by its request ID.
func (c *Client) Interaction(ctx context.Context, requestID string) (Interaction, error) {
	in, err := c.chatSvc.Get(ctx, requestID)
	if err != nil {
		return Interaction{}, fmt.Errorf("get interaction: %w", err)
	}
	return interactionFromDomain(in), nil
}

// History returns the most recent interactions, newest first.
// Non-positive limits use the default page size.
func (c *Client) History(ctx context.Context, limit int) ([]Interaction, error) {
	items, err := c.chatSvc.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	out := make([]Interaction, len(items))
	for i, in := range items {
		out[i] = interactionFromDomain(in)
	}
	return out, nil
}

// Health probes the store, the index and the providers.
func (c *Client) Health(ctx context.Context) HealthReport {
	return healthFromReport(c.healthSvc.Check(ctx))
}
