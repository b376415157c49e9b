// Package app is the composition root shared by the server, the CLI and the SDK.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/config"
	"github.com/kailas-cloud/genesis/internal/db"
	"github.com/kailas-cloud/genesis/internal/db/memory"
	dbRedis "github.com/kailas-cloud/genesis/internal/db/redis"
	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/metrics"
	"github.com/kailas-cloud/genesis/internal/repository/corpus"
	"github.com/kailas-cloud/genesis/internal/repository/embcache"
	"github.com/kailas-cloud/genesis/internal/repository/interaction"
	openaiTransport "github.com/kailas-cloud/genesis/internal/transport/openai"
	chatuc "github.com/kailas-cloud/genesis/internal/usecase/chat"
	critiqueuc "github.com/kailas-cloud/genesis/internal/usecase/critique"
	embeddinguc "github.com/kailas-cloud/genesis/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/genesis/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/genesis/internal/usecase/health"
	"github.com/kailas-cloud/genesis/internal/usecase/index"
	pipelineuc "github.com/kailas-cloud/genesis/internal/usecase/pipeline"
	refineuc "github.com/kailas-cloud/genesis/internal/usecase/refine"
	responderuc "github.com/kailas-cloud/genesis/internal/usecase/responder"
	retrievaluc "github.com/kailas-cloud/genesis/internal/usecase/retrieval"
	"github.com/kailas-cloud/genesis/internal/usecase/scope"
)

const (
	providerOpenAI = "openai"
	providerLocal  = "local"
	providerNone   = "none"
)

// App holds the wired services.
type App struct {
	Corpus   *corpus.Store
	Index    *index.Index
	Pipeline *pipelineuc.Service
	Chat     *chatuc.Service
	Health   *healthuc.Service

	store db.Store
}

// Option overrides a provider picked from configuration.
type Option func(*overrides)

type overrides struct {
	embedder  domain.Embedder
	generator generationuc.Generator
}

// WithEmbedder replaces the configured embedding provider. The same
// embedder serves documents and queries.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithGenerator replaces the configured generation provider.
func WithGenerator(g generationuc.Generator) Option {
	return func(o *overrides) { o.generator = g }
}

// New wires every component from cfg. The index is built before New returns.
// Policy errors wrap domain.ErrConfiguration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	store, err := OpenStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	a, err := build(ctx, cfg, store, o, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg config.Config, store db.Store, o overrides, logger *zap.Logger) (*App, error) {
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	docs, err := LoadCorpus(cfg.Corpus)
	if err != nil {
		return nil, err
	}

	var emb Embedders
	if o.embedder != nil {
		emb = Embedders{Document: o.embedder, Query: o.embedder, Health: healthOf(o.embedder)}
	} else {
		emb, err = BuildEmbedders(cfg.Embedding, store, cfg.Storage.KeyPrefix, docs, logger)
		if err != nil {
			return nil, err
		}
	}

	idx, err := index.Build(ctx, docs.All(), emb.Document, index.Options{
		Concurrency:   cfg.Embedding.Concurrency,
		QueryEmbedder: emb.Query,
		Text:          domain.Document.IndexText,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Index built",
		zap.Int("documents", idx.Len()),
		zap.Int("dimension", idx.Dimension()),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	gen, genHealth := BuildGenerator(cfg.Generation, logger)
	if o.generator != nil {
		gen, genHealth = o.generator, healthOf(o.generator)
	}
	timeout := time.Duration(cfg.Generation.TimeoutSec) * time.Second

	matcher, err := scope.NewMatcher(scope.Lists{
		CapabilityPhrases: cfg.Scope.CapabilityPhrases,
		Denylist:          cfg.Scope.Denylist,
		Allowlist:         cfg.Scope.Allowlist,
	})
	if err != nil {
		return nil, err
	}

	retrievalSvc, err := retrievaluc.New(idx, RetrievalPolicy(cfg.Retrieval), logger)
	if err != nil {
		return nil, err
	}
	responderSvc, err := responderuc.New(
		generationuc.NewInstrumented(gen, generationuc.StageDraft, timeout, logger),
		matcher, ResponderPolicy(cfg), logger,
	)
	if err != nil {
		return nil, err
	}
	critiqueSvc, err := critiqueuc.New(matcher, CritiquePolicy(cfg.Critique))
	if err != nil {
		return nil, err
	}
	refineSvc, err := refineuc.New(
		generationuc.NewInstrumented(gen, generationuc.StageRefine, timeout, logger),
		refineuc.Policy{
			HighQualityThreshold: cfg.Refinement.HighQualityThreshold,
			Temperature:          cfg.Generation.RefineTemperature,
		}, logger,
	)
	if err != nil {
		return nil, err
	}
	pipelineSvc, err := pipelineuc.New(retrievalSvc, responderSvc, critiqueSvc, refineSvc, logger)
	if err != nil {
		return nil, err
	}

	repo := interaction.New(store, cfg.Storage.KeyPrefix,
		time.Duration(cfg.Storage.InteractionTTLHours)*time.Hour, cfg.Storage.InteractionHistory)

	healthSvc := healthuc.New(store).WithCriticalCheck("index", idx)
	if emb.Health != nil {
		healthSvc = healthSvc.WithCheck("embedding", emb.Health)
	}
	if genHealth != nil {
		healthSvc = healthSvc.WithCheck("generation", genHealth)
	}

	return &App{
		Corpus:   docs,
		Index:    idx,
		Pipeline: pipelineSvc,
		Chat:     chatuc.New(pipelineSvc, repo, logger),
		Health:   healthSvc,
		store:    store,
	}, nil
}

func healthOf(v any) domain.HealthChecker {
	if hc, ok := v.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}

// Close releases the database connection.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// OpenStore creates the interaction log / embedding cache backend.
// Valkey speaks the Redis protocol and uses the same driver.
func OpenStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewStore(), nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q: %w", cfg.Driver, domain.ErrConfiguration)
	}
}

// LoadCorpus returns the configured knowledge base, or the built-in one.
func LoadCorpus(cfg config.CorpusConfig) (*corpus.Store, error) {
	if cfg.Path == "" {
		return corpus.Default()
	}
	return corpus.Load(cfg.Path)
}

// Embedders are the document and query sides of one embedding provider.
type Embedders struct {
	Document domain.Embedder
	Query    domain.Embedder
	Health   domain.HealthChecker
}

// BuildEmbedders assembles the embedding chain for the configured provider.
// local: a TF-IDF model fitted on docs. openai: OpenAI -> Cached -> Instrumented -> Instruction.
func BuildEmbedders(
	cfg config.EmbeddingConfig,
	store db.Store,
	keyPrefix string,
	docs *corpus.Store,
	logger *zap.Logger,
) (Embedders, error) {
	switch cfg.Provider {
	case "", providerLocal:
		local := embeddinguc.NewLocalEmbedder()
		texts := make([]string, 0, docs.Len())
		for _, d := range docs.All() {
			texts = append(texts, d.IndexText())
		}
		if err := local.Prepare(texts); err != nil {
			return Embedders{}, fmt.Errorf("prepare local embedder: %w", err)
		}
		return Embedders{Document: local, Query: local, Health: local}, nil

	case providerOpenAI:
		base := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   providerOpenAI,
			Logger:     logger,
		})

		var embedder domain.Embedder = base
		if cfg.Cache && store != nil {
			embedder = embcache.New(base, store, embcache.Options{
				KeyPrefix: keyPrefix,
				Model:     cfg.Model,
			}, metrics.EmbeddingCacheTotal, logger)
		}
		embedder = embeddinguc.NewInstrumentedEmbedder(embedder, providerOpenAI, cfg.Model, cfg.Dimensions, logger)

		return Embedders{
			Document: withInstruction(embedder, cfg.DocumentInstruction),
			Query:    withInstruction(embedder, cfg.QueryInstruction),
			Health:   base,
		}, nil

	default:
		return Embedders{}, fmt.Errorf("unknown embedding provider %q: %w", cfg.Provider, domain.ErrConfiguration)
	}
}

// withInstruction is the outermost decorator, so the cache key includes the instruction.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// BuildGenerator returns the configured generation adapter and, for real
// providers, its health checker.
func BuildGenerator(cfg config.GenerationConfig, logger *zap.Logger) (generationuc.Generator, domain.HealthChecker) {
	if cfg.Provider != providerOpenAI {
		return generationuc.Unavailable{}, nil
	}
	g := openaiTransport.NewGenerator(&openaiTransport.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Provider:  providerOpenAI,
		Logger:    logger,
	})
	return g, g
}

// RetrievalPolicy maps the retrieval config section.
func RetrievalPolicy(c config.RetrievalConfig) retrievaluc.Policy {
	return retrievaluc.Policy{
		TopK:                c.TopK,
		SimilarityFloor:     c.SimilarityFloor,
		RelevanceThreshold:  c.RelevanceThreshold,
		AcceptanceThreshold: c.AcceptanceThreshold,
		Tiers:               retrievaluc.Tiers{Low: c.Tiers.Low, Medium: c.Tiers.Medium, High: c.Tiers.High},
	}
}

// ResponderPolicy maps the scope section plus the thresholds the responder reads.
func ResponderPolicy(c config.Config) responderuc.Policy {
	return responderuc.Policy{
		AssistantName:       c.Scope.AssistantName,
		Topics:              c.Scope.Topics,
		AcceptanceThreshold: c.Retrieval.AcceptanceThreshold,
		HighTier:            c.Retrieval.Tiers.High,
		Temperature:         c.Generation.DraftTemperature,
	}
}

// CritiquePolicy maps the critique config section.
func CritiquePolicy(c config.CritiqueConfig) critiqueuc.Policy {
	w := c.Weights
	return critiqueuc.Policy{
		BaseScore:                c.BaseScore,
		MinScore:                 c.MinScore,
		MaxScore:                 c.MaxScore,
		CapabilityScore:          c.CapabilityScore,
		MinLength:                c.MinLength,
		MaxLength:                c.MaxLength,
		MinTechnicalTerms:        c.MinTechnicalTerms,
		SignificantTokenLength:   c.SignificantTokenLength,
		ContextMatchRatio:        c.ContextMatchRatio,
		HighConfidenceSimilarity: c.HighConfidenceSimilarity,
		Weights: critiqueuc.Weights{
			ScopeReward:      w.ScopeReward,
			ScopePenalty:     w.ScopePenalty,
			ShortPenalty:     w.ShortPenalty,
			LongPenalty:      w.LongPenalty,
			LengthReward:     w.LengthReward,
			TechnicalReward:  w.TechnicalReward,
			TechnicalPenalty: w.TechnicalPenalty,
			StructureReward:  w.StructureReward,
			ContextReward:    w.ContextReward,
			ContextPenalty:   w.ContextPenalty,
			SimilarityBonus:  w.SimilarityBonus,
		},
		TechnicalTerms:    c.TechnicalTerms,
		StructureMarkers:  c.StructureMarkers,
		OutOfScopeMarkers: c.OutOfScopeMarkers,
	}
}
