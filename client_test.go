package genesis

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/genesis/internal/domain"
	chatuc "github.com/kailas-cloud/genesis/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/genesis/internal/usecase/health"
)

const localConfigPath = "config/local.yaml"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_DRIVER", "EMBEDDING_PROVIDER", "GENERATION_PROVIDER", "CORPUS_PATH"} {
		t.Setenv(k, "")
	}
}

type mockChat struct {
	askFn    func(ctx context.Context, req chatuc.Request) (domain.PipelineResult, error)
	getFn    func(ctx context.Context, id string) (domain.Interaction, error)
	recentFn func(ctx context.Context, limit int) ([]domain.Interaction, error)
}

func (m *mockChat) Ask(ctx context.Context, req chatuc.Request) (domain.PipelineResult, error) {
	return m.askFn(ctx, req)
}

func (m *mockChat) Get(ctx context.Context, id string) (domain.Interaction, error) {
	return m.getFn(ctx, id)
}

func (m *mockChat) Recent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	return m.recentFn(ctx, limit)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockGenerator struct {
	got []Message
	err error
}

func (m *mockGenerator) Generate(_ context.Context, messages []Message, _ float32) (string, error) {
	m.got = messages
	if m.err != nil {
		return "", m.err
	}
	return "ok", nil
}

type unhealthyGenerator struct {
	mockGenerator
}

func (*unhealthyGenerator) HealthCheck(_ context.Context) error { return errors.New("quota exhausted") }

func TestNew_MissingConfigFile(t *testing.T) {
	_, err := New(context.Background(), WithConfigFile("config/nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_DriverOverride(t *testing.T) {
	clearEnv(t)
	cc := &clientConfig{}
	WithConfigFile(localConfigPath).apply(cc)
	WithValkey("localhost:6379", "secret").apply(cc)

	cfg, err := loadConfig(cc)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Database.Driver != "valkey" || cfg.Database.Addrs[0] != "localhost:6379" || cfg.Database.Password != "secret" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	clearEnv(t)
	cc := &clientConfig{configPath: localConfigPath, driver: "redis"}

	_, err := loadConfig(cc)
	if err == nil {
		t.Fatal("expected error for redis without addresses")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "pw").apply(cfg)
	if cfg.driver != "redis" || cfg.password != "pw" {
		t.Errorf("unexpected redis config %+v", cfg)
	}

	WithMemory().apply(cfg)
	if cfg.driver != "memory" || cfg.addrs != nil || cfg.password != "" {
		t.Errorf("memory should clear connection settings, got %+v", cfg)
	}

	WithEnv("prod").apply(cfg)
	if cfg.env != "prod" {
		t.Errorf("env = %q, want prod", cfg.env)
	}

	gen := &mockGenerator{}
	WithGenerator(gen).apply(cfg)
	if cfg.generator != gen {
		t.Error("generator not set")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{1, 2, 3}, PromptTokens: 5, TotalTokens: 10}, nil
		},
	}}

	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 10 {
		t.Errorf("unexpected result %+v", result)
	}
	if err := adapter.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without a probe should be healthy: %v", err)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}}

	_, err := adapter.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestGeneratorAdapter(t *testing.T) {
	gen := &mockGenerator{}
	adapter := &generatorAdapter{inner: gen}

	text, err := adapter.Generate(context.Background(), []domain.Message{
		domain.SystemMessage("sys"),
		domain.UserMessage("q"),
	}, 0.7)
	if err != nil || text != "ok" {
		t.Fatalf("Generate = %q, %v", text, err)
	}
	if len(gen.got) != 2 || gen.got[0].Role != RoleSystem || gen.got[1].Content != "q" {
		t.Errorf("unexpected converted messages %+v", gen.got)
	}
}

func TestGeneratorAdapter_Error(t *testing.T) {
	adapter := &generatorAdapter{inner: &mockGenerator{err: errors.New("timeout")}}

	_, err := adapter.Generate(context.Background(), nil, 0)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestClient_Ask(t *testing.T) {
	var got chatuc.Request
	c := &Client{chatSvc: &mockChat{
		askFn: func(_ context.Context, req chatuc.Request) (domain.PipelineResult, error) {
			got = req
			return domain.PipelineResult{
				RequestID:     "req-1",
				FinalResponse: "final",
				Draft:         domain.Draft{Text: "draft", Outcome: domain.OutcomeGenerated, Generated: true},
			}, nil
		},
	}}

	ans, err := c.Ask(context.Background(), Request{Message: "hola", UserID: "u1", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got.Message != "hola" || got.UserID != "u1" || got.RequestID != "req-1" {
		t.Errorf("request not passed through: %+v", got)
	}
	if ans.Response != "final" || ans.Outcome != OutcomeGenerated || !ans.Generated {
		t.Errorf("unexpected answer %+v", ans)
	}
}

func TestClient_Ask_InvalidQuery(t *testing.T) {
	c := &Client{chatSvc: &mockChat{
		askFn: func(_ context.Context, _ chatuc.Request) (domain.PipelineResult, error) {
			return domain.PipelineResult{}, domain.ErrInvalidQuery
		},
	}}

	_, err := c.Ask(context.Background(), Request{Message: " "})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestClient_Interaction_NotFound(t *testing.T) {
	c := &Client{chatSvc: &mockChat{
		getFn: func(_ context.Context, _ string) (domain.Interaction, error) {
			return domain.Interaction{}, domain.ErrNotFound
		},
	}}

	_, err := c.Interaction(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_History(t *testing.T) {
	var gotLimit int
	c := &Client{chatSvc: &mockChat{
		recentFn: func(_ context.Context, limit int) ([]domain.Interaction, error) {
			gotLimit = limit
			return []domain.Interaction{{RequestID: "b"}, {RequestID: "a"}}, nil
		},
	}}

	items, err := c.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if gotLimit != 5 || len(items) != 2 || items[0].RequestID != "b" {
		t.Errorf("unexpected history %+v (limit %d)", items, gotLimit)
	}
}

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"generation": healthuc.CheckError},
	}}}

	r := c.Health(context.Background())
	if r.Status != "degraded" || r.Checks["generation"] != "error" {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestClient_Close_NilApp(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestNew_LocalStack(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	c, err := New(ctx, WithConfigFile(localConfigPath), WithMemory(), WithPrometheus(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ans, err := c.Ask(ctx, Request{Message: "Hola", UserID: "u1"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Outcome != OutcomeCapability || ans.Response == "" {
		t.Fatalf("unexpected answer %+v", ans)
	}

	in, err := c.Interaction(ctx, ans.RequestID)
	if err != nil {
		t.Fatalf("Interaction: %v", err)
	}
	if in.UserID != "u1" || in.Response != ans.Response {
		t.Errorf("unexpected interaction %+v", in)
	}

	if r := c.Health(ctx); r.Status != "ok" {
		t.Errorf("expected healthy local stack, got %+v", r)
	}
}

func TestNew_WithUnhealthyGenerator(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	c, err := New(ctx, WithConfigFile(localConfigPath), WithGenerator(&unhealthyGenerator{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	r := c.Health(ctx)
	if r.Status != "degraded" || r.Checks["generation"] != "error" {
		t.Errorf("expected degraded with failing generation check, got %+v", r)
	}
}
