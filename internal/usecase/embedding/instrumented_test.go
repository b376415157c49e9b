package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// fixedEmbedder returns vec for every text, with batch support.
type fixedEmbedder struct {
	vec        []float32
	tokens     int
	err        error
	short      bool
	batchSizes []int
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, PromptTokens: f.tokens, TotalTokens: f.tokens}, nil
}

func (f *fixedEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := domain.BatchEmbeddingResult{PromptTokens: f.tokens * len(texts), TotalTokens: f.tokens * len(texts)}
	for range n {
		out.Embeddings = append(out.Embeddings, f.vec)
	}
	return out, nil
}

// singleOnly hides BatchEmbed.
type singleOnly struct {
	inner *fixedEmbedder
	calls int
}

func (s *singleOnly) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return s.inner.Embed(ctx, text)
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestInstrumentedEmbedder_Embed(t *testing.T) {
	l, logs := observed()
	p := NewInstrumentedEmbedder(&fixedEmbedder{vec: []float32{0.1, 0.2, 0.3}, tokens: 7}, "openai", "m", 3, l)

	res, err := p.Embed(context.Background(), "hola")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 7 {
		t.Errorf("unexpected result %+v", res)
	}
	entries := logs.FilterMessage("Embedding request completed").All()
	if len(entries) != 1 || entries[0].ContextMap()["total_tokens"] != int64(7) {
		t.Errorf("expected one completion log with tokens, got %v", logs.All())
	}
}

func TestInstrumentedEmbedder_EmbedError(t *testing.T) {
	l, logs := observed()
	inner := &fixedEmbedder{err: fmt.Errorf("api error: %w", domain.ErrEmbeddingProviderError)}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 0, l)

	_, err := p.Embed(context.Background(), "hola")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if logs.FilterMessage("Embedding request failed").Len() != 1 {
		t.Errorf("expected failure log, got %v", logs.All())
	}
}

func TestInstrumentedEmbedder_DimensionGuard(t *testing.T) {
	p := NewInstrumentedEmbedder(&fixedEmbedder{vec: []float32{0.1, 0.2}}, "openai", "m", 3, nil)

	if _, err := p.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("Embed: expected dimension error, got %v", err)
	}
	if _, err := p.BatchEmbed(context.Background(), []string{"a"}); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("BatchEmbed: expected dimension error, got %v", err)
	}

	unbounded := NewInstrumentedEmbedder(&fixedEmbedder{vec: []float32{0.1, 0.2}}, "openai", "m", 0, nil)
	if _, err := unbounded.Embed(context.Background(), "x"); err != nil {
		t.Errorf("zero dimensions disables the guard: %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Chunks(t *testing.T) {
	inner := &fixedEmbedder{vec: []float32{1}, tokens: 1}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 1, nil)

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != len(texts) || res.TotalTokens != len(texts) {
		t.Errorf("expected %d embeddings and tokens, got %d / %d", len(texts), len(res.Embeddings), res.TotalTokens)
	}
	if len(inner.batchSizes) != 2 || inner.batchSizes[0] != DefaultMaxAPIBatchSize || inner.batchSizes[1] != 10 {
		t.Errorf("unexpected chunking: %v", inner.batchSizes)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Failures(t *testing.T) {
	tests := []struct {
		name         string
		inner        *fixedEmbedder
		wantSentinel bool
	}{
		{"inner error", &fixedEmbedder{err: errors.New("api down")}, false},
		{"count mismatch", &fixedEmbedder{vec: []float32{1}, short: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewInstrumentedEmbedder(tc.inner, "openai", "m", 0, nil)
			_, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantSentinel && !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
			}
		})
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallbackAndEmpty(t *testing.T) {
	inner := &singleOnly{inner: &fixedEmbedder{vec: []float32{0.5}, tokens: 2}}
	p := NewInstrumentedEmbedder(inner, "local", "tfidf", 1, nil)

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || res.TotalTokens != 4 {
		t.Errorf("expected two single calls and summed tokens, got calls=%d tokens=%d", inner.calls, res.TotalTokens)
	}

	empty, err := p.BatchEmbed(context.Background(), nil)
	if err != nil || empty.Embeddings != nil {
		t.Errorf("empty input: %+v, %v", empty, err)
	}
}
