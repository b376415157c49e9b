package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/db/memory"
	"github.com/kailas-cloud/genesis/internal/domain"
)

// lengthEmbedder returns [len(text)] and one token per call, with batch support.
type lengthEmbedder struct {
	calls      int
	batchCalls int
	seen       []string
	err        error
	short      bool // batch returns one vector too few
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	e.seen = append(e.seen, text)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: 1, TotalTokens: 1}, nil
}

func (e *lengthEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.batchCalls++
	e.seen = append(e.seen, texts...)
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := domain.BatchEmbeddingResult{PromptTokens: len(texts), TotalTokens: len(texts)}
	for _, t := range texts {
		out.Embeddings = append(out.Embeddings, []float32{float32(len(t))})
	}
	if e.short {
		out.Embeddings = out.Embeddings[:len(out.Embeddings)-1]
	}
	return out, nil
}

// singleEmbedder has no batch support.
type singleEmbedder struct {
	calls int
}

func (s *singleEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) SetWithTTL(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return errors.New("connection refused")
}

func newCache(t *testing.T, inner domain.Embedder) (*CachedEmbedder, *memory.Store, *prometheus.CounterVec) {
	t.Helper()
	s := memory.NewStore()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_embedding_cache_total"}, []string{"result"})
	ce := New(inner, s, Options{KeyPrefix: "genesis:", Model: "test-model", TTL: time.Hour}, counter, zap.NewNop())
	return ce, s, counter
}
