// Package index is an exact, in-memory nearest-neighbour index over the
// knowledge base. It is built once and read-only afterwards.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

// Hit is one document with its squared Euclidean distance to the query.
type Hit struct {
	Document domain.Document
	Distance float64
}

// Options tune index construction.
type Options struct {
	// Concurrency bounds parallel Embed calls when the embedder has no batch API.
	Concurrency int
	// QueryEmbedder embeds queries; defaults to the document embedder.
	QueryEmbedder domain.Embedder
	// Text selects what is embedded per document; defaults to its content.
	Text   func(domain.Document) string
	Logger *zap.Logger
}

// Index is a flat L2 index. Safe for concurrent queries.
type Index struct {
	docs    []domain.Document
	vectors [][]float32
	dim     int
	query   domain.Embedder
	logger  *zap.Logger
}

// Build embeds every document once, in document order. Any failure is fatal
// and wraps domain.ErrRetrieval.
func Build(ctx context.Context, docs []domain.Document, embedder domain.Embedder, opts Options) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("build index: no documents: %w", domain.ErrRetrieval)
	}
	if embedder == nil {
		return nil, fmt.Errorf("build index: nil embedder: %w", domain.ErrRetrieval)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.QueryEmbedder == nil {
		opts.QueryEmbedder = embedder
	}
	if opts.Text == nil {
		opts.Text = func(d domain.Document) string { return d.Content }
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = opts.Text(d)
	}

	vectors, err := embedAll(ctx, embedder, texts, opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("build index: %w: %w", domain.ErrRetrieval, err)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("build index: empty embedding: %w", domain.ErrRetrieval)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("build index: document %q has %d dimensions, want %d: %w",
				docs[i].ID, len(v), dim, domain.ErrRetrieval)
		}
	}

	stored := make([]domain.Document, len(docs))
	for i, d := range docs {
		stored[i] = d.Clone()
	}

	metrics.IndexDocuments.Set(float64(len(stored)))
	opts.Logger.Info("Embedding index built",
		zap.Int("documents", len(stored)),
		zap.Int("dimensions", dim),
	)

	return &Index{
		docs:    stored,
		vectors: vectors,
		dim:     dim,
		query:   opts.QueryEmbedder,
		logger:  opts.Logger,
	}, nil
}

func embedAll(ctx context.Context, e domain.Embedder, texts []string, concurrency int) ([][]float32, error) {
	if be, ok := e.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch embed: %w", err)
		}
		if len(res.Embeddings) != len(texts) {
			return nil, fmt.Errorf("batch embed: got %d vectors for %d documents", len(res.Embeddings), len(texts))
		}
		return res.Embeddings, nil
	}

	if concurrency < 1 {
		concurrency = 1
	}
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, text := range texts {
		g.Go(func() error {
			res, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed document %d: %w", i, err)
			}
			vectors[i] = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.docs) }

// Dimension returns the vector size.
func (x *Index) Dimension() int { return x.dim }

// Query returns up to topK nearest documents by ascending distance, ties
// broken by insertion order. A query whose vector carries no signal (zero
// norm) matches nothing. All failures wrap domain.ErrRetrieval.
func (x *Index) Query(ctx context.Context, text string, topK int) (hits []Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("query index: panic: %v: %w", r, domain.ErrRetrieval)
		}
	}()

	if topK < 1 {
		return nil, fmt.Errorf("query index: top_k must be >= 1, got %d: %w", topK, domain.ErrRetrieval)
	}

	res, err := x.query.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("query index: %w: %w", domain.ErrRetrieval, err)
	}
	q := res.Embedding
	if len(q) != x.dim {
		return nil, fmt.Errorf("query index: query has %d dimensions, want %d: %w",
			len(q), x.dim, domain.ErrRetrieval)
	}
	if isZero(q) {
		return []Hit{}, nil
	}

	all := make([]Hit, len(x.docs))
	for i, v := range x.vectors {
		d := squaredL2(q, v)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("query index: non-finite distance for %q: %w",
				x.docs[i].ID, domain.ErrRetrieval)
		}
		all[i] = Hit{Document: x.docs[i], Distance: d}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })

	if topK > len(all) {
		topK = len(all)
	}
	hits = all[:topK]
	for i := range hits {
		hits[i].Document = hits[i].Document.Clone()
	}
	return hits, nil
}

var errNoDocuments = errors.New("index is empty")

// HealthCheck reports whether the index can serve queries.
func (x *Index) HealthCheck(_ context.Context) error {
	if x == nil || len(x.docs) == 0 {
		return errNoDocuments
	}
	return nil
}

func squaredL2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
