package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/metrics"
)

// LocalProvider is the provider label used for metrics and logs.
const LocalProvider = "local"

const localModel = "tfidf"

var tokenPattern = regexp.MustCompile(`\p{L}+`)

// LocalEmbedder is a TF-IDF vectorizer fitted on the knowledge base. It needs
// no network access, so the service runs without an embedding provider.
// Output vectors are L2-normalized; text with no known term yields the zero vector.
type LocalEmbedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

// NewLocalEmbedder creates an unprepared local embedder.
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{
		vocabulary: make(map[string]int),
		stopwords:  defaultStopwords(),
	}
}

// Prepare builds the vocabulary and smoothed IDF weights from corpus.
func (e *LocalEmbedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	e.mu.Lock()
	e.vocabulary = vocab
	e.idf = idf
	e.mu.Unlock()
	return nil
}

// Dimension returns the vector size, 0 before Prepare.
func (e *LocalEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idf)
}

// Embed implements domain.Embedder.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("local embed: %w", err)
	}

	start := time.Now()
	vec, tokens, err := e.vectorize(text)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(LocalProvider, localModel, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(LocalProvider, localModel, "not_prepared").Inc()
		return domain.EmbeddingResult{}, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(LocalProvider, localModel, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(LocalProvider, localModel).Observe(time.Since(start).Seconds())

	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *LocalEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, e, texts)
}

// HealthCheck reports whether Prepare has run.
func (e *LocalEmbedder) HealthCheck(_ context.Context) error {
	if e.Dimension() == 0 {
		return fmt.Errorf("tfidf embedder not prepared: %w", domain.ErrEmbeddingProviderError)
	}
	return nil
}

func (e *LocalEmbedder) vectorize(text string) ([]float32, int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.idf) == 0 {
		return nil, 0, fmt.Errorf("tfidf embedder not prepared: %w", domain.ErrEmbeddingProviderError)
	}

	tokens := e.tokenize(text)
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}

	vec := make([]float32, len(e.idf))
	if total == 0 {
		return vec, len(tokens), nil
	}

	weights := make([]float64, len(e.idf))
	var sum float64
	for idx, count := range tf {
		w := float64(count) / float64(total) * e.idf[idx]
		weights[idx] = w
		sum += w * w
	}
	normv := math.Sqrt(sum)
	for i, w := range weights {
		vec[i] = float32(w / normv)
	}
	return vec, len(tokens), nil
}

// tokenize lowercases, strips accents, drops stopwords and folds plurals so
// "Contenedores" and "contenedor" meet on the same term.
func (e *LocalEmbedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(foldAccents(strings.ToLower(text)), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, stem(t))
	}
	return out
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// stem strips a trailing plural "es" (after a consonant) or "s".
func stem(t string) string {
	r := []rune(t)
	n := len(r)
	switch {
	case n >= 6 && r[n-2] == 'e' && r[n-1] == 's' && !isVowel(r[n-3]):
		return string(r[:n-2])
	case n >= 4 && r[n-1] == 's' && r[n-2] != 's':
		return string(r[:n-1])
	}
	return t
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		// english
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "it", "this", "that", "these",
		"those", "from", "into", "about", "so", "than", "can", "will", "how", "what", "do", "does",
		// spanish
		"el", "la", "los", "las", "un", "una", "unos", "unas", "de", "del", "al", "y", "o", "en",
		"con", "por", "para", "que", "como", "es", "son", "se", "su", "sus", "lo", "le", "les", "mi",
		"tu", "me", "te", "nos", "sin", "sobre", "entre", "muy", "mas", "pero", "si", "ya", "esta",
		"este", "esto", "ese", "esa", "cual", "cuales", "donde", "cuando", "quien", "hay", "ser",
		"puedo", "puede", "hacer",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
