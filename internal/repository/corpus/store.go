// Package corpus holds the immutable knowledge base the index is built from.
package corpus

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/genesis/internal/domain"
)

//go:embed default.yaml
var defaultCorpus []byte

// Store is a read-only, ordered set of documents. Safe for concurrent use.
type Store struct {
	docs []domain.Document
	byID map[string]int
}

type file struct {
	Documents []domain.Document `yaml:"documents"`
}

// Default returns the built-in knowledge base.
func Default() (*Store, error) {
	return parse(defaultCorpus, "built-in corpus")
}

// Load reads a knowledge base from a YAML file of the form
// documents: [{id, content, category, tags}].
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (*Store, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	s, err := New(f.Documents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return s, nil
}

// New validates docs and returns a store that owns a private copy of them.
// Document order is preserved; tags are de-duplicated keeping first occurrence.
func New(docs []domain.Document) (*Store, error) {
	if len(docs) == 0 {
		return nil, errors.New("corpus is empty")
	}

	s := &Store{
		docs: make([]domain.Document, 0, len(docs)),
		byID: make(map[string]int, len(docs)),
	}
	for i, d := range docs {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("document %d: id is required", i)
		}
		if _, dup := s.byID[d.ID]; dup {
			return nil, fmt.Errorf("document %q: duplicate id", d.ID)
		}
		if strings.TrimSpace(d.Content) == "" {
			return nil, fmt.Errorf("document %q: content is required", d.ID)
		}
		d.Tags = dedupe(d.Tags)
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return s, nil
}

// All returns a copy of the documents in load order.
func (s *Store) All() []domain.Document {
	out := make([]domain.Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = clone(d)
	}
	return out
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (domain.Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Document{}, false
	}
	return clone(s.docs[i]), true
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.docs) }

// Categories returns the distinct categories in first-seen order.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range s.docs {
		if _, ok := seen[d.Category]; ok {
			continue
		}
		seen[d.Category] = struct{}{}
		out = append(out, d.Category)
	}
	return out
}

func clone(d domain.Document) domain.Document {
	if d.Tags != nil {
		d.Tags = append([]string(nil), d.Tags...)
	}
	return d
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
