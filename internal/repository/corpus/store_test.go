package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/genesis/internal/domain"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if s.Len() != 8 {
		t.Fatalf("expected 8 documents, got %d", s.Len())
	}

	d, ok := s.Get("docker_basics")
	if !ok {
		t.Fatal("docker_basics missing")
	}
	if d.Category != "docker" || !d.HasTag("deployment") {
		t.Errorf("unexpected docker doc: %+v", d)
	}
	if !strings.Contains(d.Content, "docker build -t myapp .") {
		t.Errorf("content not folded as expected: %q", d.Content)
	}

	want := []string{"docker", "kubernetes", "fastapi", "python", "api", "containers"}
	if got := s.Categories(); !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		docs []domain.Document
	}{
		{"empty", nil},
		{"missing id", []domain.Document{{Content: "x"}}},
		{"blank content", []domain.Document{{ID: "a", Content: "  "}}},
		{"duplicate id", []domain.Document{{ID: "a", Content: "x"}, {ID: "a", Content: "y"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.docs); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNew_DedupesTagsAndKeepsOrder(t *testing.T) {
	s, err := New([]domain.Document{
		{ID: "b", Content: "second", Tags: []string{"x", "y", "x", ""}},
		{ID: "a", Content: "first"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	all := s.All()
	if all[0].ID != "b" || all[1].ID != "a" {
		t.Errorf("order not preserved: %v", all)
	}
	if !reflect.DeepEqual(all[0].Tags, []string{"x", "y"}) {
		t.Errorf("tags not de-duplicated: %v", all[0].Tags)
	}
}

func TestStore_IsImmutable(t *testing.T) {
	src := []domain.Document{{ID: "a", Content: "c", Tags: []string{"t"}}}
	s, err := New(src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src[0].Content = "changed"
	all := s.All()
	all[0].Tags[0] = "mutated"
	got, _ := s.Get("a")

	if got.Content != "c" || got.Tags[0] != "t" {
		t.Errorf("store mutated through caller slices: %+v", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	body := `
documents:
  - id: go_basics
    category: go
    tags: [programming]
    content: Go compila a binarios estáticos.
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 doc, got %d", s.Len())
	}
	if _, ok := s.Get("go_basics"); !ok {
		t.Error("go_basics missing")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("documents: [\n"), 0o600)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
