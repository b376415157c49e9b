package scope

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/genesis/internal/domain"
)

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := NewMatcher(Lists{
		CapabilityPhrases: []string{"hola", "qué puedes hacer", "who are you"},
		Denylist:          []string{"pizza", "pan", "cocinar"},
		Allowlist:         []string{"docker", "container", "api"},
	})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	return m
}

func TestNewMatcher_EmptyLists(t *testing.T) {
	_, err := NewMatcher(Lists{})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestIsCapability(t *testing.T) {
	m := testMatcher(t)
	tests := []struct {
		query string
		want  bool
	}{
		{"hola", true},
		{"  Hola  ", true},
		{"¡Hola!", true},
		{"¿Qué   puedes hacer?", true},
		{"WHO ARE YOU?", true},
		{"hola, ¿qué es Docker?", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := m.IsCapability(tc.query); got != tc.want {
			t.Errorf("IsCapability(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestDenied_WholeTokens(t *testing.T) {
	m := testMatcher(t)

	if kw, ok := m.Denied("¿Cómo cocinar pizza?"); !ok || kw != "cocinar" {
		t.Errorf("expected cocinar, got %q %v", kw, ok)
	}
	if _, ok := m.Denied("cómo expandir un volumen"); ok {
		t.Error("substring of a token must not match the denylist")
	}
	if _, ok := m.Denied("Quiero PAN"); !ok {
		t.Error("expected case-insensitive match")
	}
}

func TestAllowed_TokenPrefix(t *testing.T) {
	m := testMatcher(t)

	if kw, ok := m.Allowed("listar containers activos"); !ok || kw != "container" {
		t.Errorf("expected container, got %q %v", kw, ok)
	}
	if _, ok := m.Allowed("diseño de APIs"); !ok {
		t.Error("expected api prefix match")
	}
	if _, ok := m.Allowed("rapido"); ok {
		t.Error("keyword inside a token must not match")
	}
}
