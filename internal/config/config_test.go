package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/genesis/internal/domain"
)

func loadLocal(t *testing.T) Config {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("GENERATION_PROVIDER", "")

	cfg, err := LoadFile(filepath.Join("..", "..", "config", "local.yaml"))
	if err != nil {
		t.Fatalf("load local config: %v", err)
	}
	return cfg
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_Local(t *testing.T) {
	cfg := loadLocal(t)

	if cfg.HTTP.Port != 8001 {
		t.Errorf("expected port 8001, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected memory driver, got %q", cfg.Database.Driver)
	}
	if cfg.Retrieval.RelevanceThreshold != 0.40 {
		t.Errorf("expected relevance threshold 0.40, got %v", cfg.Retrieval.RelevanceThreshold)
	}
	if cfg.Retrieval.Tiers.High != 0.52 {
		t.Errorf("expected high tier 0.52, got %v", cfg.Retrieval.Tiers.High)
	}
	if len(cfg.Scope.CapabilityPhrases) == 0 || cfg.Scope.CapabilityPhrases[0] != "hola" {
		t.Errorf("unexpected capability phrases: %v", cfg.Scope.CapabilityPhrases)
	}
	if cfg.Critique.StructureMarkers[0] != "\n" {
		t.Errorf("expected newline structure marker, got %q", cfg.Critique.StructureMarkers[0])
	}
	if cfg.Refinement.HighQualityThreshold != 0.80 {
		t.Errorf("expected refinement threshold 0.80, got %v", cfg.Refinement.HighQualityThreshold)
	}
}

func TestLoadFile_MissingThresholdIsConfigurationError(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 8080
retrieval:
  top_k: 3
  similarity_floor: 0.35
`)

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for missing thresholds")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "retrieval.relevance_threshold") {
		t.Errorf("expected missing key in message, got %q", err.Error())
	}
}

func TestLoadFile_MissingCritiqueWeights(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "config", "local.yaml"))
	if err != nil {
		t.Fatalf("read local config: %v", err)
	}
	body := string(raw)
	start := strings.Index(body, "  weights:\n")
	end := strings.Index(body, "  technical_terms:")
	if start < 0 || end < start {
		t.Fatal("local config has no critique.weights block")
	}
	t.Setenv("DB_DRIVER", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("GENERATION_PROVIDER", "")

	_, err = LoadFile(writeConfig(t, body[:start]+body[end:]))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "critique.weights.scope_penalty") {
		t.Errorf("expected missing weight in message, got %q", err.Error())
	}
}

func TestValidate_NonPositiveWeight(t *testing.T) {
	cfg := loadLocal(t)
	cfg.Critique.Weights.ContextPenalty = -0.10

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "critique.weights.context_penalty") {
		t.Fatalf("expected context_penalty to be rejected, got %v", err)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := loadLocal(t)
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_DatabaseDrivers(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{"memory", nil, false},
		{"redis", []string{"localhost:6379"}, false},
		{"valkey", []string{"localhost:6379"}, false},
		{"valkey", nil, true},
		{"postgres", []string{"localhost:5432"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := loadLocal(t)
			cfg.Database.Driver = tc.driver
			cfg.Database.Addrs = tc.addrs

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_GenerationRequiresKey(t *testing.T) {
	cfg := loadLocal(t)
	cfg.Generation.Provider = "openai"
	cfg.Generation.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai generation without api key")
	}

	cfg.Generation.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownEmbeddingProvider(t *testing.T) {
	cfg := loadLocal(t)
	cfg.Embedding.Provider = "hugot"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "genesis:" {
		t.Errorf("expected KeyPrefix='genesis:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Generation.TimeoutSec != 30 {
		t.Errorf("expected generation timeout 30, got %d", cfg.Generation.TimeoutSec)
	}
	// policy is never defaulted
	if cfg.Retrieval.RelevanceThreshold != 0 || cfg.Refinement.HighQualityThreshold != 0 {
		t.Errorf("policy values must stay unset, got %+v / %+v", cfg.Retrieval, cfg.Refinement)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Database:   DatabaseConfig{Driver: "redis", ReadinessTimeout: 15},
		Storage:    StorageConfig{KeyPrefix: "custom:"},
		Generation: GenerationConfig{Provider: "openai", TimeoutSec: 5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Generation.TimeoutSec != 5 {
		t.Errorf("expected generation timeout 5, got %d", cfg.Generation.TimeoutSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GENESIS_TEST_VAR", "value")

	got := string(expandEnvVars([]byte("a: ${GENESIS_TEST_VAR}\nb: ${GENESIS_UNSET_VAR:-fallback}\nc: ${GENESIS_UNSET_VAR}")))
	want := "a: value\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars = %q, want %q", got, want)
	}
}
