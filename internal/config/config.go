package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Config holds the genesis configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Scope      ScopeConfig      `yaml:"scope"`
	Critique   CritiqueConfig   `yaml:"critique"`
	Refinement RefinementConfig `yaml:"refinement"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds interaction log / embedding cache backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, valkey (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout and retention settings.
type StorageConfig struct {
	KeyPrefix           string `yaml:"key_prefix"`
	InteractionTTLHours int    `yaml:"interaction_ttl_hours"`
	InteractionHistory  int    `yaml:"interaction_history"` // max ids kept in the recent list
}

// CorpusConfig points at the knowledge base. Empty path = built-in documents.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // local, openai
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	Concurrency         int    `yaml:"concurrency"`
	Cache               bool   `yaml:"cache"`
}

// GenerationConfig selects the text-generation provider.
type GenerationConfig struct {
	Provider          string  `yaml:"provider"` // openai, none
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"max_tokens"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	DraftTemperature  float32 `yaml:"draft_temperature"`
	RefineTemperature float32 `yaml:"refine_temperature"`
}

// RetrievalConfig holds the relevance policy. No field is defaulted.
type RetrievalConfig struct {
	TopK                int         `yaml:"top_k"`
	SimilarityFloor     float64     `yaml:"similarity_floor"`
	RelevanceThreshold  float64     `yaml:"relevance_threshold"`
	AcceptanceThreshold float64     `yaml:"acceptance_threshold"`
	Tiers               TiersConfig `yaml:"tiers"`
}

// TiersConfig holds the ascending relevance tier cutoffs.
type TiersConfig struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// ScopeConfig holds the phrase and keyword lists of the scope gate.
type ScopeConfig struct {
	AssistantName     string   `yaml:"assistant_name"`
	Topics            []string `yaml:"topics"`
	CapabilityPhrases []string `yaml:"capability_phrases"`
	Denylist          []string `yaml:"denylist"`
	Allowlist         []string `yaml:"allowlist"`
}

// CritiqueConfig holds the scoring policy. No field is defaulted.
type CritiqueConfig struct {
	BaseScore                float64         `yaml:"base_score"`
	MinScore                 float64         `yaml:"min_score"`
	MaxScore                 float64         `yaml:"max_score"`
	CapabilityScore          float64         `yaml:"capability_score"`
	MinLength                int             `yaml:"min_length"`
	MaxLength                int             `yaml:"max_length"`
	MinTechnicalTerms        int             `yaml:"min_technical_terms"`
	SignificantTokenLength   int             `yaml:"significant_token_length"`
	ContextMatchRatio        float64         `yaml:"context_match_ratio"`
	HighConfidenceSimilarity float64         `yaml:"high_confidence_similarity"`
	Weights                  CritiqueWeights `yaml:"weights"`
	TechnicalTerms           []string        `yaml:"technical_terms"`
	StructureMarkers         []string        `yaml:"structure_markers"`
	OutOfScopeMarkers        []string        `yaml:"out_of_scope_markers"`
}

// CritiqueWeights holds the magnitudes of each score adjustment.
type CritiqueWeights struct {
	ScopeReward      float64 `yaml:"scope_reward"`
	ScopePenalty     float64 `yaml:"scope_penalty"`
	ShortPenalty     float64 `yaml:"short_penalty"`
	LongPenalty      float64 `yaml:"long_penalty"`
	LengthReward     float64 `yaml:"length_reward"`
	TechnicalReward  float64 `yaml:"technical_reward"`
	TechnicalPenalty float64 `yaml:"technical_penalty"`
	StructureReward  float64 `yaml:"structure_reward"`
	ContextReward    float64 `yaml:"context_reward"`
	ContextPenalty   float64 `yaml:"context_penalty"`
	SimilarityBonus  float64 `yaml:"similarity_bonus"`
}

// RefinementConfig holds the improvement trigger.
type RefinementConfig struct {
	HighQualityThreshold float64 `yaml:"high_quality_threshold"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty plumbing fields with default values.
// Policy sections (retrieval, scope, critique, refinement) are never defaulted.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "genesis:"
	}
	if c.Storage.InteractionTTLHours <= 0 {
		c.Storage.InteractionTTLHours = 24 * 30
	}
	if c.Storage.InteractionHistory <= 0 {
		c.Storage.InteractionHistory = 1000
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.Concurrency <= 0 {
		c.Embedding.Concurrency = 4
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "none"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 800
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Scope.AssistantName == "" {
		c.Scope.AssistantName = "Genesis AI"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be \"memory\", \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	switch c.Embedding.Provider {
	case "local":
	case "openai":
		if c.Embedding.Model == "" {
			return errors.New("embedding.model is required for provider \"openai\"")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"local\" or \"openai\", got %q", c.Embedding.Provider)
	}
	switch c.Generation.Provider {
	case "none":
	case "openai":
		if c.Generation.APIKey == "" {
			return errors.New("generation.api_key is required for provider \"openai\"")
		}
	default:
		return fmt.Errorf("generation.provider must be \"openai\" or \"none\", got %q", c.Generation.Provider)
	}
	return c.validatePolicy()
}

// validatePolicy checks that every threshold and list the pipeline decides on is present.
// Ordering between thresholds is checked by each use case's Policy.Validate.
func (c *Config) validatePolicy() error {
	required := []struct {
		name string
		set  bool
	}{
		{"retrieval.top_k", c.Retrieval.TopK > 0},
		{"retrieval.similarity_floor", c.Retrieval.SimilarityFloor > 0},
		{"retrieval.relevance_threshold", c.Retrieval.RelevanceThreshold > 0},
		{"retrieval.acceptance_threshold", c.Retrieval.AcceptanceThreshold > 0},
		{"retrieval.tiers.low", c.Retrieval.Tiers.Low > 0},
		{"retrieval.tiers.medium", c.Retrieval.Tiers.Medium > 0},
		{"retrieval.tiers.high", c.Retrieval.Tiers.High > 0},
		{"scope.topics", len(c.Scope.Topics) > 0},
		{"scope.capability_phrases", len(c.Scope.CapabilityPhrases) > 0},
		{"scope.denylist", len(c.Scope.Denylist) > 0},
		{"scope.allowlist", len(c.Scope.Allowlist) > 0},
		{"critique.base_score", c.Critique.BaseScore > 0},
		{"critique.min_score", c.Critique.MinScore > 0},
		{"critique.max_score", c.Critique.MaxScore > 0},
		{"critique.capability_score", c.Critique.CapabilityScore > 0},
		{"critique.min_length", c.Critique.MinLength > 0},
		{"critique.max_length", c.Critique.MaxLength > 0},
		{"critique.min_technical_terms", c.Critique.MinTechnicalTerms > 0},
		{"critique.significant_token_length", c.Critique.SignificantTokenLength > 0},
		{"critique.context_match_ratio", c.Critique.ContextMatchRatio > 0},
		{"critique.high_confidence_similarity", c.Critique.HighConfidenceSimilarity > 0},
		{"critique.technical_terms", len(c.Critique.TechnicalTerms) > 0},
		{"critique.structure_markers", len(c.Critique.StructureMarkers) > 0},
		{"critique.out_of_scope_markers", len(c.Critique.OutOfScopeMarkers) > 0},
		{"refinement.high_quality_threshold", c.Refinement.HighQualityThreshold > 0},
	}
	var missing []string
	for _, r := range required {
		if !r.set {
			missing = append(missing, r.name)
		}
	}
	// Penalties are stored as positive magnitudes, so every weight must be > 0.
	w := c.Critique.Weights
	for _, r := range []struct {
		name  string
		value float64
	}{
		{"scope_reward", w.ScopeReward},
		{"scope_penalty", w.ScopePenalty},
		{"short_penalty", w.ShortPenalty},
		{"long_penalty", w.LongPenalty},
		{"length_reward", w.LengthReward},
		{"technical_reward", w.TechnicalReward},
		{"technical_penalty", w.TechnicalPenalty},
		{"structure_reward", w.StructureReward},
		{"context_reward", w.ContextReward},
		{"context_penalty", w.ContextPenalty},
		{"similarity_bonus", w.SimilarityBonus},
	} {
		if r.value <= 0 {
			missing = append(missing, "critique.weights."+r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required policy values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
