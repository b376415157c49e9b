package genesis

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	configPath string
	env        string

	driver   string // "memory", "redis" or "valkey"; empty keeps the file setting
	addrs    []string
	password string

	embedder  Embedder
	generator Generator

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithConfigFile loads policy and providers from an explicit YAML file.
func WithConfigFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.configPath = path
	})
}

// WithEnv selects config/<env>.yaml. Defaults to $ENV, then "local".
func WithEnv(env string) Option {
	return optionFunc(func(c *clientConfig) {
		c.env = env
	})
}

// WithMemory keeps interaction history in process memory.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
		c.password = ""
	})
}

// WithRedis stores interaction history and cached embeddings in Redis.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey stores interaction history and cached embeddings in Valkey.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder replaces the configured embedding provider for both
// documents and queries.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator replaces the configured text-generation provider.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers pipeline, generation and embedding metrics
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
