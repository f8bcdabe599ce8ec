// Package config loads service configuration from a YAML file with
// environment-variable overrides. A .env file in the working directory is
// honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the loresmith services.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	NATS      NATSConfig      `yaml:"nats"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port       int    `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// QdrantConfig configures the vector store connection.
type QdrantConfig struct {
	Addr string `yaml:"addr"`
	// Prefix namespaces the per-kind collections.
	Prefix string `yaml:"prefix"`
}

// NATSConfig configures the async indexing transport.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// Duration parses YAML strings like "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the key. The key
	// itself never lives in the config file.
	APIKeyEnv         string   `yaml:"api_key_env"`
	Model             string   `yaml:"model"`
	Dimensions        int      `yaml:"dimensions"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Timeout           Duration `yaml:"timeout"`
	// CachePath enables the bbolt embedding cache when non-empty.
	CachePath string `yaml:"cache_path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:       8080,
			CORSOrigin: "*",
		},
		Qdrant: QdrantConfig{
			Addr:   "localhost:6334",
			Prefix: "loresmith",
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Embedding: EmbeddingConfig{
			BaseURL:           "https://api.openai.com/v1",
			APIKeyEnv:         "OPENAI_API_KEY",
			Model:             "text-embedding-3-small",
			Dimensions:        1536,
			RequestsPerSecond: 10,
			Timeout:           Duration(60 * time.Second),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// APIKey resolves the embedding API key from the configured variable.
func (c *Config) APIKey() string {
	if c.Embedding.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Embedding.APIKeyEnv)
}

func (c *Config) applyEnv() {
	c.HTTP.Port = envInt("LORESMITH_HTTP_PORT", c.HTTP.Port)
	c.HTTP.CORSOrigin = envOr("LORESMITH_CORS_ORIGIN", c.HTTP.CORSOrigin)
	c.Qdrant.Addr = envOr("QDRANT_ADDR", c.Qdrant.Addr)
	c.Qdrant.Prefix = envOr("LORESMITH_COLLECTION_PREFIX", c.Qdrant.Prefix)
	c.NATS.URL = envOr("NATS_URL", c.NATS.URL)
	c.Embedding.BaseURL = envOr("EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Model = envOr("EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Dimensions = envInt("EMBEDDING_DIMENSIONS", c.Embedding.Dimensions)
	c.Embedding.CachePath = envOr("EMBEDDING_CACHE_PATH", c.Embedding.CachePath)
	c.Logging.Level = envOr("LOG_LEVEL", c.Logging.Level)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
