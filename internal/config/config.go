// ABOUTME: Centralized configuration for the echomind CLI, HTTP server, and MCP server
// ABOUTME: Layers defaults, an optional YAML file, and environment variables, then validates
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/echomind/internal/storage"
	"github.com/harper/echomind/internal/storage/sqlite"
)

// Store backends
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// Embedding providers. ProviderAuto picks openai when an API key is set
// and hash otherwise.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
	ProviderNone   = "none"
)

// Config holds all configuration for echomind
type Config struct {
	Store       StoreConfig     `yaml:"store"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
	Server      ServerConfig    `yaml:"server"`
	DefaultUser string          `yaml:"default_user"`
}

// StoreConfig selects and locates the phrase store
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	Metric     string `yaml:"metric"`
	QdrantHost string `yaml:"qdrant_host"`
	QdrantPort int    `yaml:"qdrant_port"`

	// InitAttempts is how many times collection setup is tried while the
	// store is unreachable
	InitAttempts int `yaml:"init_attempts"`
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`

	// APIKey is read from the environment only
	APIKey            string        `yaml:"-"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Dimensions        int           `yaml:"dimensions"`
	RequestDimensions bool          `yaml:"request_dimensions"`
	Timeout           time.Duration `yaml:"timeout"`
	CacheSize         int64         `yaml:"cache_size"`
}

// RetrievalConfig tunes personalization lookups
type RetrievalConfig struct {
	SimilarLimit int `yaml:"similar_limit"`
	TopLimit     int `yaml:"top_limit"`
	Oversample   int `yaml:"oversample"`
}

// ServerConfig holds the HTTP listen address
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:      BackendSQLite,
			Path:         sqlite.DefaultDBPath(),
			Collection:   storage.DefaultCollection,
			Metric:       string(storage.MetricCosine),
			QdrantHost:   "localhost",
			QdrantPort:   6334,
			InitAttempts: 1,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderAuto,
			Model:     "text-embedding-3-small",
			Timeout:   30 * time.Second,
			CacheSize: 1024,
		},
		Retrieval: RetrievalConfig{
			SimilarLimit: 3,
			TopLimit:     3,
			Oversample:   5,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		DefaultUser: "default",
	}
}

// DefaultPath returns the config file consulted when no --config is given
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "echomind", "config.yaml")
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "echomind", "config.yaml")
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the default location is read when present. Environment variables
// override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file is fine
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Store.Backend = getEnv("ECHOMIND_STORE", c.Store.Backend)
	c.Store.Path = getEnv("ECHOMIND_DB_PATH", c.Store.Path)
	c.Store.Collection = getEnv("ECHOMIND_COLLECTION", c.Store.Collection)
	c.Store.Metric = getEnv("ECHOMIND_METRIC", c.Store.Metric)
	c.Store.QdrantHost = getEnv("QDRANT_HOST", c.Store.QdrantHost)
	c.Store.QdrantPort = getEnvInt("QDRANT_PORT", c.Store.QdrantPort)
	c.Store.InitAttempts = getEnvInt("ECHOMIND_INIT_ATTEMPTS", c.Store.InitAttempts)

	c.Embedding.Provider = getEnv("ECHOMIND_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.APIKey = getEnv("ECHOMIND_EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY"))
	c.Embedding.BaseURL = getEnv("ECHOMIND_EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Model = getEnv("ECHOMIND_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Dimensions = getEnvInt("ECHOMIND_EMBEDDING_DIMENSIONS", c.Embedding.Dimensions)
	c.Embedding.Timeout = getEnvDuration("ECHOMIND_EMBEDDING_TIMEOUT", c.Embedding.Timeout)
	c.Embedding.CacheSize = int64(getEnvInt("ECHOMIND_EMBEDDING_CACHE_SIZE", int(c.Embedding.CacheSize)))

	c.Retrieval.SimilarLimit = getEnvInt("ECHOMIND_SIMILAR_LIMIT", c.Retrieval.SimilarLimit)
	c.Retrieval.TopLimit = getEnvInt("ECHOMIND_TOP_LIMIT", c.Retrieval.TopLimit)
	c.Retrieval.Oversample = getEnvInt("ECHOMIND_OVERSAMPLE", c.Retrieval.Oversample)

	c.Server.Host = getEnv("ECHOMIND_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("ECHOMIND_PORT", c.Server.Port)

	c.DefaultUser = getEnv("ECHOMIND_USER", c.DefaultUser)
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for the sqlite backend")
		}
	case BackendQdrant:
		if c.Store.QdrantHost == "" {
			return fmt.Errorf("QDRANT_HOST is required for the qdrant backend")
		}
		if c.Store.QdrantPort < 1 || c.Store.QdrantPort > 65535 {
			return fmt.Errorf("QDRANT_PORT must be 1-65535, got %d", c.Store.QdrantPort)
		}
	default:
		return fmt.Errorf("ECHOMIND_STORE must be %s or %s, got %q", BackendSQLite, BackendQdrant, c.Store.Backend)
	}

	if c.Store.InitAttempts < 1 {
		return fmt.Errorf("ECHOMIND_INIT_ATTEMPTS must be at least 1, got %d", c.Store.InitAttempts)
	}

	if _, err := storage.ParseMetric(c.Store.Metric); err != nil {
		return fmt.Errorf("ECHOMIND_METRIC: %w", err)
	}

	switch c.Embedding.Provider {
	case ProviderAuto, ProviderHash, ProviderNone:
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
	default:
		return fmt.Errorf("ECHOMIND_EMBEDDING_PROVIDER must be one of auto, openai, hash, none; got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("ECHOMIND_EMBEDDING_DIMENSIONS must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("ECHOMIND_EMBEDDING_TIMEOUT must be positive, got %v", c.Embedding.Timeout)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("ECHOMIND_EMBEDDING_CACHE_SIZE must not be negative, got %d", c.Embedding.CacheSize)
	}

	if c.Retrieval.SimilarLimit < 1 || c.Retrieval.TopLimit < 1 {
		return fmt.Errorf("retrieval limits must be positive, got similar=%d top=%d", c.Retrieval.SimilarLimit, c.Retrieval.TopLimit)
	}
	if c.Retrieval.Oversample < 5 {
		return fmt.Errorf("ECHOMIND_OVERSAMPLE must be at least 5, got %d", c.Retrieval.Oversample)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("ECHOMIND_PORT must be 1-65535, got %d", c.Server.Port)
	}

	return nil
}

// EmbeddingProvider resolves ProviderAuto to a concrete provider name
func (c *Config) EmbeddingProvider() string {
	if c.Embedding.Provider != ProviderAuto {
		return c.Embedding.Provider
	}
	if c.Embedding.APIKey != "" {
		return ProviderOpenAI
	}
	return ProviderHash
}

// Metric returns the parsed collection metric
func (c *Config) Metric() storage.Metric {
	m, err := storage.ParseMetric(c.Store.Metric)
	if err != nil {
		return storage.MetricCosine
	}
	return m
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
