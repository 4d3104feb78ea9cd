// Package config loads the vocabpipe configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/enrich"
	"github.com/gaurav-prasanna/vocabpipe/core/fetch"
	"github.com/gaurav-prasanna/vocabpipe/core/rank"
	"github.com/gaurav-prasanna/vocabpipe/core/render"
	"github.com/gaurav-prasanna/vocabpipe/core/search"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "vocabpipe.yaml"

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxPerHost int           `yaml:"max_per_host"`
}

// ImagesConfig configures the image search.
type ImagesConfig struct {
	SearchURL string `yaml:"search_url"`
	PoolSize  int    `yaml:"pool_size"`
}

// DictionaryConfig configures lookups and the keyword fallback.
type DictionaryConfig struct {
	URL              string        `yaml:"url"`
	FallbackAttempts int           `yaml:"fallback_attempts"`
	Retries          int           `yaml:"retries"`
	Backoff          time.Duration `yaml:"backoff"`
}

// EmbedderConfig selects the embedding backend of the reranker.
type EmbedderConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
}

// EnrichConfig bounds the enrichment run.
type EnrichConfig struct {
	TaskTimeout time.Duration `yaml:"task_timeout"`
	RunTimeout  time.Duration `yaml:"run_timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// LayoutConfig is the sheet layout of rendered documents.
type LayoutConfig struct {
	Format   string  `yaml:"format"`
	Rows     int     `yaml:"rows"`
	Columns  int     `yaml:"columns"`
	FontSize float64 `yaml:"font_size"`
}

// Config is the root configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Images     ImagesConfig     `yaml:"images"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Enrich     EnrichConfig     `yaml:"enrich"`
	Layout     LayoutConfig     `yaml:"layout"`
}

// Load reads a config from path. If the file does not exist, returns
// defaults. Unset fields are filled with defaults either way.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = fetch.DefaultUserAgent
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	if cfg.Images.SearchURL == "" {
		cfg.Images.SearchURL = search.DefaultImageSearchURL
	}
	if cfg.Images.PoolSize == 0 {
		cfg.Images.PoolSize = enrich.DefaultImagePoolSize
	}
	if cfg.Dictionary.URL == "" {
		cfg.Dictionary.URL = search.DefaultDictionaryURL
	}
	if cfg.Dictionary.FallbackAttempts == 0 {
		cfg.Dictionary.FallbackAttempts = enrich.DefaultFallbackAttempts
	}
	if cfg.Dictionary.Backoff == 0 {
		cfg.Dictionary.Backoff = 500 * time.Millisecond
	}
	if cfg.Embedder.Backend == "" {
		cfg.Embedder.Backend = rank.BackendOllama
	}
	if cfg.Embedder.BaseURL == "" && cfg.Embedder.Backend == rank.BackendOllama {
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			cfg.Embedder.BaseURL = host
		} else {
			cfg.Embedder.BaseURL = rank.DefaultOllamaURL
		}
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Enrich.TaskTimeout == 0 {
		cfg.Enrich.TaskTimeout = 2 * time.Minute
	}
	if cfg.Enrich.RunTimeout == 0 {
		cfg.Enrich.RunTimeout = 15 * time.Minute
	}
	if cfg.Layout.Format == "" {
		cfg.Layout.Format = render.FormatPDF
	}
	if cfg.Layout.Rows == 0 {
		cfg.Layout.Rows = render.DefaultRows
	}
	if cfg.Layout.Columns == 0 {
		cfg.Layout.Columns = render.DefaultColumns
	}
	if cfg.Layout.FontSize == 0 {
		cfg.Layout.FontSize = render.DefaultFontSize
	}
}

// FetchOptions returns the HTTP client options.
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{UserAgent: c.HTTP.UserAgent, Timeout: c.HTTP.Timeout, MaxPerHost: c.HTTP.MaxPerHost}
}

// RankOptions returns the embedding backend options. The API key is read
// from the environment variable named by api_key_env.
func (c *Config) RankOptions() rank.Options {
	return rank.Options{
		Backend:   c.Embedder.Backend,
		Model:     c.Embedder.Model,
		BaseURL:   c.Embedder.BaseURL,
		APIKey:    os.Getenv(c.Embedder.APIKeyEnv),
		Dimension: c.Embedder.Dimension,
	}
}

// EnrichOptions returns the orchestrator options.
func (c *Config) EnrichOptions() enrich.Options {
	return enrich.Options{
		ImagePoolSize: c.Images.PoolSize,
		TaskTimeout:   c.Enrich.TaskTimeout,
		Concurrency:   c.Enrich.Concurrency,
	}
}

// CoreLayout returns the renderer layout.
func (c *Config) CoreLayout() core.Layout {
	return core.Layout{Rows: c.Layout.Rows, Columns: c.Layout.Columns, FontSize: c.Layout.FontSize}
}
