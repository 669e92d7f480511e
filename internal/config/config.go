// Package config builds the run configuration from defaults, environment
// variables, an optional YAML or JSONC file, and command-line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/folderctx"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/ollama"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/openai"
	"github.com/muhammadmuzzammil1998/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when the selected provider needs a key and none is set.
var ErrMissingAPIKey = errors.New("config: API key not set")

// ErrUnsupportedProvider is returned for an unknown provider name.
var ErrUnsupportedProvider = errors.New("config: unsupported provider")

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderGemini     = "gemini"
)

const (
	DefaultProvider       = ProviderOpenRouter
	DefaultBatchSize      = 4
	DefaultTimeoutSeconds = 120
)

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(string) string

// Config holds everything a cataloging run needs
type Config struct {
	Provider       string        `yaml:"provider" json:"provider"`
	Model          string        `yaml:"model" json:"model"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	APIKey         string        `yaml:"-" json:"-"`
	BatchSize      int           `yaml:"batch_size" json:"batch_size"`
	TimeoutSeconds int           `yaml:"timeout_seconds" json:"timeout_seconds"`
	Temperature    float64       `yaml:"temperature" json:"temperature"`
	MaxTokens      int           `yaml:"max_tokens" json:"max_tokens"`
	Exclude        []string      `yaml:"exclude" json:"exclude"`
	Context        ContextConfig `yaml:"context" json:"context"`
}

// ContextConfig overrides the folder context tables
type ContextConfig struct {
	Prefix      string           `yaml:"prefix" json:"prefix"`
	RootMarkers []string         `yaml:"root_markers" json:"root_markers"`
	Hints       []folderctx.Hint `yaml:"hints" json:"hints"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Provider:       DefaultProvider,
		BatchSize:      DefaultBatchSize,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// Load returns the defaults overlaid with environment variables and then with
// the file at path, if path is not empty.
func Load(path string, getenv Getenv) (Config, error) {
	cfg := Default()
	cfg.applyEnv(getenv)

	if path == "" {
		return cfg, nil
	}

	if err := decodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeFile picks the decoder from the file extension.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s (supported: .yaml, .yml, .json, .jsonc)", ext)
	}
	return nil
}

func (c *Config) applyEnv(getenv Getenv) {
	if getenv == nil {
		return
	}
	if p := getenv("CATALOGING_PROVIDER"); p != "" {
		c.Provider = p
	}
	if m := getenv("CATALOGING_MODEL"); m != "" {
		c.Model = m
	}
}

// UseProvider selects provider. When that changes the provider, the endpoint
// and model loaded so far belonged to the old one and are cleared.
func (c *Config) UseProvider(provider string) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider != strings.ToLower(strings.TrimSpace(c.Provider)) {
		c.BaseURL = ""
		c.Model = ""
	}
	c.Provider = provider
}

// Finalize fills in the credential, the endpoint and the model for the
// selected provider. It runs after flags have been applied.
func (c *Config) Finalize(getenv Getenv) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))

	switch c.Provider {
	case ProviderOpenRouter:
		c.APIKey = getenv("OPENROUTER_API_KEY")
		if c.BaseURL == "" {
			c.BaseURL = openai.OpenRouterBaseURL
		}
	case ProviderOpenAI:
		c.APIKey = getenv("OPENAI_API_KEY")
		if c.BaseURL == "" {
			c.BaseURL = openai.DefaultBaseURL
		}
	case ProviderOllama:
		if c.BaseURL == "" {
			c.BaseURL = getenv("OLLAMA_URL")
		}
		if c.BaseURL == "" {
			c.BaseURL = getenv("OLLAMA_HOST")
		}
		if c.BaseURL == "" {
			c.BaseURL = ollama.DefaultURL
		}
	case ProviderGemini:
		c.APIKey = getenv("GEMINI_API_KEY")
	}

	if c.Model == "" {
		c.Model = defaultModel(c.Provider, getenv)
	}
}

func defaultModel(provider string, getenv Getenv) string {
	var envVar, fallback string
	switch provider {
	case ProviderOpenRouter:
		envVar, fallback = "OPENROUTER_MODEL", "google/gemini-2.5-flash-image-preview"
	case ProviderOpenAI:
		envVar, fallback = "OPENAI_MODEL", "gpt-4o"
	case ProviderOllama:
		envVar, fallback = "OLLAMA_MODEL", "mistral-small3.2:24b"
	case ProviderGemini:
		envVar, fallback = "GEMINI_MODEL", "gemini-1.5-flash"
	default:
		return ""
	}
	if model := getenv(envVar); model != "" {
		return model
	}
	return fallback
}

// Validate reports configuration errors that must stop a run before any folder is processed
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingAPIKey, apiKeyVar(c.Provider))
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (supported: openrouter, openai, ollama, gemini)", ErrUnsupportedProvider, c.Provider)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", c.TimeoutSeconds)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}
	return nil
}

func apiKeyVar(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// Timeout is the per-request deadline for the vision model
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Deriver returns a folder context deriver using the configured tables,
// falling back to the defaults for anything left empty.
func (c *Config) Deriver() *folderctx.Deriver {
	d := folderctx.DefaultDeriver()
	if c.Context.Prefix != "" {
		d.Prefix = c.Context.Prefix
	}
	if len(c.Context.RootMarkers) > 0 {
		d.RootMarkers = c.Context.RootMarkers
	}
	if len(c.Context.Hints) > 0 {
		d.Hints = c.Context.Hints
	}
	return d
}
