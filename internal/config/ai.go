package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvAIProvider          = "CALLBOOK_AI_PROVIDER"
	EnvAIRequestTimeout    = "CALLBOOK_AI_REQUEST_TIMEOUT"
	EnvAIMaxRetries        = "CALLBOOK_AI_MAX_RETRIES"
	EnvAIMaxConcurrent     = "CALLBOOK_AI_MAX_CONCURRENT"
	EnvAIRequestsPerSecond = "CALLBOOK_AI_REQUESTS_PER_SECOND"

	EnvOpenAIAPIKey         = "CALLBOOK_OPENAI_API_KEY"
	EnvOpenAIBaseURL        = "CALLBOOK_OPENAI_BASE_URL"
	EnvOpenAIModel          = "CALLBOOK_OPENAI_MODEL"
	EnvOpenAIEmbeddingModel = "CALLBOOK_OPENAI_EMBEDDING_MODEL"

	EnvAnthropicAPIKey  = "CALLBOOK_ANTHROPIC_API_KEY"
	EnvAnthropicBaseURL = "CALLBOOK_ANTHROPIC_BASE_URL"
	EnvAnthropicModel   = "CALLBOOK_ANTHROPIC_MODEL"
)

// ProviderConfig holds the credentials and model for one AI provider.
type ProviderConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
}

// Merge overwrites non-zero fields from overlay.
func (c *ProviderConfig) Merge(overlay *ProviderConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.EmbeddingModel != "" {
		c.EmbeddingModel = overlay.EmbeddingModel
	}
}

// AIConfig selects the classification provider and bounds external calls.
// Embeddings always go through OpenAI.
type AIConfig struct {
	Provider           string         `toml:"provider"`
	OpenAI             ProviderConfig `toml:"openai"`
	Anthropic          ProviderConfig `toml:"anthropic"`
	RequestTimeout     string         `toml:"request_timeout"`
	MaxRetries         int            `toml:"max_retries"`
	MaxConcurrent      int            `toml:"max_concurrent"`
	RequestsPerSecond  float64        `toml:"requests_per_second"`
	EmbeddingBatchSize int            `toml:"embedding_batch_size"`
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *AIConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Classifier returns the provider settings used for classification.
func (c *AIConfig) Classifier() ProviderConfig {
	if c.Provider == "anthropic" {
		return c.Anthropic
	}
	return c.OpenAI
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AIConfig) Merge(overlay *AIConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.RequestsPerSecond != 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
	if overlay.EmbeddingBatchSize != 0 {
		c.EmbeddingBatchSize = overlay.EmbeddingBatchSize
	}
	c.OpenAI.Merge(&overlay.OpenAI)
	c.Anthropic.Merge(&overlay.Anthropic)
}

func (c *AIConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-3-5-haiku-latest"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "60s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.EmbeddingBatchSize == 0 {
		c.EmbeddingBatchSize = 100
	}
}

func (c *AIConfig) loadEnv() {
	if v := os.Getenv(EnvAIProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvAIRequestTimeout); v != "" {
		c.RequestTimeout = v
	}
	if v := os.Getenv(EnvAIMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvAIMaxConcurrent); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv(EnvAIRequestsPerSecond); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		}
	}

	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(EnvOpenAIBaseURL); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv(EnvOpenAIModel); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(EnvOpenAIEmbeddingModel); v != "" {
		c.OpenAI.EmbeddingModel = v
	}

	if v := os.Getenv(EnvAnthropicAPIKey); v != "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv(EnvAnthropicBaseURL); v != "" {
		c.Anthropic.BaseURL = v
	}
	if v := os.Getenv(EnvAnthropicModel); v != "" {
		c.Anthropic.Model = v
	}
}

func (c *AIConfig) validate() error {
	if c.Provider != "openai" && c.Provider != "anthropic" {
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	return nil
}
