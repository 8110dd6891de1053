// Package llm provides implementations of the pipeline's completion
// capability: Anthropic and OpenAI HTTP clients with retry, backoff and
// client-side rate limiting, an Ollama client for local models, and a
// scriptable mock for tests and offline runs.
package llm

import (
	"time"
)

// Default transport configuration.
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultOllamaBaseURL    = "http://localhost:11434"
	defaultOllamaModel      = "llama3.1"
	defaultMaxTokens        = 2048
	defaultTimeout          = 90 * time.Second
	defaultMaxRetries       = 3
	defaultBaseBackoff      = 1 * time.Second

	// Extraction prompts want near-deterministic output.
	defaultTemperature = 0.2
)

// Rate limiter defaults: 50 requests per minute, bursts of 5.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Config holds provider-specific configuration.
type Config struct {
	Provider  string `koanf:"provider"` // "anthropic", "openai", "ollama", "mock"
	Model     string `koanf:"model"`
	APIKey    string `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	MaxTokens int    `koanf:"max_tokens"`
	Timeout   int    `koanf:"timeout"` // seconds
}
