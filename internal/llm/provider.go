package llm

import (
	"fmt"

	"github.com/fyrsmithlabs/agreementd/internal/extract"
)

// New creates a completion client for the configured provider.
func New(cfg Config) (extract.CompletionClient, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	case "ollama":
		return NewOllamaClient(cfg)
	case "mock":
		return &MockClient{}, nil
	case "":
		return nil, fmt.Errorf("no completion provider configured")
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// Interface guards.
var (
	_ extract.CompletionClient = (*AnthropicClient)(nil)
	_ extract.CompletionClient = (*OpenAIClient)(nil)
	_ extract.CompletionClient = (*OllamaClient)(nil)
	_ extract.CompletionClient = (*MockClient)(nil)
)
