package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaClient implements the completion capability against a local
// Ollama server via langchaingo. Useful for development and for
// deployments that keep agreement text on-premises.
type OllamaClient struct {
	llm   *ollama.LLM
	model string
}

// NewOllamaClient creates a client from config. No API key is needed.
func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaClient{llm: llm, model: model}, nil
}

// Complete sends one generation request and returns the model text.
func (o *OllamaClient) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userContent),
	}

	resp, err := o.llm.GenerateContent(ctx, messages, llms.WithTemperature(defaultTemperature))
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return resp.Choices[0].Content, nil
}

// Configured reports whether the client was constructed with a model.
func (o *OllamaClient) Configured() bool {
	return o.llm != nil && o.model != ""
}
