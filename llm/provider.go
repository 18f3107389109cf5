// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)

	// ChatWithTools sends a chat completion request with tool definitions.
	// The LLM may respond with tool calls in LLMResponse.ToolCalls.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error)

	// StreamChat streams a chat completion, sending chunks to the provided channel.
	// Returns token usage (available in final chunk when supported by provider).
	StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error)
}

// NewProvider creates a provider by name with an explicit configuration.
// Supported names: "openai" (alias "gpt") and "anthropic" (alias "claude").
func NewProvider(name, apiKey, model string, maxTokens uint32, temperature float64) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai", "gpt":
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case "anthropic", "claude":
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
}

// FromEnv creates a provider by name, reading the API key from the
// provider's conventional environment variable.
func FromEnv(name, model string, maxTokens uint32, temperature float64) (Provider, error) {
	envVar := "OPENAI_API_KEY"
	if strings.ToLower(name) == "anthropic" || strings.ToLower(name) == "claude" {
		envVar = "ANTHROPIC_API_KEY"
	}
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", name, envVar)
	}
	return NewProvider(name, apiKey, model, maxTokens, temperature)
}
