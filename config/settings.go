// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Guardrail GuardrailConfig
	Turn      TurnConfig
	Storage   StorageConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// EmbeddingConfig holds embedding backend configuration.
type EmbeddingConfig struct {
	Provider string // "openai" or "genai"
	Model    string
	// Asymmetric enables the query:/passage: prefix convention used by
	// e5-style retrieval models. Symmetric models leave this off.
	Asymmetric bool
}

// SearchConfig holds tool retrieval settings.
type SearchConfig struct {
	TopK       int
	Collection string
}

// GuardrailConfig holds policy-check tuning.
//
// InThreshold and MarginThreshold were calibrated against one specific
// embedding model; deployments switching backends must recalibrate or
// override them via environment.
type GuardrailConfig struct {
	InThreshold      float64
	MarginThreshold  float64
	MaxOutputRetries int
}

// TurnConfig bounds a single conversational turn.
type TurnConfig struct {
	MaxConversationTurns int
	MaxToolIterations    int
	RewriteThreshold     int // rune count below which short queries are rewritten
}

// StorageConfig holds checkpoint persistence settings.
type StorageConfig struct {
	CheckpointPath string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from environment variables.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 2048)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.2)
	if err != nil {
		return Settings{}, err
	}

	topK, err := getEnvInt("TOOL_SEARCH_TOP_K", 5)
	if err != nil {
		return Settings{}, err
	}

	inThreshold, err := getEnvFloat64("DOMAIN_IN_THRESHOLD", 0.87)
	if err != nil {
		return Settings{}, err
	}

	marginThreshold, err := getEnvFloat64("DOMAIN_MARGIN_THRESHOLD", 0.03)
	if err != nil {
		return Settings{}, err
	}

	maxOutputRetries, err := getEnvInt("GUARDRAIL_MAX_OUTPUT_RETRIES", 1)
	if err != nil {
		return Settings{}, err
	}

	maxTurns, err := getEnvInt("MAX_CONVERSATION_TURNS", 20)
	if err != nil {
		return Settings{}, err
	}

	maxToolIterations, err := getEnvInt("MAX_TOOL_ITERATIONS", 10)
	if err != nil {
		return Settings{}, err
	}

	rewriteThreshold, err := getEnvInt("QUERY_REWRITE_THRESHOLD", 15)
	if err != nil {
		return Settings{}, err
	}

	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	embedProvider := os.Getenv("EMBEDDING_PROVIDER")
	if embedProvider == "" {
		embedProvider = "openai"
	}

	checkpointPath := os.Getenv("CHECKPOINT_DB_PATH")
	if checkpointPath == "" {
		checkpointPath = "./checkpoints.db"
	}

	collection := os.Getenv("TOOL_COLLECTION")
	if collection == "" {
		collection = "tool_embeddings"
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Embedding: EmbeddingConfig{
			Provider:   embedProvider,
			Model:      os.Getenv("EMBEDDING_MODEL"),
			Asymmetric: os.Getenv("EMBEDDING_ASYMMETRIC") == "true",
		},
		Search: SearchConfig{
			TopK:       topK,
			Collection: collection,
		},
		Guardrail: GuardrailConfig{
			InThreshold:      inThreshold,
			MarginThreshold:  marginThreshold,
			MaxOutputRetries: maxOutputRetries,
		},
		Turn: TurnConfig{
			MaxConversationTurns: maxTurns,
			MaxToolIterations:    maxToolIterations,
			RewriteThreshold:     rewriteThreshold,
		},
		Storage: StorageConfig{
			CheckpointPath: checkpointPath,
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
