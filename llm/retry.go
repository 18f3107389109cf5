// Transient-error retry for provider calls.
//
// Information Hiding:
// - Error classification logic hidden
// - Backoff algorithm hidden

package llm

import (
	"context"
	"strings"
	"time"
)

// RetryConfig bounds retries on transient provider failures.
// The zero value is not usable; use DefaultRetryConfig.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig matches the bounds used for inference calls:
// three attempts with exponential backoff capped at 30 seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// IsTransient reports whether an error belongs to the retryable class:
// rate limits, timeouts, and connection failures. Everything else
// (auth errors, invalid requests) fails fast.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"rate_limit",
		"429",
		"timeout",
		"timed out",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"broken pipe",
		"overloaded",
		"internal server error",
		"502",
		"503",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ChatWithRetry invokes provider.Chat, retrying transient failures with
// exponential backoff. Non-transient errors and retry exhaustion return
// the last error to the caller.
func ChatWithRetry(ctx context.Context, provider Provider, messages []ChatMessage, cfg RetryConfig) (LLMResponse, error) {
	return invokeWithRetry(ctx, cfg, func(ctx context.Context) (LLMResponse, error) {
		return provider.Chat(ctx, messages)
	})
}

// ChatWithToolsRetry invokes provider.ChatWithTools with the same retry policy.
func ChatWithToolsRetry(ctx context.Context, provider Provider, messages []ChatMessage, tools []ToolDefinition, cfg RetryConfig) (LLMResponse, error) {
	return invokeWithRetry(ctx, cfg, func(ctx context.Context) (LLMResponse, error) {
		return provider.ChatWithTools(ctx, messages, tools)
	})
}

func invokeWithRetry(ctx context.Context, cfg RetryConfig, call func(context.Context) (LLMResponse, error)) (LLMResponse, error) {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return LLMResponse{}, ctx.Err()
			case <-time.After(backoffDelay(cfg, attempt)):
			}
		}

		response, err := call(ctx)
		if err == nil {
			return response, nil
		}
		if !IsTransient(err) {
			return LLMResponse{}, err
		}
		lastErr = err
	}

	return LLMResponse{}, lastErr
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay * time.Duration(1<<(attempt-1))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
