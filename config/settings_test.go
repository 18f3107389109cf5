package config

import (
	"os"
	"testing"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestGuardrailDefaults(t *testing.T) {
	os.Unsetenv("DOMAIN_IN_THRESHOLD")
	os.Unsetenv("DOMAIN_MARGIN_THRESHOLD")

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Guardrail.InThreshold != 0.87 {
		t.Errorf("expected in-threshold 0.87, got %v", settings.Guardrail.InThreshold)
	}
	if settings.Guardrail.MarginThreshold != 0.03 {
		t.Errorf("expected margin-threshold 0.03, got %v", settings.Guardrail.MarginThreshold)
	}
	if settings.Guardrail.MaxOutputRetries != 1 {
		t.Errorf("expected 1 output retry, got %d", settings.Guardrail.MaxOutputRetries)
	}
}

func TestThresholdOverride(t *testing.T) {
	original := os.Getenv("DOMAIN_IN_THRESHOLD")
	os.Setenv("DOMAIN_IN_THRESHOLD", "0.91")
	defer os.Setenv("DOMAIN_IN_THRESHOLD", original)

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Guardrail.InThreshold != 0.91 {
		t.Errorf("expected overridden in-threshold 0.91, got %v", settings.Guardrail.InThreshold)
	}
}

func TestInvalidEnvValue(t *testing.T) {
	original := os.Getenv("TOOL_SEARCH_TOP_K")
	os.Setenv("TOOL_SEARCH_TOP_K", "not-a-number")
	defer os.Setenv("TOOL_SEARCH_TOP_K", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid TOOL_SEARCH_TOP_K")
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}
