package llm

import "testing"

func TestNewProviderKnownNames(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"openai", "openai"},
		{"gpt", "openai"},
		{"anthropic", "anthropic"},
		{"claude", "anthropic"},
		{"OpenAI", "openai"},
	}
	for _, tc := range cases {
		p, err := NewProvider(tc.name, "key", "model-1", 1024, 0.2)
		if err != nil {
			t.Errorf("NewProvider(%q): %v", tc.name, err)
			continue
		}
		if p.Name() != tc.want {
			t.Errorf("NewProvider(%q).Name() = %q, want %q", tc.name, p.Name(), tc.want)
		}
	}
}

func TestNewProviderUnknownName(t *testing.T) {
	if _, err := NewProvider("mistral", "key", "model-1", 1024, 0.2); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestFromEnvReadsKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	p, err := FromEnv("anthropic", "model-1", 1024, 0.2)
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestFromEnvMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := FromEnv("openai", "model-1", 1024, 0.2)
	if err == nil {
		t.Fatal("missing key accepted")
	}
}
