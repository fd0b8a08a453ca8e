package providers

import (
	"context"
	"testing"

	"github.com/alt-coder/pocketchat/config"
	"github.com/alt-coder/pocketchat/llm"
	"github.com/alt-coder/pocketchat/llm/gemini"
	"github.com/alt-coder/pocketchat/llm/openai"
)

func TestAPIKeyEnv(t *testing.T) {
	tests := map[string]string{
		config.ProviderGemini: "GOOGLE_API_KEY",
		config.ProviderOpenAI: "OPENAI_API_KEY",
		config.ProviderMock:   "",
	}
	for provider, want := range tests {
		if got := APIKeyEnv(provider); got != want {
			t.Errorf("APIKeyEnv(%q) = %q, want %q", provider, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Setenv(gemini.APIKeyEnv, "test-google-key")
	t.Setenv(openai.APIKeyEnv, "test-openai-key")

	tests := []struct {
		provider string
		wantName string
	}{
		{config.ProviderGemini, "gemini"},
		{config.ProviderOpenAI, "openai"},
		{config.ProviderMock, "mock"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider = tt.provider

			model, err := New(context.Background(), cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer Close(model)

			if model.GetName() != tt.wantName {
				t.Errorf("GetName() = %q, want %q", model.GetName(), tt.wantName)
			}
		})
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv(gemini.APIKeyEnv, "")
	t.Setenv(openai.APIKeyEnv, "")

	for _, provider := range []string{config.ProviderGemini, config.ProviderOpenAI} {
		cfg := config.Default()
		cfg.Provider = provider
		if _, err := New(context.Background(), cfg); err == nil {
			t.Errorf("%s: expected error without an API key", provider)
		}
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "local"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(context.Background(), nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigMapping(t *testing.T) {
	t.Setenv(gemini.APIKeyEnv, "test-google-key")
	t.Setenv(openai.APIKeyEnv, "test-openai-key")
	t.Setenv("CHAT_MODEL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("OPENAI_ORG_ID", "org-test")
	t.Setenv("GEMINI_RATE_LIMIT", "")

	cfg := config.Default()
	cfg.Temperature = 0.3
	cfg.CandidateCount = 2

	g, err := geminiConfig(cfg)
	if err != nil {
		t.Fatalf("geminiConfig failed: %v", err)
	}
	if g.APIKey != "test-google-key" || g.Model != gemini.DefaultModel {
		t.Errorf("environment not applied to gemini config: %+v", g)
	}
	if g.Temperature != 0.3 || g.CandidateCount != 2 || g.RateLimit != 0 {
		t.Errorf("chat settings not applied to gemini config: %+v", g)
	}

	cfg.Model = "gpt-4o"
	cfg.RateLimit = 10
	o, err := openAIConfig(cfg)
	if err != nil {
		t.Fatalf("openAIConfig failed: %v", err)
	}
	if o.BaseURL != "http://localhost:8080/v1" || o.OrgID != "org-test" || o.APIKey != "test-openai-key" {
		t.Errorf("environment not applied to openai config: %+v", o)
	}
	if o.Model != "gpt-4o" || o.Choices != 2 || o.Temperature != 0.3 || o.RateLimit != 10 {
		t.Errorf("chat settings not applied to openai config: %+v", o)
	}
}

func TestConfigMapping_MissingKey(t *testing.T) {
	t.Setenv(gemini.APIKeyEnv, "")
	t.Setenv(openai.APIKeyEnv, "")

	if _, err := geminiConfig(config.Default()); err == nil {
		t.Error("expected gemini error without an API key")
	}
	if _, err := openAIConfig(config.Default()); err == nil {
		t.Error("expected openai error without an API key")
	}
}

func TestClose_WithoutCloser(t *testing.T) {
	Close(llm.NewMockProvider("mock"))
}
