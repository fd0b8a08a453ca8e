// Package providers builds the Model named by the configuration.
package providers

import (
	"context"
	"fmt"

	"github.com/alt-coder/pocketchat/config"
	"github.com/alt-coder/pocketchat/llm"
	"github.com/alt-coder/pocketchat/llm/gemini"
	"github.com/alt-coder/pocketchat/llm/openai"
)

// APIKeyEnv returns the environment variable holding the credential for
// provider, or "" when the provider needs none.
func APIKeyEnv(provider string) string {
	switch provider {
	case config.ProviderGemini:
		return gemini.APIKeyEnv
	case config.ProviderOpenAI:
		return openai.APIKeyEnv
	default:
		return ""
	}
}

// New creates the configured provider. Credentials and provider-specific
// settings are read from the environment, then cfg is applied on top.
// Release it with Close.
func New(ctx context.Context, cfg *config.Config) (llm.Model, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		geminiCfg, err := geminiConfig(cfg)
		if err != nil {
			return nil, err
		}
		return gemini.NewGeminiClient(ctx, geminiCfg)
	case config.ProviderOpenAI:
		openAICfg, err := openAIConfig(cfg)
		if err != nil {
			return nil, err
		}
		return openai.NewOpenAIClient(ctx, openAICfg)
	case config.ProviderMock:
		return llm.NewMockProvider(config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// Close stops background work owned by model, if any.
func Close(model llm.Model) {
	if closer, ok := model.(interface{ Close() }); ok {
		closer.Close()
	}
}

// geminiConfig starts from the GOOGLE_API_KEY and GEMINI_* environment and
// overlays the chatbot settings.
func geminiConfig(cfg *config.Config) (*gemini.Config, error) {
	geminiCfg, err := gemini.NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("gemini configuration: %w", err)
	}
	if cfg.Model != "" {
		geminiCfg.Model = cfg.Model
	}
	geminiCfg.Temperature = cfg.Temperature
	geminiCfg.CandidateCount = cfg.CandidateCount
	if cfg.RateLimit > 0 {
		geminiCfg.RateLimit = cfg.RateLimit
		geminiCfg.RateLimitInterval = cfg.RateLimitInterval
	}
	return geminiCfg, nil
}

// openAIConfig starts from the OPENAI_* environment (key, base URL, organization,
// retries, sampling) and overlays the chatbot settings.
func openAIConfig(cfg *config.Config) (*openai.Config, error) {
	openAICfg, err := openai.NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("openai configuration: %w", err)
	}
	if cfg.Model != "" {
		openAICfg.Model = cfg.Model
	}
	openAICfg.Temperature = cfg.Temperature
	openAICfg.Choices = cfg.CandidateCount
	if cfg.RateLimit > 0 {
		openAICfg.RateLimit = cfg.RateLimit
		openAICfg.RateLimitInterval = cfg.RateLimitInterval
	}
	return openAICfg, nil
}
