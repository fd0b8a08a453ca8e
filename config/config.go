// Package config loads the console chatbot settings from defaults, an optional
// YAML file, the environment and command-line flags, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/alt-coder/pocketchat/chat"
	"github.com/alt-coder/pocketchat/llm"
	"github.com/alt-coder/pocketchat/logging"
	"github.com/alt-coder/pocketchat/prompt"
	"github.com/alt-coder/pocketchat/trim"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at a YAML config file
const FileEnv = "CHATBOT_CONFIG"

// Supported provider names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds every setting of the console chatbot
type Config struct {
	Provider    string  `yaml:"provider"`    // gemini, openai or mock
	Model       string  `yaml:"model"`       // Empty selects the provider default
	Temperature float32 `yaml:"temperature"` // Sampling temperature, 0.0 to 2.0

	SystemPrompt  string `yaml:"system_prompt"`
	MaxTokens     int    `yaml:"max_tokens"`     // Trim budget
	IncludeSystem bool   `yaml:"include_system"` // Charge the system prompt to the budget

	ThreadID    string        `yaml:"thread_id"`
	ClearSuffix string        `yaml:"clear_suffix"`
	TurnTimeout time.Duration `yaml:"turn_timeout"`

	LogLevel string `yaml:"log_level"` // debug, info, warn or error

	CandidateCount    int           `yaml:"candidate_count"` // Replies requested per call
	RateLimit         int           `yaml:"rate_limit"`      // Requests per interval, 0 = disabled
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`
}

// Default returns the settings of the desktop chatbot.
func Default() *Config {
	return &Config{
		Provider:          ProviderGemini,
		Temperature:       0.7,
		SystemPrompt:      prompt.DefaultSystemPrompt,
		MaxTokens:         trim.DefaultMaxTokens,
		IncludeSystem:     true,
		ThreadID:          "thread_desktop",
		ClearSuffix:       "_new",
		TurnTimeout:       60 * time.Second,
		LogLevel:          "warn",
		CandidateCount:    1,
		RateLimitInterval: time.Minute,
	}
}

// LoadFile overlays the YAML file at path. Keys missing from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the CHAT_* environment variables.
func (c *Config) ApplyEnv() {
	c.Provider = getEnvOrDefault("CHAT_PROVIDER", c.Provider)
	c.Model = getEnvOrDefault("CHAT_MODEL", c.Model)
	c.Temperature = getEnvFloatOrDefault("CHAT_TEMPERATURE", c.Temperature)
	c.MaxTokens = getEnvIntOrDefault("CHAT_MAX_TOKENS", c.MaxTokens)
	c.ThreadID = getEnvOrDefault("CHAT_THREAD_ID", c.ThreadID)
	c.TurnTimeout = getEnvDurationOrDefault("CHAT_TURN_TIMEOUT", c.TurnTimeout)
	c.LogLevel = getEnvOrDefault("CHAT_LOG_LEVEL", c.LogLevel)
}

// Validate checks if the configuration is valid and complete
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unknown provider %q, expected %s, %s or %s", c.Provider, ProviderGemini, ProviderOpenAI, ProviderMock)
	}

	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", c.Temperature)
	}

	if c.CandidateCount < 0 {
		return fmt.Errorf("candidate count cannot be negative, got %d", c.CandidateCount)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative, got %d", c.RateLimit)
	}

	if c.RateLimit > 0 && c.RateLimitInterval <= 0 {
		return fmt.Errorf("rate limit interval must be positive when rate limiting is enabled, got %v", c.RateLimitInterval)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return c.Chat().Validate()
}

// Chat returns the turn controller settings.
func (c *Config) Chat() chat.Config {
	return chat.Config{
		ThreadID:     c.ThreadID,
		ClearSuffix:  c.ClearSuffix,
		SystemPrompt: c.SystemPrompt,
		Budget: trim.Budget{
			MaxTokens:     c.MaxTokens,
			IncludeSystem: c.IncludeSystem,
			StartOn:       llm.RoleUser,
		},
		TurnTimeout: c.TurnTimeout,
	}
}
