package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// Load builds the configuration for the console binary. args excludes the
// program name. Usage goes to stderr; -h returns pflag.ErrHelp.
func Load(args []string, stderr io.Writer) (*Config, error) {
	defaults := Default()
	flags := pflag.NewFlagSet("console-chat", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "YAML config file (default $"+FileEnv+")")
	provider := flags.String("provider", defaults.Provider, "model provider: gemini, openai or mock")
	model := flags.String("model", defaults.Model, "model name, empty for the provider default")
	temperature := flags.Float32("temperature", defaults.Temperature, "sampling temperature (0.0-2.0)")
	systemPrompt := flags.String("system-prompt", defaults.SystemPrompt, "instruction sent before every prompt")
	maxTokens := flags.Int("max-tokens", defaults.MaxTokens, "token budget for the trimmed history")
	includeSystem := flags.Bool("include-system", defaults.IncludeSystem, "charge the system prompt to the token budget")
	threadID := flags.String("thread-id", defaults.ThreadID, "initial conversation thread")
	clearSuffix := flags.String("clear-suffix", defaults.ClearSuffix, "suffix appended to the thread id by 'clear'")
	turnTimeout := flags.Duration("turn-timeout", defaults.TurnTimeout, "upper bound for one model call")
	logLevel := flags.String("log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	candidates := flags.Int("candidates", defaults.CandidateCount, "replies requested per model call")
	rateLimit := flags.Int("rate-limit", defaults.RateLimit, "requests per minute, 0 disables limiting")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	config := defaults
	path := *configPath
	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		if err := config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	config.ApplyEnv()

	// Only flags given on the command line override file and environment values.
	flags.Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "provider":
			config.Provider = *provider
		case "model":
			config.Model = *model
		case "temperature":
			config.Temperature = *temperature
		case "system-prompt":
			config.SystemPrompt = *systemPrompt
		case "max-tokens":
			config.MaxTokens = *maxTokens
		case "include-system":
			config.IncludeSystem = *includeSystem
		case "thread-id":
			config.ThreadID = *threadID
		case "clear-suffix":
			config.ClearSuffix = *clearSuffix
		case "turn-timeout":
			config.TurnTimeout = *turnTimeout
		case "log-level":
			config.LogLevel = *logLevel
		case "candidates":
			config.CandidateCount = *candidates
		case "rate-limit":
			config.RateLimit = *rateLimit
		}
	})

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
