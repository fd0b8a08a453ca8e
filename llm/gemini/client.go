package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alt-coder/pocketchat/llm"
	"google.golang.org/genai"
)

// GeminiClient implements llm.Model for Google's Gemini models
type GeminiClient struct {
	genaiClient *genai.Client
	config      *Config

	// Rate limiting
	rateLimiter *time.Ticker
	tokens      chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// CallLLM converts the prompt to Gemini contents, generates, and maps every returned
// candidate to an assistant message. More than one candidate yields llm.Multiple.
func (c *GeminiClient) CallLLM(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	if len(messages) == 0 {
		return llm.Response{}, llm.ErrNoMessages
	}

	if err := c.acquire(ctx); err != nil {
		return llm.Response{}, err
	}

	system, contents := convertToGenaiMessages(messages)
	if len(contents) == 0 {
		return llm.Response{}, fmt.Errorf("prompt has no user or assistant messages: %w", llm.ErrNoMessages)
	}

	response, err := c.genaiClient.Models.GenerateContent(ctx, c.config.Model, contents, c.generateConfig(system))
	if err != nil {
		return llm.Response{}, fmt.Errorf("failed to generate content: %w", err)
	}

	return convertResponse(response)
}

// CountTokens asks the Gemini API for the token weight of a single message
func (c *GeminiClient) CountTokens(ctx context.Context, msg llm.Message) (int, error) {
	content := &genai.Content{
		Role:  getRole(msg.Role),
		Parts: []*genai.Part{{Text: msg.Content}},
	}
	response, err := c.genaiClient.Models.CountTokens(ctx, c.config.Model, []*genai.Content{content}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return int(response.TotalTokens), nil
}

func (c *GeminiClient) generateConfig(system *genai.Content) *genai.GenerateContentConfig {
	temperature := c.config.Temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &temperature,
	}
	if c.config.CandidateCount > 1 {
		config.CandidateCount = int32(c.config.CandidateCount)
	}
	return config
}

// acquire blocks on the token bucket when rate limiting is enabled
func (c *GeminiClient) acquire(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	select {
	case <-c.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// convertToGenaiMessages splits system messages into the system instruction and
// converts the rest to Gemini contents
func convertToGenaiMessages(messages []llm.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			if system == nil {
				system = &genai.Content{Role: string(genai.RoleUser)}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  getRole(msg.Role),
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	return system, contents
}

func convertResponse(response *genai.GenerateContentResponse) (llm.Response, error) {
	if response == nil || len(response.Candidates) == 0 {
		return llm.Response{}, llm.ErrEmptyResponse
	}

	replies := make([]llm.Message, 0, len(response.Candidates))
	for _, candidate := range response.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		replies = append(replies, llm.NewAssistantMessage(candidateText(candidate.Content)))
	}

	switch len(replies) {
	case 0:
		return llm.Response{}, llm.ErrEmptyResponse
	case 1:
		return llm.Single(replies[0]), nil
	default:
		return llm.Multiple(replies...), nil
	}
}

// candidateText joins the text parts of a candidate, skipping thought summaries
func candidateText(content *genai.Content) string {
	var builder strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		builder.WriteString(part.Text)
	}
	return builder.String()
}

func getRole(role llm.Role) string {
	switch role {
	case llm.RoleAssistant:
		return string(genai.RoleModel)
	default:
		return string(genai.RoleUser)
	}
}

// GetName returns the provider name
func (c *GeminiClient) GetName() string {
	return "gemini"
}

// SetConfig updates the client configuration
func (c *GeminiClient) SetConfig(config map[string]any) error {
	if c.config == nil {
		c.config = &Config{}
	}

	if model, ok := config["model"].(string); ok {
		c.config.Model = model
	}
	if temp, ok := config["temperature"].(float32); ok {
		c.config.Temperature = temp
	}
	if apiKey, ok := config["apiKey"].(string); ok {
		c.config.APIKey = apiKey
	}
	if candidates, ok := config["candidateCount"].(int); ok {
		c.config.CandidateCount = candidates
	}
	if rateLimit, ok := config["rateLimit"].(int); ok {
		c.config.RateLimit = rateLimit
	}
	if rateLimitInterval, ok := config["rateLimitInterval"].(time.Duration); ok {
		c.config.RateLimitInterval = rateLimitInterval
	}

	return nil
}

// NewGeminiClient creates a new Gemini client with the provided configuration
func NewGeminiClient(ctx context.Context, config *Config) (*GeminiClient, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: config.Backend,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	client := &GeminiClient{
		genaiClient: genaiClient,
		config:      config,
	}

	if config.RateLimit > 0 {
		tokens := make(chan struct{}, config.RateLimit)
		for i := 0; i < config.RateLimit; i++ {
			tokens <- struct{}{}
		}

		client.rateLimiter = time.NewTicker(config.RateLimitInterval / time.Duration(config.RateLimit))
		client.tokens = tokens
		client.done = make(chan struct{})

		go client.refillTokens()
	}

	return client, nil
}

// refillTokens runs in a goroutine to refill the token bucket at the configured rate
// until Close is called
func (c *GeminiClient) refillTokens() {
	for {
		select {
		case <-c.done:
			return
		case <-c.rateLimiter.C:
			select {
			case c.tokens <- struct{}{}:
			default:
				// bucket full
			}
		}
	}
}

// Close stops the rate limiter and its refill goroutine. It is safe to call more than once.
func (c *GeminiClient) Close() {
	if c.rateLimiter == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.rateLimiter.Stop()
		close(c.done)
	})
}

var _ llm.Model = (*GeminiClient)(nil)
