package openai

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alt-coder/pocketchat/llm"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements llm.Model for OpenAI's chat models
type OpenAIClient struct {
	client  *openai.Client
	config  *Config
	counter llm.EstimateCounter

	// Rate limiting
	rateLimiter *time.Ticker
	tokens      chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// CallLLM sends the prompt as a chat completion. Every returned choice becomes an
// assistant message; more than one choice yields llm.Multiple.
func (c *OpenAIClient) CallLLM(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	if len(messages) == 0 {
		return llm.Response{}, llm.ErrNoMessages
	}

	if c.tokens != nil {
		select {
		case <-c.tokens:
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}

	request := c.buildRequest(messages)

	var response openai.ChatCompletionResponse
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		response, lastErr = c.client.CreateChatCompletion(ctx, request)
		if lastErr == nil {
			break
		}

		if attempt < c.config.MaxRetries {
			// Linear backoff between attempts
			waitTime := time.Duration(attempt+1) * time.Second
			select {
			case <-time.After(waitTime):
				continue
			case <-ctx.Done():
				return llm.Response{}, ctx.Err()
			}
		}
	}

	if lastErr != nil {
		return llm.Response{}, fmt.Errorf("chat completion failed after %d retries: %w", c.config.MaxRetries, lastErr)
	}

	return convertResponse(response)
}

// CountTokens estimates the weight of a message; the chat API has no counting endpoint
func (c *OpenAIClient) CountTokens(ctx context.Context, msg llm.Message) (int, error) {
	return c.counter.CountTokens(ctx, msg)
}

func (c *OpenAIClient) buildRequest(messages []llm.Message) openai.ChatCompletionRequest {
	request := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: convertToOpenAIMessages(messages),
	}

	// The temperature field is omitted when zero, so 0.0 is sent as the smallest float.
	request.Temperature = c.config.Temperature
	if request.Temperature == 0 {
		request.Temperature = math.SmallestNonzeroFloat32
	}
	if c.config.MaxTokens > 0 {
		request.MaxTokens = c.config.MaxTokens
	}
	if c.config.TopP != 1.0 {
		request.TopP = c.config.TopP
	}
	if c.config.Choices > 1 {
		request.N = c.config.Choices
	}
	return request
}

func convertResponse(response openai.ChatCompletionResponse) (llm.Response, error) {
	if len(response.Choices) == 0 {
		return llm.Response{}, llm.ErrEmptyResponse
	}

	replies := make([]llm.Message, 0, len(response.Choices))
	for _, choice := range response.Choices {
		replies = append(replies, llm.NewAssistantMessage(choice.Message.Content))
	}
	if len(replies) == 1 {
		return llm.Single(replies[0]), nil
	}
	return llm.Multiple(replies...), nil
}

// convertToOpenAIMessages converts generic messages to OpenAI format
func convertToOpenAIMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    getRole(msg.Role),
			Content: msg.Content,
		})
	}
	return openaiMessages
}

func getRole(role llm.Role) string {
	switch role {
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// GetName returns the provider name
func (c *OpenAIClient) GetName() string {
	return "openai"
}

// SetConfig updates the client configuration. Connection settings rebuild the client.
func (c *OpenAIClient) SetConfig(config map[string]any) error {
	if c.config == nil {
		c.config = &Config{}
	}

	rebuild := false
	if model, ok := config["model"].(string); ok {
		c.config.Model = model
	}
	if temp, ok := config["temperature"].(float32); ok {
		c.config.Temperature = temp
	}
	if apiKey, ok := config["apiKey"].(string); ok {
		c.config.APIKey = apiKey
		rebuild = true
	}
	if baseURL, ok := config["baseURL"].(string); ok {
		c.config.BaseURL = baseURL
		rebuild = true
	}
	if orgID, ok := config["orgID"].(string); ok {
		c.config.OrgID = orgID
		rebuild = true
	}
	if maxRetries, ok := config["maxRetries"].(int); ok {
		c.config.MaxRetries = maxRetries
	}
	if choices, ok := config["choices"].(int); ok {
		c.config.Choices = choices
	}
	if maxTokens, ok := config["maxTokens"].(int); ok {
		c.config.MaxTokens = maxTokens
	}
	if topP, ok := config["topP"].(float32); ok {
		c.config.TopP = topP
	}

	if rebuild {
		c.client = newAPIClient(c.config)
	}
	return nil
}

func newAPIClient(config *Config) *openai.Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.OrgID != "" {
		clientConfig.OrgID = config.OrgID
	}
	return openai.NewClientWithConfig(clientConfig)
}

// NewOpenAIClient creates a new OpenAI client with the provided configuration
func NewOpenAIClient(ctx context.Context, config *Config) (*OpenAIClient, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := &OpenAIClient{
		client: newAPIClient(config),
		config: config,
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
func (c *OpenAIClient) refillTokens() {
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
func (c *OpenAIClient) Close() {
	if c.rateLimiter == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.rateLimiter.Stop()
		close(c.done)
	})
}

var _ llm.Model = (*OpenAIClient)(nil)
