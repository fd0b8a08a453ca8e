package llm

import (
	"context"
	"errors"
)

// Role identifies who authored a message.
type Role string

const (
	// RoleSystem is used for the fixed instruction that leads every prompt
	RoleSystem Role = "system"
	// RoleUser is used for human-authored messages
	RoleUser Role = "user"
	// RoleAssistant is used for model replies
	RoleAssistant Role = "assistant"
)

// Message is one turn of dialogue. It is a value type and is never mutated after creation.
type Message struct {
	Role    Role   // system, user or assistant
	Content string // The actual message content
}

// NewUserMessage creates a human-authored message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a model-authored message
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a system instruction message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ResponseKind tags the shape of a provider reply.
type ResponseKind int

const (
	// KindSingle means the provider returned exactly one message
	KindSingle ResponseKind = iota
	// KindMultiple means the provider returned an ordered list of messages
	KindMultiple
)

// Response is the tagged result of a provider call.
type Response struct {
	Kind     ResponseKind
	Messages []Message
}

// Single wraps one reply message.
func Single(msg Message) Response {
	return Response{Kind: KindSingle, Messages: []Message{msg}}
}

// Multiple wraps an ordered list of reply messages.
func Multiple(msgs ...Message) Response {
	return Response{Kind: KindMultiple, Messages: msgs}
}

var (
	// ErrNoMessages is returned when a provider is called with an empty prompt
	ErrNoMessages = errors.New("no messages to send")
	// ErrEmptyResponse is returned when a provider reply carries no candidates
	ErrEmptyResponse = errors.New("provider returned no messages")
	// ErrMalformedResponse is returned when a reply cannot be normalized
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Provider defines the contract that all LLM implementations must follow
type Provider interface {
	// CallLLM sends messages to the LLM and returns the response
	CallLLM(ctx context.Context, messages []Message) (Response, error)

	// GetName returns the name/identifier of the LLM provider
	GetName() string

	// SetConfig allows dynamic configuration updates for the provider
	SetConfig(config map[string]any) error
}

// TokenCounter weighs a single message in provider tokens.
type TokenCounter interface {
	CountTokens(ctx context.Context, msg Message) (int, error)
}

// Model is a provider that can also weigh messages for trimming.
type Model interface {
	Provider
	TokenCounter
}
