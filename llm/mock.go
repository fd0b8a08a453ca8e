package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider implements Model for tests and offline runs.
// It provides configurable response patterns and error simulation capabilities
type MockProvider struct {
	mu            sync.Mutex
	name          string
	responses     []Response
	responseIndex int
	errors        []error // consumed one per call before responses
	patterns      map[string]string
	callCount     int
	lastPrompt    []Message
	config        map[string]any
	weigh         func(Message) int
}

// NewMockProvider creates a new mock LLM provider that echoes the last user message
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:     name,
		config:   make(map[string]any),
		patterns: make(map[string]string),
	}
}

// CallLLM returns the next queued error, a pattern match, the next scripted response
// or an echo of the last user message, in that order of preference.
func (m *MockProvider) CallLLM(ctx context.Context, messages []Message) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastPrompt = append([]Message(nil), messages...)

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(messages) == 0 {
		return Response{}, ErrNoMessages
	}

	if len(m.errors) > 0 {
		err := m.errors[0]
		m.errors = m.errors[1:]
		if err != nil {
			return Response{}, err
		}
	}

	last := messages[len(messages)-1]
	if last.Role == RoleUser && len(m.patterns) > 0 {
		userInput := strings.ToLower(last.Content)
		for pattern, reply := range m.patterns {
			if strings.Contains(userInput, strings.ToLower(pattern)) {
				return Single(NewAssistantMessage(reply)), nil
			}
		}
	}

	if len(m.responses) > 0 {
		response := m.responses[m.responseIndex]
		// Cycle through responses for multiple calls
		m.responseIndex = (m.responseIndex + 1) % len(m.responses)
		return response, nil
	}

	if last.Role == RoleUser {
		return Single(NewAssistantMessage(fmt.Sprintf("Mock response to: %s", last.Content))), nil
	}
	return Single(NewAssistantMessage("Mock response from " + m.name)), nil
}

// CountTokens weighs a message with the configured function, or the character estimate
func (m *MockProvider) CountTokens(ctx context.Context, msg Message) (int, error) {
	m.mu.Lock()
	weigh := m.weigh
	m.mu.Unlock()

	if weigh != nil {
		return weigh(msg), nil
	}
	return EstimateCounter{}.CountTokens(ctx, msg)
}

// GetName returns the mock provider name
func (m *MockProvider) GetName() string {
	return m.name
}

// SetConfig stores the configuration; the mock ignores it otherwise
func (m *MockProvider) SetConfig(config map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
	return nil
}

// SetResponses configures the scripted responses that the mock cycles through
func (m *MockProvider) SetResponses(responses ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	m.responseIndex = 0
}

// SetReplies is a shorthand for scripting single assistant replies
func (m *MockProvider) SetReplies(replies ...string) {
	responses := make([]Response, len(replies))
	for i, reply := range replies {
		responses[i] = Single(NewAssistantMessage(reply))
	}
	m.SetResponses(responses...)
}

// FailNext queues errors returned by the next calls, one per call
func (m *MockProvider) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, errs...)
}

// SetResponsePattern configures responses based on input keywords
func (m *MockProvider) SetResponsePattern(patterns map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = patterns
}

// SetTokenFunc overrides how CountTokens weighs a message
func (m *MockProvider) SetTokenFunc(weigh func(Message) int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weigh = weigh
}

// GetCallCount returns the number of times CallLLM has been called
func (m *MockProvider) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompt returns a copy of the messages passed to the most recent call
func (m *MockProvider) LastPrompt() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.lastPrompt...)
}

// Reset resets the mock provider to initial state
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.responseIndex = 0
	m.errors = nil
	m.patterns = make(map[string]string)
	m.config = make(map[string]any)
	m.callCount = 0
	m.lastPrompt = nil
	m.weigh = nil
}

var _ Model = (*MockProvider)(nil)
