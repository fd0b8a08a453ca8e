// Package trim cuts a conversation history down to the newest window that fits a
// token budget.
package trim

import (
	"context"
	"fmt"

	"github.com/alt-coder/pocketchat/llm"
)

// DefaultMaxTokens is the budget used when none is configured.
const DefaultMaxTokens = 1500

// Budget describes how much history may be sent to the model in one call.
type Budget struct {
	MaxTokens     int      // Total weight allowed, including the system message when IncludeSystem is set
	IncludeSystem bool     // Charge the system message against MaxTokens
	StartOn       llm.Role // Role the window must begin with; empty disables the anchor
	AllowPartial  bool     // Must be false: messages are never cut mid-content
}

// DefaultBudget returns a 1500 token budget that counts the system message and
// anchors the window on a human message.
func DefaultBudget() Budget {
	return Budget{
		MaxTokens:     DefaultMaxTokens,
		IncludeSystem: true,
		StartOn:       llm.RoleUser,
	}
}

// Validate checks the budget can be honored.
func (b Budget) Validate() error {
	if b.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", b.MaxTokens)
	}
	if b.AllowPartial {
		return fmt.Errorf("partial messages are not supported")
	}
	switch b.StartOn {
	case "", llm.RoleUser, llm.RoleAssistant, llm.RoleSystem:
	default:
		return fmt.Errorf("unknown start role %q", b.StartOn)
	}
	return nil
}

// Result is a trimmed window and its bookkeeping.
type Result struct {
	Messages   []llm.Message // Contiguous suffix of the input history
	Tokens     int           // Sum of whole-message weights in Messages
	Dropped    int           // Number of older messages left out
	OverBudget bool          // Messages is the fallback human message and exceeds the budget
}

// Trimmer applies a Budget using a TokenCounter.
type Trimmer struct {
	counter llm.TokenCounter
	budget  Budget
	system  *llm.Message
}

// New creates a Trimmer. system may be nil when no system message is sent.
func New(counter llm.TokenCounter, budget Budget, system *llm.Message) (*Trimmer, error) {
	if counter == nil {
		return nil, fmt.Errorf("token counter cannot be nil")
	}
	if err := budget.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trim budget: %w", err)
	}
	return &Trimmer{counter: counter, budget: budget, system: system}, nil
}

// Budget returns the configured budget.
func (t *Trimmer) Budget() Budget {
	return t.budget
}

// Trim returns the longest trailing window of history whose weight fits the
// budget, starting on the anchor role. When no such window exists but the
// history holds a human message, the most recent human message is returned
// alone regardless of its weight.
func (t *Trimmer) Trim(ctx context.Context, history []llm.Message) (Result, error) {
	remaining := t.budget.MaxTokens
	if t.budget.IncludeSystem && t.system != nil {
		weight, err := t.counter.CountTokens(ctx, *t.system)
		if err != nil {
			return Result{}, fmt.Errorf("count system message: %w", err)
		}
		remaining -= weight
	}

	// Scan newest to oldest, stopping before the budget would be exceeded.
	start := len(history)
	total := 0
	weights := make([]int, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		weight, err := t.counter.CountTokens(ctx, history[i])
		if err != nil {
			return Result{}, fmt.Errorf("count message %d: %w", i, err)
		}
		if total+weight > remaining {
			break
		}
		weights[i] = weight
		total += weight
		start = i
	}

	// Drop the oldest messages until the window begins on the anchor role.
	if t.budget.StartOn != "" {
		for start < len(history) && history[start].Role != t.budget.StartOn {
			total -= weights[start]
			start++
		}
	}

	if start < len(history) {
		return Result{
			Messages: history[start:len(history):len(history)],
			Tokens:   total,
			Dropped:  start,
		}, nil
	}

	return t.fallback(ctx, history, remaining)
}

// fallback returns the most recent human message alone.
func (t *Trimmer) fallback(ctx context.Context, history []llm.Message, remaining int) (Result, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != llm.RoleUser {
			continue
		}
		weight, err := t.counter.CountTokens(ctx, history[i])
		if err != nil {
			return Result{}, fmt.Errorf("count message %d: %w", i, err)
		}
		return Result{
			Messages:   []llm.Message{history[i]},
			Tokens:     weight,
			Dropped:    len(history) - 1,
			OverBudget: weight > remaining,
		}, nil
	}
	return Result{Dropped: len(history)}, nil
}
