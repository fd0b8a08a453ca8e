// Package chat runs conversation turns against a model and drives the console loop.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alt-coder/pocketchat/core"
	"github.com/alt-coder/pocketchat/llm"
	"github.com/alt-coder/pocketchat/prompt"
	"github.com/alt-coder/pocketchat/thread"
	"github.com/alt-coder/pocketchat/trim"
	"github.com/google/uuid"
)

// Config holds the settings of a Controller.
type Config struct {
	ThreadID     string        // Initial active thread
	ClearSuffix  string        // Appended to the active thread id by Clear
	SystemPrompt string        // Fixed instruction leading every prompt
	Budget       trim.Budget   // Trim budget applied before every model call
	TurnTimeout  time.Duration // Upper bound for one turn, token counting included
}

// DefaultConfig returns the settings of the desktop console chatbot.
func DefaultConfig() Config {
	return Config{
		ThreadID:     "thread_desktop",
		ClearSuffix:  "_new",
		SystemPrompt: prompt.DefaultSystemPrompt,
		Budget:       trim.DefaultBudget(),
		TurnTimeout:  60 * time.Second,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.ThreadID == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if c.ClearSuffix == "" {
		return fmt.Errorf("clear suffix cannot be empty")
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive, got %v", c.TurnTimeout)
	}
	return c.Budget.Validate()
}

// Controller runs one turn at a time against the active thread.
type Controller struct {
	mu       sync.Mutex
	store    *thread.Store
	flow     *core.Flow[TurnState]
	threadID string
	suffix   string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewController builds the single-node turn graph around model. store may be
// shared between controllers; logger may be nil. The system message is weighed
// once so that a model without a working token counter fails here.
func NewController(model llm.Model, store *thread.Store, config Config, logger *slog.Logger) (*Controller, error) {
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("thread store cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat configuration: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	assembler := prompt.NewAssembler(config.SystemPrompt)
	system := assembler.SystemMessage()
	counter := trim.NewCachingCounter(model)
	trimmer, err := trim.New(counter, config.Budget, &system)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.TurnTimeout)
	defer cancel()
	if _, err := counter.CountTokens(ctx, system); err != nil {
		return nil, fmt.Errorf("token counter unavailable: %w", err)
	}

	node := core.NewNode[TurnState, []llm.Message, callResult](&modelNode{
		store:     store,
		trimmer:   trimmer,
		assembler: assembler,
		model:     model,
	}, 0, 1)

	return &Controller{
		store:    store,
		flow:     core.NewFlow[TurnState](node),
		threadID: config.ThreadID,
		suffix:   config.ClearSuffix,
		timeout:  config.TurnTimeout,
		logger:   logger.With("provider", model.GetName()),
	}, nil
}

// Turn sends input as a human message on the active thread and returns the reply
// shown to the user. On failure the human message stays in the thread and the
// error is a *TurnError.
func (c *Controller) Turn(ctx context.Context, input string) (llm.Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return llm.Message{}, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state := &TurnState{
		ThreadID: c.threadID,
		TurnID:   uuid.Must(uuid.NewV7()).String(),
		Input:    llm.NewUserMessage(input),
	}
	logger := c.logger.With("thread_id", state.ThreadID, "turn_id", state.TurnID)
	logger.Debug("turn started", "input_chars", len(input))
	started := time.Now()

	turnCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if action := c.flow.Run(turnCtx, state); action != core.ActionSuccess {
		err := state.Err
		if err == nil {
			err = turnCtx.Err()
		}
		if err == nil {
			err = errors.New("turn ended without a reply")
		}
		logger.Warn("turn failed", "error", err, "elapsed", time.Since(started))
		return llm.Message{}, &TurnError{ThreadID: state.ThreadID, TurnID: state.TurnID, Err: err}
	}

	logger.Info("turn completed",
		"prompt_messages", len(state.Prompt),
		"window_tokens", state.Window.Tokens,
		"dropped", state.Window.Dropped,
		"over_budget", state.Window.OverBudget,
		"replies", len(state.Replies),
		"elapsed", time.Since(started),
	)
	return state.Reply, nil
}

// Clear switches the active thread to a fresh id derived from the current one.
// The previous thread's history stays in the store.
func (c *Controller) Clear() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.threadID
	c.threadID += c.suffix
	c.logger.Info("thread switched", "from", previous, "to", c.threadID)
	return c.threadID
}

// ThreadID returns the active thread id.
func (c *Controller) ThreadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadID
}

// History returns the active thread's messages.
func (c *Controller) History() []llm.Message {
	return c.store.GetOrCreate(c.ThreadID())
}
