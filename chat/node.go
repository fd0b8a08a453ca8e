package chat

import (
	"context"
	"fmt"

	"github.com/alt-coder/pocketchat/core"
	"github.com/alt-coder/pocketchat/llm"
	"github.com/alt-coder/pocketchat/prompt"
	"github.com/alt-coder/pocketchat/thread"
	"github.com/alt-coder/pocketchat/trim"
)

// TurnState is the graph state for one turn.
type TurnState struct {
	ThreadID string
	TurnID   string
	Input    llm.Message

	Window  trim.Result   // Trimmed history sent to the model
	Prompt  []llm.Message // System message followed by Window.Messages
	Replies []llm.Message // Normalized model output appended to the thread
	Reply   llm.Message   // Last of Replies, shown to the user
	Err     error         // Set when the turn fails
}

// callResult is the outcome of one model call.
type callResult struct {
	replies []llm.Message
	err     error
}

// modelNode runs the turn pipeline: Prep appends the input and builds the prompt,
// Exec calls the model, Post appends the replies.
type modelNode struct {
	store     *thread.Store
	trimmer   *trim.Trimmer
	assembler *prompt.Assembler
	model     llm.Provider
}

func (n *modelNode) Prep(ctx context.Context, state *TurnState) [][]llm.Message {
	// The input is kept even if the model call fails.
	n.store.Append(state.ThreadID, state.Input)
	history := n.store.GetOrCreate(state.ThreadID)

	window, err := n.trimmer.Trim(ctx, history)
	if err != nil {
		state.Err = fmt.Errorf("trim history: %w", err)
		return nil
	}
	state.Window = window
	state.Prompt = n.assembler.Assemble(window.Messages)
	return [][]llm.Message{state.Prompt}
}

func (n *modelNode) Exec(ctx context.Context, prompt []llm.Message) (callResult, error) {
	response, err := n.model.CallLLM(ctx, prompt)
	if err != nil {
		return callResult{}, fmt.Errorf("%s call: %w", n.model.GetName(), err)
	}

	replies, err := Normalize(response)
	if err != nil {
		return callResult{}, err
	}
	return callResult{replies: replies}, nil
}

func (n *modelNode) Post(_ context.Context, state *TurnState, prepRes [][]llm.Message, execResults ...callResult) core.Action {
	if len(prepRes) == 0 || len(execResults) == 0 {
		return core.ActionFailure
	}

	result := execResults[0]
	if result.err != nil {
		state.Err = result.err
		return core.ActionFailure
	}

	n.store.Append(state.ThreadID, result.replies...)
	state.Replies = result.replies
	state.Reply = result.replies[len(result.replies)-1]
	return core.ActionSuccess
}

func (n *modelNode) ExecFallback(err error) callResult {
	return callResult{err: err}
}

var _ core.BaseNode[TurnState, []llm.Message, callResult] = (*modelNode)(nil)
