// Package prompt builds the ordered message list sent to the model.
package prompt

import "github.com/alt-coder/pocketchat/llm"

// DefaultSystemPrompt is the instruction used when none is configured.
const DefaultSystemPrompt = "You are a helpful assistant. Answer concisely."

// Assembler prefixes a conversation window with a fixed system instruction.
type Assembler struct {
	system llm.Message
}

// NewAssembler creates an Assembler for the given system instruction.
func NewAssembler(system string) *Assembler {
	return &Assembler{system: llm.NewSystemMessage(system)}
}

// SystemMessage returns the configured system message.
func (a *Assembler) SystemMessage() llm.Message {
	return a.system
}

// Assemble returns the system message followed by the window, in order.
// The window is copied, never reordered or deduplicated.
func (a *Assembler) Assemble(window []llm.Message) []llm.Message {
	prompt := make([]llm.Message, 0, len(window)+1)
	prompt = append(prompt, a.system)
	return append(prompt, window...)
}
