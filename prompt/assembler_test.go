package prompt

import (
	"testing"

	"github.com/alt-coder/pocketchat/llm"
)

func TestAssembler_Assemble(t *testing.T) {
	tests := []struct {
		name   string
		window []llm.Message
	}{
		{name: "empty window", window: nil},
		{name: "single message", window: []llm.Message{llm.NewUserMessage("hi")}},
		{
			name: "exchange",
			window: []llm.Message{
				llm.NewUserMessage("hi"),
				llm.NewAssistantMessage("hello"),
				llm.NewUserMessage("hi"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assembler := NewAssembler(DefaultSystemPrompt)
			got := assembler.Assemble(tt.window)

			if len(got) != len(tt.window)+1 {
				t.Fatalf("Assemble() length = %d, want %d", len(got), len(tt.window)+1)
			}
			if got[0] != llm.NewSystemMessage(DefaultSystemPrompt) {
				t.Errorf("first message = %+v, want the system message", got[0])
			}
			for i, msg := range tt.window {
				if got[i+1] != msg {
					t.Errorf("message %d = %+v, want %+v", i+1, got[i+1], msg)
				}
			}
		})
	}
}

func TestAssembler_DoesNotMutateWindow(t *testing.T) {
	assembler := NewAssembler("be brief")
	window := make([]llm.Message, 1, 4)
	window[0] = llm.NewUserMessage("hi")

	prompt := assembler.Assemble(window)
	prompt[1] = llm.NewUserMessage("changed")

	if window[0].Content != "hi" {
		t.Errorf("window was modified through the prompt: %+v", window)
	}
}

func TestAssembler_SystemMessage(t *testing.T) {
	assembler := NewAssembler("be brief")
	if got := assembler.SystemMessage(); got.Role != llm.RoleSystem || got.Content != "be brief" {
		t.Errorf("SystemMessage() = %+v", got)
	}
}
