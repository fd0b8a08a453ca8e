package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alt-coder/pocketchat/llm"
)

func runConsole(t *testing.T, mock *llm.MockProvider, input string) (string, *Controller) {
	t.Helper()
	controller, _ := newTestController(t, mock, nil)
	var out bytes.Buffer
	if err := NewConsole(controller, strings.NewReader(input), &out).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out.String(), controller
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", CommandEmpty},
		{"   ", CommandEmpty},
		{"exit", CommandExit},
		{"EXIT", CommandExit},
		{" Quit ", CommandExit},
		{"clear", CommandClear},
		{"Clear", CommandClear},
		{"clear the table", CommandMessage},
		{"hello", CommandMessage},
	}

	for _, tt := range tests {
		if got := ParseCommand(tt.line); got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestConsole_ExitWithoutModelCall(t *testing.T) {
	for _, input := range []string{"exit\n", "QUIT\n"} {
		mock := llm.NewMockProvider("mock")
		out, controller := runConsole(t, mock, input)

		if !strings.HasPrefix(out, welcome) {
			t.Errorf("missing welcome line: %q", out)
		}
		if !strings.Contains(out, "Goodbye.") {
			t.Errorf("missing goodbye: %q", out)
		}
		if mock.GetCallCount() != 0 {
			t.Errorf("%q should not call the model", input)
		}
		if len(controller.History()) != 0 {
			t.Errorf("%q should not touch history", input)
		}
	}
}

func TestConsole_Conversation(t *testing.T) {
	mock := llm.NewMockProvider("mock")
	mock.SetReplies("hello there", "sure")
	out, controller := runConsole(t, mock, "hi\n\n   \nhelp me\nexit\n")

	for _, want := range []string{"Assistant: hello there", "Assistant: sure"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
	if mock.GetCallCount() != 2 {
		t.Errorf("blank lines must not reach the model, got %d calls", mock.GetCallCount())
	}
	if got := strings.Count(out, "You:"); got != 5 {
		t.Errorf("expected a prompt per line read, got %d", got)
	}
	if len(controller.History()) != 4 {
		t.Errorf("history = %+v", controller.History())
	}
}

func TestConsole_Clear(t *testing.T) {
	mock := llm.NewMockProvider("mock")
	out, controller := runConsole(t, mock, "one\nclear\ntwo\nexit\n")

	if !strings.Contains(out, "Switched to new thread id: thread_desktop_new") {
		t.Errorf("missing thread switch notice: %q", out)
	}
	if controller.ThreadID() != "thread_desktop_new" {
		t.Errorf("active thread = %q", controller.ThreadID())
	}
	history := controller.History()
	if len(history) != 2 || history[0] != llm.NewUserMessage("two") {
		t.Errorf("new thread history = %+v", history)
	}
}

func TestConsole_ErrorKeepsLoopRunning(t *testing.T) {
	mock := llm.NewMockProvider("mock")
	mock.FailNext(errors.New("service unavailable"))
	mock.SetReplies("back again")
	out, _ := runConsole(t, mock, "first\nsecond\nexit\n")

	if !strings.Contains(out, "Error: mock call: service unavailable") {
		t.Errorf("missing inline error: %q", out)
	}
	if !strings.Contains(out, "Assistant: back again") {
		t.Errorf("loop should continue after an error: %q", out)
	}
}

func TestConsole_EndOfInput(t *testing.T) {
	mock := llm.NewMockProvider("mock")
	out, _ := runConsole(t, mock, "hi")

	if !strings.Contains(out, "Assistant: Mock response to: hi") {
		t.Errorf("last line without newline should be processed: %q", out)
	}
	if !strings.HasSuffix(out, "Goodbye.\n") {
		t.Errorf("end of input should say goodbye: %q", out)
	}
}

func TestConsole_CancelledContext(t *testing.T) {
	controller, _ := newTestController(t, llm.NewMockProvider("mock"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := NewConsole(controller, strings.NewReader("hi\n"), &out).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConsole_CancelDuringTurnEndsSession(t *testing.T) {
	controller, store := newTestController(t, blockingModel{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	var out bytes.Buffer
	err := NewConsole(controller, strings.NewReader("first\nsecond\n"), &out).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if strings.Contains(out.String(), "Error:") {
		t.Errorf("a cancelled turn should not be reported as a turn error: %q", out.String())
	}
	if got := store.Len("thread_desktop"); got != 1 {
		t.Errorf("no further lines should be read after cancellation, got %d messages", got)
	}
}
