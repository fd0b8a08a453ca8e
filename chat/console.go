package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Command is a console input classified before it reaches the turn pipeline.
type Command int

const (
	CommandMessage Command = iota // Anything else: sent to the model
	CommandEmpty                  // Blank line: re-prompt
	CommandExit                   // exit or quit
	CommandClear                  // clear: switch to a fresh thread
)

// ParseCommand classifies a trimmed, case-insensitive console line.
func ParseCommand(line string) Command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return CommandEmpty
	case "exit", "quit":
		return CommandExit
	case "clear":
		return CommandClear
	default:
		return CommandMessage
	}
}

const welcome = "Chatbot console. Type 'exit' to quit, 'clear' to clear memory for this thread."

// Console is the read-eval-print loop around a Controller.
type Console struct {
	controller *Controller
	in         *bufio.Scanner
	out        io.Writer

	you       lipgloss.Style
	assistant lipgloss.Style
	failure   lipgloss.Style
	notice    lipgloss.Style
}

// NewConsole reads lines from in and writes prompts and replies to out. Prefix
// styling is only emitted when out is a terminal.
func NewConsole(controller *Controller, in io.Reader, out io.Writer) *Console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	renderer := lipgloss.NewRenderer(out)
	return &Console{
		controller: controller,
		in:         scanner,
		out:        out,
		you:        renderer.NewStyle().Bold(true),
		assistant:  renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		failure:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		notice:     renderer.NewStyle().Faint(true),
	}
}

// Run processes input until exit, end of input, or ctx is cancelled. Turn
// failures are printed and the loop continues.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, welcome)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(c.out, "\n%s ", c.you.Render("You:"))
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(c.out, "\nGoodbye.")
			return nil
		}
		line := strings.TrimSpace(c.in.Text())

		switch ParseCommand(line) {
		case CommandEmpty:
			continue
		case CommandExit:
			fmt.Fprintln(c.out, "Goodbye.")
			return nil
		case CommandClear:
			id := c.controller.Clear()
			fmt.Fprintln(c.out, c.notice.Render("Switched to new thread id: "+id))
			continue
		}

		reply, err := c.controller.Turn(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(c.out, "\n%s %v\n", c.failure.Render("Error:"), errorMessage(err))
			continue
		}
		fmt.Fprintf(c.out, "\n%s %s\n", c.assistant.Render("Assistant:"), reply.Content)
	}
}

// errorMessage strips the turn bookkeeping from user-facing errors.
func errorMessage(err error) error {
	var turnErr *TurnError
	if errors.As(err, &turnErr) {
		return turnErr.Err
	}
	return err
}
