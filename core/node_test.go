package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
)

type counterState struct {
	Inputs  []int
	Outputs []string
	Visits  []string
}

// squareNode squares every input and fails for inputs listed in failOn
type squareNode struct {
	name       string
	failOn     map[int]int // input -> number of failing attempts before success, -1 = always
	attempts   map[int]*atomic.Int32
	postAction Action
}

func newSquareNode(name string, postAction Action) *squareNode {
	return &squareNode{name: name, failOn: map[int]int{}, attempts: map[int]*atomic.Int32{}, postAction: postAction}
}

func (s *squareNode) Prep(_ context.Context, state *counterState) []int {
	for _, in := range state.Inputs {
		if _, ok := s.attempts[in]; !ok {
			s.attempts[in] = &atomic.Int32{}
		}
	}
	return state.Inputs
}

func (s *squareNode) Exec(_ context.Context, in int) (string, error) {
	attempt := int(s.attempts[in].Add(1))
	if failures, ok := s.failOn[in]; ok && (failures < 0 || attempt <= failures) {
		return "", fmt.Errorf("%s failed on %d", s.name, in)
	}
	return fmt.Sprintf("%d", in*in), nil
}

func (s *squareNode) Post(_ context.Context, state *counterState, _ []int, execResults ...string) Action {
	state.Outputs = append(state.Outputs, execResults...)
	state.Visits = append(state.Visits, s.name)
	return s.postAction
}

func (s *squareNode) ExecFallback(err error) string {
	return "fallback"
}

func TestNode_Run_ThreePhases(t *testing.T) {
	node := NewNode[counterState, int, string](newSquareNode("square", ActionSuccess), 0, 1)
	state := &counterState{Inputs: []int{1, 2, 3}}

	action := node.Run(context.Background(), state)

	if action != ActionSuccess {
		t.Errorf("Run() = %v, expected %v", action, ActionSuccess)
	}
	want := []string{"1", "4", "9"}
	if fmt.Sprint(state.Outputs) != fmt.Sprint(want) {
		t.Errorf("Outputs = %v, expected %v", state.Outputs, want)
	}
}

func TestNode_Run_EmptyPrepCallsPost(t *testing.T) {
	node := NewNode[counterState, int, string](newSquareNode("square", ActionFailure), 0, 1)
	state := &counterState{}

	if action := node.Run(context.Background(), state); action != ActionFailure {
		t.Errorf("Run() = %v, expected %v", action, ActionFailure)
	}
	if len(state.Visits) != 1 {
		t.Errorf("Post should run once with no prep results, got %d visits", len(state.Visits))
	}
}

func TestNode_Run_RetryAndFallback(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		failures   int
		expected   string
		attempts   int32
	}{
		{name: "no retries falls back", maxRetries: 0, failures: 1, expected: "fallback", attempts: 1},
		{name: "retry recovers", maxRetries: 2, failures: 2, expected: "49", attempts: 3},
		{name: "retries exhausted", maxRetries: 1, failures: -1, expected: "fallback", attempts: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newSquareNode("square", ActionSuccess)
			base.failOn[7] = tt.failures
			node := NewNode[counterState, int, string](base, tt.maxRetries, 1)
			state := &counterState{Inputs: []int{7}}

			node.Run(context.Background(), state)

			if len(state.Outputs) != 1 || state.Outputs[0] != tt.expected {
				t.Errorf("Outputs = %v, expected [%s]", state.Outputs, tt.expected)
			}
			if got := base.attempts[7].Load(); got != tt.attempts {
				t.Errorf("attempts = %d, expected %d", got, tt.attempts)
			}
		})
	}
}

func TestNode_Run_WorkersKeepOrder(t *testing.T) {
	base := newSquareNode("square", ActionSuccess)
	base.failOn[3] = -1
	node := NewNode[counterState, int, string](base, 0, 4)
	state := &counterState{Inputs: []int{1, 2, 3, 4, 5, 6}}

	node.Run(context.Background(), state)

	want := []string{"1", "4", "fallback", "16", "25", "36"}
	if fmt.Sprint(state.Outputs) != fmt.Sprint(want) {
		t.Errorf("Outputs = %v, expected %v", state.Outputs, want)
	}
}

// cancelNode fails every attempt and cancels the context on the first one
type cancelNode struct {
	cancel   context.CancelFunc
	attempts int
}

func (c *cancelNode) Prep(context.Context, *counterState) []int { return []int{1} }
func (c *cancelNode) Exec(ctx context.Context, _ int) (string, error) {
	c.attempts++
	c.cancel()
	return "", ctx.Err()
}
func (c *cancelNode) Post(context.Context, *counterState, []int, ...string) Action {
	return ActionFailure
}
func (c *cancelNode) ExecFallback(err error) string { return err.Error() }

func TestNode_Run_CancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	base := &cancelNode{cancel: cancel}
	node := NewNode[counterState, int, string](base, 5, 1)

	node.Run(ctx, &counterState{})

	if base.attempts != 1 {
		t.Errorf("expected a single attempt after cancellation, got %d", base.attempts)
	}
}

func TestNode_AddSuccessor(t *testing.T) {
	first := NewNode[counterState, int, string](newSquareNode("first", ActionSuccess), 0, 1)
	second := NewNode[counterState, int, string](newSquareNode("second", ActionSuccess), 0, 1)

	if got := first.AddSuccessor(nil, ActionSuccess); got != nil {
		t.Errorf("nil successor should be ignored")
	}
	first.AddSuccessor(second)
	if first.GetSuccessor(ActionDefault) != second {
		t.Errorf("successor without action should be the default successor")
	}
	first.AddSuccessor(second, ActionContinue)
	if first.GetSuccessor(ActionContinue) != second {
		t.Errorf("successor not registered for ActionContinue")
	}
}

func TestNewNode_ClampsSettings(t *testing.T) {
	node := NewNode[counterState, int, string](newSquareNode("n", ActionSuccess), -3, 0)
	if node.maxRetries != 0 || node.routines != 1 {
		t.Errorf("expected clamped settings, got retries=%d routines=%d", node.maxRetries, node.routines)
	}
	node.SetMaxRoutines(-1)
	node.SetMaxRetries(-1)
	if node.maxRetries != 0 || node.routines != 1 {
		t.Errorf("setters should clamp, got retries=%d routines=%d", node.maxRetries, node.routines)
	}
}
