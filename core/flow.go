package core

import "context"

// Flow represents a workflow subgraph that implements Workflow
type Flow[State any] struct {
	startNode  Workflow[State]
	successors map[Action]Workflow[State]
}

// NewFlow creates a new flow starting at startNode
func NewFlow[State any](startNode Workflow[State]) *Flow[State] {
	return &Flow[State]{
		startNode:  startNode,
		successors: make(map[Action]Workflow[State]),
	}
}

// Run executes workflows from the start node, following action-based transitions
// until a workflow has no successor for its action. A cancelled context ends the
// flow with ActionFailure before the next workflow starts.
func (f *Flow[State]) Run(ctx context.Context, state *State) Action {
	currentWorkflow := f.startNode
	if currentWorkflow == nil {
		return ActionFailure
	}
	finalAction := ActionSuccess

	for currentWorkflow != nil {
		if ctx.Err() != nil {
			return ActionFailure
		}

		action := currentWorkflow.Run(ctx, state)
		finalAction = action

		nextWorkflow := currentWorkflow.GetSuccessor(action)
		if nextWorkflow == nil {
			nextWorkflow = f.GetSuccessor(action)
		}
		currentWorkflow = nextWorkflow
	}
	return finalAction
}

// GetSuccessor returns the successor workflow for a given action
func (f *Flow[State]) GetSuccessor(action Action) Workflow[State] {
	return f.successors[action]
}

// AddSuccessor connects a successor workflow for a specific action (ActionSuccess by default)
func (f *Flow[State]) AddSuccessor(successor Workflow[State], action ...Action) Workflow[State] {
	if f.successors == nil {
		f.successors = make(map[Action]Workflow[State])
	}
	if successor == nil {
		return successor
	}
	if len(action) == 0 {
		action = append(action, ActionSuccess)
	}
	f.successors[action[0]] = successor
	return successor
}
