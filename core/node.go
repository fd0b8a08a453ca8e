package core

import (
	"context"
	"sync"
)

// task is a piece of data to be processed by a worker
type task[T any] struct {
	pos    int
	result T
}

// Node represents a single node in the workflow graph and implements Workflow
type Node[State any, PrepResult any, ExecResults any] struct {
	node       BaseNode[State, PrepResult, ExecResults]
	maxRetries int
	successors map[Action]Workflow[State]
	routines   int
}

// NewNode wraps a BaseNode. maxRetries extra Exec attempts are made per item before
// falling back; maxRoutines bounds the number of items executed concurrently.
func NewNode[State any, PrepResult any, ExecResults any](basenode BaseNode[State, PrepResult, ExecResults], maxRetries int, maxRoutines int) *Node[State, PrepResult, ExecResults] {
	if maxRoutines < 1 {
		// If routines is 0 or negative, it would hang. Default to 1 worker.
		maxRoutines = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Node[State, PrepResult, ExecResults]{
		node:       basenode,
		maxRetries: maxRetries,
		routines:   maxRoutines,
		successors: make(map[Action]Workflow[State]),
	}
}

// executeWithRetry handles the retry logic and execution of a single item.
// A cancelled context stops further attempts.
func (n *Node[State, PrepResult, ExecResults]) executeWithRetry(ctx context.Context, input PrepResult) (ExecResults, error) {
	var execResult ExecResults
	var err error

	for i := 0; i < n.maxRetries+1; i++ {
		execResult, err = n.node.Exec(ctx, input)
		if err == nil {
			return execResult, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return execResult, err
}

// Run implements the Workflow interface and executes the three-phase execution model
func (n *Node[State, PrepResult, ExecResults]) Run(ctx context.Context, state *State) Action {
	prepRes := n.node.Prep(ctx, state)
	if len(prepRes) == 0 {
		// Nothing to execute, just call Post.
		return n.node.Post(ctx, state, prepRes)
	}

	numWorkers := n.routines
	if numWorkers > len(prepRes) {
		numWorkers = len(prepRes)
	}

	execResults := make([]ExecResults, len(prepRes))

	if numWorkers == 1 {
		for i, item := range prepRes {
			execResult, err := n.executeWithRetry(ctx, item)
			if err != nil {
				execResults[i] = n.node.ExecFallback(err)
			} else {
				execResults[i] = execResult
			}
		}
	} else {
		wg := &sync.WaitGroup{}
		prepResults := make(chan task[PrepResult], len(prepRes))

		worker := func() {
			defer wg.Done()
			for item := range prepResults {
				execResult, err := n.executeWithRetry(ctx, item.result)
				if err != nil {
					execResults[item.pos] = n.node.ExecFallback(err)
				} else {
					execResults[item.pos] = execResult
				}
			}
		}

		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go worker()
		}

		for i, item := range prepRes {
			prepResults <- task[PrepResult]{pos: i, result: item}
		}
		close(prepResults)
		wg.Wait()
	}

	return n.node.Post(ctx, state, prepRes, execResults...)
}

// SetMaxRetries updates the maximum retry count
func (n *Node[State, PrepResult, ExecResults]) SetMaxRetries(retries int) {
	if retries < 0 {
		retries = 0
	}
	n.maxRetries = retries
}

// SetMaxRoutines updates the maximum concurrent routines
func (n *Node[State, PrepResult, ExecResults]) SetMaxRoutines(routines int) {
	if routines < 1 {
		routines = 1
	}
	n.routines = routines
}

// AddSuccessor connects workflow for action; with no action it becomes the default successor
func (n *Node[State, PrepResult, ExecResults]) AddSuccessor(workflow Workflow[State], action ...Action) Workflow[State] {
	if workflow == nil {
		return workflow
	}
	if len(action) == 0 {
		n.successors[ActionDefault] = workflow
		return workflow
	}
	n.successors[action[0]] = workflow
	return workflow
}

// GetSuccessor gets the next Workflow as per action.
func (n *Node[State, PrepResult, ExecResults]) GetSuccessor(action Action) Workflow[State] {
	return n.successors[action]
}
