package chat

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a turn is started without any text.
var ErrEmptyInput = errors.New("empty input")

// TurnError reports a failed turn. The human message that started the turn has
// already been appended to the thread.
type TurnError struct {
	ThreadID string
	TurnID   string
	Err      error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %s on thread %s failed: %v", e.TurnID, e.ThreadID, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}
