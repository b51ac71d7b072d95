package workflow

import "fmt"

// WorkflowError wraps a step failure together with the state at which the
// pipeline failed. Callers match it with errors.As and inspect State.
type WorkflowError struct {
	State State
	Err   error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow failed at state %s: %v", e.State, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }
