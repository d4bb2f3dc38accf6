package harness

import "fmt"

// ExecutionError reports a failed invocation of a target. It aborts the
// (target, discipline) pair it occurred in, never the whole suite.
type ExecutionError struct {
	Label      string
	Discipline Discipline
	Call       int // zero-based invocation index, -1 if no call was made
	Err        error
}

func (e *ExecutionError) Error() string {
	if e.Call < 0 {
		return fmt.Sprintf("target %q (%s): %v", e.Label, e.Discipline, e.Err)
	}

	return fmt.Sprintf("target %q (%s) call %d: %v",
		e.Label, e.Discipline, e.Call+1, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ConstructionError reports a target whose executable could not be built.
// It is fatal to the run it occurs in.
type ConstructionError struct {
	Label    string
	Strategy string
	Err      error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("building target %q (strategy %s): %v",
		e.Label, e.Strategy, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
