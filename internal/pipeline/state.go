package pipeline

import "fmt"

// State is a pipeline run state. Transitions only move forward; Failed is terminal.
type State int

const (
	Init State = iota
	Extracted
	Transformed
	Persisted
	Queried
	Done
	Failed
)

var stateNames = [...]string{"Init", "Extracted", "Transformed", "Persisted", "Queried", "Done", "Failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Done || s == Failed }

// Stage names used in failure reports.
const (
	StageExtract   = "Extract"
	StageTransform = "Transform"
	StageLoad      = "Load"
	StageQuery     = "Query"
)

// StageError records which stage aborted the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s failed: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }
