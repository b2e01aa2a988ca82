package workflow

import (
	"time"
)

// StepState is the lifecycle position of a step.
type StepState string

const (
	StatePending    StepState = "pending"
	StateValidating StepState = "validating"
	StateDispatched StepState = "dispatched"
	StateSucceeded  StepState = "succeeded"
	StateFailed     StepState = "failed"
	StateRejected   StepState = "rejected"
)

// Terminal reports whether no further transitions are possible.
func (s StepState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateRejected:
		return true
	}
	return false
}

// StepResult is the immutable outcome of one step. Outputs is empty whenever
// OK is false.
type StepResult struct {
	Index    int           `json:"index"`
	Action   string        `json:"action"`
	OK       bool          `json:"ok"`
	Message  string        `json:"message"`
	Outputs  []string      `json:"outputs"`
	State    StepState     `json:"state"`
	Duration time.Duration `json:"duration_ns"`
}

// Run is the complete record of one recipe execution.
type Run struct {
	ID         string       `json:"run_id"`
	RecipeFile string       `json:"recipe_file"`
	ProfileID  string       `json:"profile_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []StepResult `json:"results"`
}

// Succeeded counts successful steps.
func (r Run) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK {
			n++
		}
	}
	return n
}

// Failed counts failed steps.
func (r Run) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// OK reports whether every step succeeded.
func (r Run) OK() bool {
	return r.Failed() == 0
}

// Outputs lists every artifact produced by the run in step order.
func (r Run) Outputs() []string {
	var out []string
	for _, res := range r.Results {
		out = append(out, res.Outputs...)
	}
	return out
}
