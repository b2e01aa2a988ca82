package workflow

import (
	"context"
	"log/slog"

	"modsuite/internal/recipe"
	"modsuite/internal/units"
)

// Action turns a raw recipe step into an executable Task. Compile validates
// and canonicalizes parameters; it must not touch the filesystem.
type Action interface {
	Name() string
	Compile(step recipe.Step, env CompileEnv) (Task, error)
}

// CompileEnv carries the settings an action needs to validate a step.
type CompileEnv struct {
	// Profile is the unit profile resolved for the document.
	Profile units.Profile
	// EnforceRange rejects dimensions outside Profile's native range.
	EnforceRange bool
}

// CheckRange validates a meter value against the profile's native range when
// enforcement is on.
func (e CompileEnv) CheckRange(name string, meters float64) error {
	if !e.EnforceRange {
		return nil
	}
	return e.Profile.CheckRange(name, e.Profile.FromCanonical(meters))
}

// Task is a compiled step ready for dispatch.
type Task interface {
	Run(ctx context.Context, rc RunContext) (Outcome, error)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context, rc RunContext) (Outcome, error)

// Run calls f.
func (f TaskFunc) Run(ctx context.Context, rc RunContext) (Outcome, error) {
	return f(ctx, rc)
}

// RunContext identifies the step being executed so tasks can record recipe
// provenance on what they produce.
type RunContext struct {
	RunID      string
	RecipeFile string
	StepIndex  int
	Profile    units.Profile
	Logger     *slog.Logger
}

// Outcome is what a successful task reports.
type Outcome struct {
	Outputs []string
	Message string
}
