package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"modsuite/internal/logging"
	"modsuite/internal/recipe"
	"modsuite/internal/services"
	"modsuite/internal/units"
)

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
}

// Runner drives an Executor over every step of a document.
type Runner struct {
	exec         *Executor
	resolver     *units.Resolver
	enforceRange bool
	recorder     Recorder
	observer     func(StepResult)
	newRunID     func() string
	now          func() time.Time
	lockPath     string
	logger       *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithRangeEnforcement rejects dimensions outside the active profile's range.
func WithRangeEnforcement(enabled bool) RunnerOption {
	return func(r *Runner) { r.enforceRange = enabled }
}

// WithRecorder stores each finished run.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithStepObserver is called after each step completes, in order.
func WithStepObserver(fn func(StepResult)) RunnerOption {
	return func(r *Runner) { r.observer = fn }
}

// WithRunIDs overrides run identifier generation.
func WithRunIDs(fn func() string) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.newRunID = fn
		}
	}
}

// WithRunnerClock overrides the run timestamp source.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunLock holds an exclusive lock file for the duration of RunFile.
func WithRunLock(path string) RunnerOption {
	return func(r *Runner) { r.lockPath = path }
}

// WithRunnerLogger attaches a logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner builds a runner. The resolver supplies the profile used when a
// document names none or names an unknown one.
func NewRunner(registry *Registry, resolver *units.Resolver, opts ...RunnerOption) *Runner {
	r := &Runner{
		resolver: resolver,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "workflow")
	r.exec = NewExecutor(registry, r.logger)
	return r
}

// Plan is a compiled document.
type Plan struct {
	Profile units.Profile
	Steps   []CompiledStep
}

// Valid reports whether every step compiled.
func (p Plan) Valid() bool {
	for _, s := range p.Steps {
		if s.Err != nil {
			return false
		}
	}
	return true
}

// Compile resolves the document's profile and compiles every step.
func (r *Runner) Compile(doc *recipe.Document) Plan {
	profile := r.resolver.Resolve(doc.ScaleProfile)
	env := CompileEnv{Profile: profile, EnforceRange: r.enforceRange}
	plan := Plan{Profile: profile, Steps: make([]CompiledStep, 0, len(doc.Steps))}
	for _, step := range doc.Steps {
		plan.Steps = append(plan.Steps, r.exec.Compile(step, env))
	}
	return plan
}

// Run compiles and executes doc, returning one result per step in order.
// It never fails: per-step problems are reported in the results.
func (r *Runner) Run(ctx context.Context, doc *recipe.Document) Run {
	plan := r.Compile(doc)
	run := Run{
		ID:         r.newRunID(),
		RecipeFile: doc.Path,
		ProfileID:  plan.Profile.ID,
		StartedAt:  r.now().UTC(),
		Results:    make([]StepResult, 0, len(plan.Steps)),
	}

	runCtx := services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(runCtx, r.logger)
	logger.Info("recipe run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("recipe_file", run.RecipeFile),
		logging.String("profile_id", run.ProfileID),
		logging.Int("steps", len(plan.Steps)),
	)

	rc := RunContext{RunID: run.ID, RecipeFile: doc.Path, Profile: plan.Profile}
	for _, cs := range plan.Steps {
		res := r.exec.Execute(runCtx, cs, rc)
		run.Results = append(run.Results, res)
		if r.observer != nil {
			r.observer(res)
		}
	}
	run.FinishedAt = r.now().UTC()

	logger.Info("recipe run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("succeeded", run.Succeeded()),
		logging.Int("failed", run.Failed()),
		logging.Duration("run_duration", run.FinishedAt.Sub(run.StartedAt)),
	)

	if r.recorder != nil {
		if err := r.recorder.RecordRun(context.WithoutCancel(runCtx), run); err != nil {
			logging.WarnWithContext(logger, "run history not recorded", "run_record_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.ledger_path permissions"),
				logging.String(logging.FieldImpact, "run is missing from modsuite history"),
			)
		}
	}
	return run
}

// RunFile loads the recipe at path and runs it. Only document-level failures
// (unreadable or malformed recipe, lock held) are returned as errors.
func (r *Runner) RunFile(ctx context.Context, path string) (Run, error) {
	if r.lockPath != "" {
		lock, err := AcquireRunLock(r.lockPath)
		if err != nil {
			return Run{}, err
		}
		defer lock.Unlock()
	}
	doc, err := recipe.Load(path)
	if err != nil {
		return Run{}, err
	}
	return r.Run(ctx, doc), nil
}
