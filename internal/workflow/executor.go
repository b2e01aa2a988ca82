package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modsuite/internal/logging"
	"modsuite/internal/recipe"
	"modsuite/internal/services"
)

// CompiledStep is a step after validation. Task is nil when Err is set.
type CompiledStep struct {
	Step  recipe.Step
	Task  Task
	Err   error
	State StepState
}

// Executor compiles and dispatches single steps.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExecutor builds an executor over registry.
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	if registry == nil {
		registry = &Registry{actions: map[string]Action{}}
	}
	return &Executor{registry: registry, logger: logging.NewComponentLogger(logger, "workflow")}
}

// Compile validates step through its registered action.
func (e *Executor) Compile(step recipe.Step, env CompileEnv) (cs CompiledStep) {
	cs = CompiledStep{Step: step, State: StateValidating}
	if step.Err != nil {
		cs.Err, cs.State = step.Err, StateRejected
		return cs
	}
	action, ok := e.registry.Lookup(step.Action)
	if !ok {
		cs.Err, cs.State = &unknownActionError{action: step.Action}, StateRejected
		return cs
	}

	defer func() {
		if r := recover(); r != nil {
			cs.Task, cs.Err, cs.State = nil, &panicError{value: r}, StateRejected
		}
	}()
	task, err := action.Compile(step, env)
	if err != nil {
		cs.Err, cs.State = err, StateRejected
		return cs
	}
	if task == nil {
		cs.Err, cs.State = fmt.Errorf("action %s produced no task", step.Action), StateRejected
		return cs
	}
	cs.Task, cs.State = task, StatePending
	return cs
}

// Execute dispatches a compiled step and converts every outcome, including
// panics, into a StepResult.
func (e *Executor) Execute(ctx context.Context, cs CompiledStep, rc RunContext) StepResult {
	start := time.Now()
	stepCtx := services.WithStepIndex(ctx, cs.Step.Index)
	stepCtx = services.WithAction(stepCtx, cs.Step.Action)
	logger := logging.WithContext(stepCtx, e.logger)
	rc.StepIndex = cs.Step.Index
	rc.Logger = logger

	result := StepResult{Index: cs.Step.Index, Action: cs.Step.Action, Outputs: []string{}}

	if cs.Err != nil {
		result.Message = cs.Err.Error()
		result.State = StateRejected
		result.Duration = time.Since(start)
		logger.Warn("step rejected",
			logging.String(logging.FieldEventType, "step_rejected"),
			logging.String("error_message", result.Message),
			logging.String(logging.FieldErrorKind, services.Kind(cs.Err)),
		)
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Message = fmt.Sprintf("run cancelled before dispatch: %v", err)
		result.State = StateFailed
		result.Duration = time.Since(start)
		logger.Warn("step skipped",
			logging.String(logging.FieldEventType, "step_cancelled"),
			logging.Error(err),
		)
		return result
	}

	logger.Info("step started", logging.String(logging.FieldEventType, "step_start"))

	outcome, err := dispatch(stepCtx, cs.Task, rc)
	result.Duration = time.Since(start)
	if err != nil {
		result.Message = strings.TrimSpace(err.Error())
		if result.Message == "" {
			result.Message = "step failed"
		}
		result.State = StateFailed
		logger.Error("step failed",
			logging.String(logging.FieldEventType, "step_failure"),
			logging.String("error_message", result.Message),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("step_duration", result.Duration),
		)
		return result
	}

	result.OK = true
	result.State = StateSucceeded
	result.Message = strings.TrimSpace(outcome.Message)
	if result.Message == "" {
		result.Message = "ok"
	}
	if len(outcome.Outputs) > 0 {
		result.Outputs = append(result.Outputs, outcome.Outputs...)
	}
	logger.Info("step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Int("outputs", len(result.Outputs)),
		logging.Duration("step_duration", result.Duration),
	)
	return result
}

func dispatch(ctx context.Context, task Task, rc RunContext) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = Outcome{}, &panicError{value: r}
		}
	}()
	return task.Run(ctx, rc)
}
