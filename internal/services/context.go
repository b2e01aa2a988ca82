package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stepIndexKey contextKey = "step_index"
	actionKey    contextKey = "action"
)

// WithRunID annotates context with the recipe run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the recipe run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStepIndex annotates context with the zero-based recipe step index.
func WithStepIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, stepIndexKey, index)
}

// StepIndexFromContext returns the step index if present.
func StepIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(stepIndexKey)
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithAction annotates context with the recipe action name.
func WithAction(ctx context.Context, action string) context.Context {
	if action == "" {
		return ctx
	}
	return context.WithValue(ctx, actionKey, action)
}

// ActionFromContext returns the action name if present.
func ActionFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(actionKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
