package actions

import (
	"fmt"
	"strings"

	"modsuite/internal/geometry"
	"modsuite/internal/recipe"
	"modsuite/internal/units"
	"modsuite/internal/workflow"
)

// DefaultSegments is the radial resolution used when a step omits segments.
const DefaultSegments = 128

func invalid(name, format string, args ...any) error {
	return &recipe.ParamError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// unitFor returns the unit named by param, or the profile's unit when absent.
func unitFor(params recipe.Params, param string, env workflow.CompileEnv) (string, error) {
	unit, err := params.OptionalString(param)
	if err != nil {
		return "", err
	}
	if unit == "" {
		return string(env.Profile.Unit), nil
	}
	return strings.ToLower(unit), nil
}

// dimension converts value to meters, requires it to be positive and applies
// the profile range check.
func dimension(name string, value float64, unit string, env workflow.CompileEnv) (float64, error) {
	meters, err := units.ToMeters(value, unit)
	if err != nil {
		return 0, invalid(name+"_unit", "%s_unit must be mm or m, got %q", name, unit)
	}
	if meters <= 0 {
		return 0, invalid(name, "%s must be positive", name)
	}
	if err := env.CheckRange(name, meters); err != nil {
		return 0, err
	}
	return meters, nil
}

func segmentsParam(params recipe.Params) (int, error) {
	segments, err := params.Int("segments", DefaultSegments)
	if err != nil {
		return 0, err
	}
	if segments < geometry.MinSegments {
		return 0, invalid("segments", "segments must be at least %d", geometry.MinSegments)
	}
	if segments > geometry.MaxSegments {
		return 0, invalid("segments", "segments must be at most %d", geometry.MaxSegments)
	}
	return segments, nil
}

func lengthFactor(name string, value float64) error {
	if value < 0 {
		return invalid(name, "%s must not be negative", name)
	}
	return nil
}
