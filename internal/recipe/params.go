package recipe

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"modsuite/internal/services"
)

// ParamError is a step validation failure. Its message is shown verbatim in
// step results and it matches services.ErrValidation.
type ParamError struct {
	Name    string
	Message string
}

func (e *ParamError) Error() string {
	return e.Message
}

func (e *ParamError) Is(target error) bool {
	return target == services.ErrValidation
}

func paramErr(name, format string, args ...any) error {
	return &ParamError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// Params is the raw keyed record of one step.
type Params map[string]any

// Has reports whether name is present with a non-null value.
func (p Params) Has(name string) bool {
	v, ok := p[name]
	return ok && v != nil
}

// RequireString returns a non-empty string parameter.
func (p Params) RequireString(name string) (string, error) {
	if !p.Has(name) {
		return "", paramErr(name, "%s is required", name)
	}
	s, ok := p[name].(string)
	if !ok {
		return "", paramErr(name, "%s must be a string", name)
	}
	if strings.TrimSpace(s) == "" {
		return "", paramErr(name, "%s must not be empty", name)
	}
	return s, nil
}

// OptionalString returns a string parameter or "" when absent.
func (p Params) OptionalString(name string) (string, error) {
	if !p.Has(name) {
		return "", nil
	}
	s, ok := p[name].(string)
	if !ok {
		return "", paramErr(name, "%s must be a string", name)
	}
	return strings.TrimSpace(s), nil
}

// RequireFloat returns a numeric parameter.
func (p Params) RequireFloat(name string) (float64, error) {
	f, ok := toFloat(p[name])
	if !ok {
		return 0, paramErr(name, "%s must be a number", name)
	}
	return f, nil
}

// Float returns a numeric parameter or def when absent.
func (p Params) Float(name string, def float64) (float64, error) {
	if !p.Has(name) {
		return def, nil
	}
	return p.RequireFloat(name)
}

// RequireFloatList returns a homogeneous numeric list parameter.
func (p Params) RequireFloatList(name string) ([]float64, error) {
	items, ok := p[name].([]any)
	if !ok {
		return nil, paramErr(name, "%s must be a list of numbers", name)
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil, paramErr(name, "%s must be a list of numbers", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// Int returns an integral parameter or def when absent.
func (p Params) Int(name string, def int) (int, error) {
	if !p.Has(name) {
		return def, nil
	}
	f, ok := toFloat(p[name])
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, paramErr(name, "%s must be an integer", name)
	}
	return int(f), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
