package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIOFailure       = errors.New("io failure")
	ErrUnknownProfile  = errors.New("unknown profile")
	ErrMalformedRecipe = errors.New("malformed recipe")
	ErrCorruptSidecar  = errors.New("corrupt sidecar")
	ErrValidation      = errors.New("validation error")
	ErrDispatch        = errors.New("dispatch error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrDispatch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for err, suitable for logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	case errors.Is(err, ErrUnknownProfile):
		return "unknown_profile"
	case errors.Is(err, ErrMalformedRecipe):
		return "malformed_recipe"
	case errors.Is(err, ErrCorruptSidecar):
		return "corrupt_sidecar"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "dispatch"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
