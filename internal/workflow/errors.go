package workflow

import (
	"fmt"

	"modsuite/internal/services"
)

// UnknownActionMessage is the result message for steps whose action has no
// registered implementation.
const UnknownActionMessage = "Unknown action"

type unknownActionError struct {
	action string
}

func (e *unknownActionError) Error() string { return UnknownActionMessage }

func (e *unknownActionError) Is(target error) bool { return target == services.ErrDispatch }

type panicError struct {
	value any
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

func (e *panicError) Is(target error) bool { return target == services.ErrDispatch }
