package interact

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName rejects a node dialog confirmed with both names blank.
	ErrEmptyName = errors.New("node name is empty")
	// ErrInvalidTransition is returned for an event the current state does
	// not accept. Nothing is mutated.
	ErrInvalidTransition = errors.New("event not allowed in current state")
	// ErrUnknownCategory is returned when the menu choice is not a category.
	ErrUnknownCategory = errors.New("unknown category")
)

// ValidationError describes rejected user input.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

// TransitionError names the event that was refused and the state it hit.
type TransitionError struct {
	Event string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Event, e.State)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
