package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted
	// in the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when every guard for a permitted
	// trigger evaluates to false
	ErrGuardFailed = errors.New("transition guard failed")
)
