package lifecycle

import "errors"

// Domain errors for the lifecycle controller.
var (
	// ErrInvalidTransition is returned when an event arrives in a state
	// that cannot accept it.
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")

	// ErrMissingDependency is returned by New when a required collaborator
	// is nil.
	ErrMissingDependency = errors.New("lifecycle: missing dependency")
)
