package gesture

import "errors"

// Domain errors for gesture handling.
var (
	// ErrUnknownKind is returned for an unrecognised gesture name.
	ErrUnknownKind = errors.New("gesture: unknown kind")

	// ErrUnknownAction is returned for an unrecognised action name.
	ErrUnknownAction = errors.New("gesture: unknown action")
)
