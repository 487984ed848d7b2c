package remote

import "errors"

// Domain errors for the remote bridge.
var (
	// ErrMissingDependency is returned by NewBridge when a required
	// collaborator is nil.
	ErrMissingDependency = errors.New("remote: missing dependency")

	// ErrNotPaired is returned for a command that needs a paired
	// controller.
	ErrNotPaired = errors.New("remote: no controller paired")

	// ErrInvalidPayload is returned when an inbound message cannot be
	// decoded.
	ErrInvalidPayload = errors.New("remote: invalid payload")

	// ErrUnknownTopic is returned for a message on a topic the bridge does
	// not route.
	ErrUnknownTopic = errors.New("remote: unknown topic")
)
