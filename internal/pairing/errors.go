package pairing

import "errors"

// Domain errors for pairing.
var (
	// ErrInvalidSetupCode is returned when a controller presents the wrong code.
	ErrInvalidSetupCode = errors.New("pairing: invalid setup code")

	// ErrInvalidController is returned for an empty controller ID.
	ErrInvalidController = errors.New("pairing: invalid controller id")
)
