package characteristic

import "errors"

// Domain errors for characteristic operations.
var (
	// ErrNotFound is returned when an entry ID is not registered.
	ErrNotFound = errors.New("characteristic: entry not found")

	// ErrDuplicateEntry is returned when an ID is registered twice.
	ErrDuplicateEntry = errors.New("characteristic: entry already registered")

	// ErrInvalidDefinition is returned for a malformed Definition.
	ErrInvalidDefinition = errors.New("characteristic: invalid definition")

	// ErrKindMismatch is returned when a value's kind differs from the entry's.
	ErrKindMismatch = errors.New("characteristic: value kind mismatch")

	// ErrVetoed is returned by a Setter to reject a proposed value. The
	// entry keeps its current value, which is echoed to notifiers.
	ErrVetoed = errors.New("characteristic: write vetoed")

	// ErrInvalidValue is returned when text cannot be parsed as a value.
	ErrInvalidValue = errors.New("characteristic: invalid value")
)
