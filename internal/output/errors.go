package output

import "errors"

// Domain errors for output lines.
var (
	// ErrDriverClosed is returned when opening a line on a closed driver.
	ErrDriverClosed = errors.New("output: driver closed")

	// ErrLineInUse is returned when a pin is opened twice.
	ErrLineInUse = errors.New("output: line already in use")

	// ErrLineClosed is returned when writing to a released line.
	ErrLineClosed = errors.New("output: line closed")
)
