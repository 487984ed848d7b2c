package output

import (
	"fmt"
	"sync"
)

// Port is a single binary output. Write must be synchronous and
// idempotent; State reports the last value written successfully.
type Port interface {
	Write(on bool) error
	State() bool
}

// Line is the physical side of a Port: a requested GPIO line.
// *gpiocdev.Line satisfies it.
type Line interface {
	SetValue(value int) error
	Close() error
}

// Relay adapts a physical Line to the logical on/off Port, applying
// inversion.
type Relay struct {
	name     string
	pin      int
	inverted bool

	mu     sync.Mutex
	line   Line
	state  bool
	closed bool
}

// NewRelay wraps line. initial must match the level the line was requested
// with.
func NewRelay(name string, pin int, inverted bool, line Line, initial bool) *Relay {
	return &Relay{
		name:     name,
		pin:      pin,
		inverted: inverted,
		line:     line,
		state:    initial,
	}
}

// Name returns the relay's identifier.
func (r *Relay) Name() string { return r.name }

// Pin returns the GPIO line offset.
func (r *Relay) Pin() int { return r.pin }

// Inverted reports whether the line is active-low.
func (r *Relay) Inverted() bool { return r.inverted }

// Write drives the line to the physical level for on.
func (r *Relay) Write(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: %s", ErrLineClosed, r.name)
	}
	if err := r.line.SetValue(LineValue(on, r.inverted)); err != nil {
		return fmt.Errorf("set %s (pin %d): %w", r.name, r.pin, err)
	}
	r.state = on
	return nil
}

// State returns the last logical value written.
func (r *Relay) State() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close releases the line. Further writes fail with ErrLineClosed.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.line.Close(); err != nil {
		return fmt.Errorf("close %s (pin %d): %w", r.name, r.pin, err)
	}
	return nil
}

// LineValue converts a logical state to a physical line level.
func LineValue(on, inverted bool) int {
	if on != inverted {
		return 1
	}
	return 0
}

// LogicalState converts a physical line level back to a logical state.
func LogicalState(value int, inverted bool) bool {
	return (value == 1) != inverted
}
