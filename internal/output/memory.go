package output

import (
	"fmt"
	"sync"
)

// MemoryDriver is a Driver whose lines live in memory.
type MemoryDriver struct {
	mu     sync.Mutex
	lines  map[int]*MemoryLine
	closed bool
}

// NewMemoryDriver returns an empty MemoryDriver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{lines: make(map[int]*MemoryLine)}
}

// Open creates an in-memory line for pin.
func (d *MemoryDriver) Open(name string, pin int, inverted, initial bool) (*Relay, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDriverClosed
	}
	if _, ok := d.lines[pin]; ok {
		return nil, fmt.Errorf("%w: pin %d", ErrLineInUse, pin)
	}

	line := &MemoryLine{value: LineValue(initial, inverted)}
	d.lines[pin] = line
	return NewRelay(name, pin, inverted, line, initial), nil
}

// Line returns the line opened for pin, or nil.
func (d *MemoryDriver) Line(pin int) *MemoryLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin]
}

// Close marks every line closed.
func (d *MemoryDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for _, line := range d.lines {
		line.Close() //nolint:errcheck // Memory lines never fail to close
	}
	return nil
}

// MemoryLine is an in-memory Line. It records every level written and can
// be told to fail.
type MemoryLine struct {
	mu      sync.Mutex
	value   int
	history []int
	failErr error
	closed  bool
}

// SetValue records value unless a failure has been injected.
func (l *MemoryLine) SetValue(value int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLineClosed
	}
	if l.failErr != nil {
		return l.failErr
	}
	l.value = value
	l.history = append(l.history, value)
	return nil
}

// Close releases the line.
func (l *MemoryLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Value returns the current physical level.
func (l *MemoryLine) Value() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// History returns every level written since the line was opened.
func (l *MemoryLine) History() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.history...)
}

// Fail makes subsequent writes return err. Fail(nil) restores the line.
func (l *MemoryLine) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failErr = err
}
