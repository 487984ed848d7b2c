package output

import (
	"errors"
	"fmt"
	"sync"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// Driver opens output lines.
type Driver interface {
	// Open requests pin as an output already driven to initial.
	Open(name string, pin int, inverted, initial bool) (*Relay, error)

	// Close releases every line opened through the driver.
	Close() error
}

// GPIODriver opens lines on a Linux GPIO character device.
type GPIODriver struct {
	mu     sync.Mutex
	chip   *gpiod.Chip
	relays map[int]*Relay
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*GPIODriver, error) {
	chip, err := gpiod.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", name, err)
	}
	return &GPIODriver{
		chip:   chip,
		relays: make(map[int]*Relay),
	}, nil
}

// Open requests pin as an output. The line is driven to initial at request
// time so a relay never glitches through the opposite state at boot.
func (d *GPIODriver) Open(name string, pin int, inverted, initial bool) (*Relay, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.chip == nil {
		return nil, ErrDriverClosed
	}
	if _, ok := d.relays[pin]; ok {
		return nil, fmt.Errorf("%w: pin %d", ErrLineInUse, pin)
	}

	line, err := d.chip.RequestLine(pin, gpiod.AsOutput(LineValue(initial, inverted)))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	relay := NewRelay(name, pin, inverted, line, initial)
	d.relays[pin] = relay
	return relay, nil
}

// Close releases all lines and the chip.
func (d *GPIODriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for pin, relay := range d.relays {
		if err := relay.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(d.relays, pin)
	}

	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		d.chip = nil
	}

	return errors.Join(errs...)
}
