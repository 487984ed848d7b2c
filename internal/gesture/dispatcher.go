package gesture

import (
	"sync"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
)

// PrimaryControl is the strip's single push button.
const PrimaryControl = "primary"

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher maps gestures to actions through a binding table.
//
// Dispatch never blocks on I/O and never reports failure to the caller:
// the classifier has nothing useful to do with an error, so failures are
// logged. Gestures from one control are handled in the order they are
// dispatched.
type Dispatcher struct {
	registry   *characteristic.Registry
	resetter   FactoryResetter
	identifier Identifier

	mu       sync.RWMutex
	bindings map[Binding][]Action

	logger   Logger
	loggerMu sync.RWMutex
}

// NewDispatcher creates a dispatcher with an empty binding table.
func NewDispatcher(registry *characteristic.Registry, resetter FactoryResetter, identifier Identifier) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		resetter:   resetter,
		identifier: identifier,
		logger:     noopLogger{},
		bindings:   make(map[Binding][]Action),
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

func (d *Dispatcher) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

// Bind appends actions to the gesture. They run in the order bound: the
// registry changes of all of them first, as one transaction, then their
// side effects.
func (d *Dispatcher) Bind(control string, kind Kind, actions ...Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := Binding{Control: control, Kind: kind}
	d.bindings[key] = append(d.bindings[key], actions...)
}

// Unbind removes every action from the gesture.
func (d *Dispatcher) Unbind(control string, kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindings, Binding{Control: control, Kind: kind})
}

// Actions returns the actions bound to the gesture.
func (d *Dispatcher) Actions(control string, kind Kind) []Action {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Action(nil), d.bindings[Binding{Control: control, Kind: kind}]...)
}

// Dispatch runs every action bound to g. Unbound gestures are ignored.
//
// All registry changes of one gesture are applied under a single registry
// transaction, so no other write lands between them. A failing action is
// logged and the rest still run.
func (d *Dispatcher) Dispatch(g Gesture) {
	logger := d.getLogger()
	actions := d.Actions(g.Control, g.Kind)
	if len(actions) == 0 {
		logger.Debug("gesture ignored", "control", g.Control, "kind", g.Kind.String())
		return
	}

	failed := make([]bool, len(actions))
	report := func(i int, err error) {
		failed[i] = true
		logger.Error("gesture action failed",
			"control", g.Control,
			"kind", g.Kind.String(),
			"action", actions[i].Name,
			"error", err,
		)
	}

	d.registry.Update(func(tx *characteristic.Tx) error { //nolint:errcheck // failures are reported per action
		for i, a := range actions {
			if a.Apply == nil {
				continue
			}
			if err := a.Apply(tx); err != nil {
				report(i, err)
			}
		}
		return nil
	})

	for i, a := range actions {
		if a.Run != nil && !failed[i] {
			if err := a.Run(d); err != nil {
				report(i, err)
			}
		}
		if !failed[i] {
			logger.Debug("gesture handled", "control", g.Control, "kind", g.Kind.String(), "action", a.Name)
		}
	}
}
