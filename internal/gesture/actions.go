package gesture

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
)

// Action is a device action bound to a gesture. Actions run on the
// dispatching goroutine and must not block.
//
// Apply changes registry state and runs inside the gesture's single
// registry transaction. Run is a side effect performed after that
// transaction commits. Either may be nil.
type Action struct {
	Name  string
	Apply func(tx *characteristic.Tx) error
	Run   func(d *Dispatcher) error
}

// FactoryResetter starts the factory reset sequence. The call must return
// immediately; repeated calls are absorbed.
type FactoryResetter interface {
	RequestFactoryReset(reason string)
}

// Identifier blinks the indicator.
type Identifier interface {
	Identify()
}

// ToggleOutlet toggles one outlet.
func ToggleOutlet(id string) Action {
	return Action{
		Name: "toggle:" + id,
		Apply: func(tx *characteristic.Tx) error {
			_, err := tx.Toggle(id)
			return err
		},
	}
}

// ToggleOnlyOutlet toggles the outlet when exactly one is wired and does
// nothing otherwise.
func ToggleOnlyOutlet() Action {
	return Action{
		Name: "toggle-only",
		Apply: func(tx *characteristic.Tx) error {
			outlets := tx.Outlets()
			if len(outlets) != 1 {
				return nil
			}
			_, err := tx.Toggle(outlets[0])
			return err
		},
	}
}

// ToggleAll inverts every outlet independently, in declaration order.
// Notifications follow the same order and the save scheduler is armed once.
func ToggleAll() Action {
	return Action{
		Name: "toggle-all",
		Apply: func(tx *characteristic.Tx) error {
			for _, id := range tx.Outlets() {
				if _, err := tx.Toggle(id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// SetAll drives every outlet to on.
func SetAll(on bool) Action {
	name := "all-off"
	if on {
		name = "all-on"
	}
	return Action{
		Name: name,
		Apply: func(tx *characteristic.Tx) error {
			for _, id := range tx.Outlets() {
				if err := tx.Set(id, characteristic.BoolValue(on)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// FactoryReset asks the lifecycle controller to erase credentials and
// restart.
func FactoryReset() Action {
	return Action{
		Name: "factory-reset",
		Run: func(d *Dispatcher) error {
			if d.resetter != nil {
				d.resetter.RequestFactoryReset("button")
			}
			return nil
		},
	}
}

// Identify blinks the indicator.
func Identify() Action {
	return Action{
		Name: "identify",
		Run: func(d *Dispatcher) error {
			if d.identifier != nil {
				d.identifier.Identify()
			}
			return nil
		},
	}
}

// ParseAction resolves a configured action name. "none" yields ok=false:
// the gesture is explicitly unbound.
func ParseAction(name string) (action Action, ok bool, err error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "none":
		return Action{}, false, nil
	case name == "toggle-all":
		return ToggleAll(), true, nil
	case name == "toggle-only":
		return ToggleOnlyOutlet(), true, nil
	case name == "all-on":
		return SetAll(true), true, nil
	case name == "all-off":
		return SetAll(false), true, nil
	case name == "identify":
		return Identify(), true, nil
	case name == "factory-reset":
		return FactoryReset(), true, nil
	case strings.HasPrefix(name, "toggle:") && len(name) > len("toggle:"):
		return ToggleOutlet(strings.TrimPrefix(name, "toggle:")), true, nil
	default:
		return Action{}, false, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}
