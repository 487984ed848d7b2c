package gesture

// BindDefaults installs the stock behaviour for control:
//
//   - single press toggles the outlet if the strip has exactly one;
//   - double press toggles every outlet;
//   - long press is left unbound for per-device overrides;
//   - very long press starts a factory reset.
func (d *Dispatcher) BindDefaults(control string) {
	d.Bind(control, SinglePress, ToggleOnlyOutlet())
	d.Bind(control, DoublePress, ToggleAll())
	d.Bind(control, VeryLongPress, FactoryReset())
}

// Overrides maps a gesture kind to a configured action name. An empty name
// keeps the default.
type Overrides map[Kind]string

// ApplyOverrides replaces the bindings named in o. "none" unbinds the
// gesture. The table is left untouched if any name is invalid.
func (d *Dispatcher) ApplyOverrides(control string, o Overrides) error {
	type change struct {
		kind   Kind
		action Action
		bind   bool
	}
	var changes []change
	for kind, name := range o {
		if name == "" {
			continue
		}
		action, ok, err := ParseAction(name)
		if err != nil {
			return err
		}
		changes = append(changes, change{kind: kind, action: action, bind: ok})
	}

	for _, c := range changes {
		d.Unbind(control, c.kind)
		if c.bind {
			d.Bind(control, c.kind, c.action)
		}
	}
	return nil
}
