package characteristic

import "fmt"

// Setter intercepts an externally driven write. It receives the current
// and proposed values and returns the value to store, which may be clamped.
// Returning ErrVetoed (or any error) keeps the current value.
//
// Setters run while the registry is locked. They must not block and must
// not call back into the Registry.
type Setter func(current, proposed Value) (Value, error)

// Output is the physical side of a bool entry. *output.Relay satisfies it.
type Output interface {
	Write(on bool) error
}

// Definition declares an entry at wiring time.
type Definition struct {
	ID    string
	Label string

	// Default is the value before any load or write. Its kind is the
	// entry's kind.
	Default Value

	// Persisted entries are marked dirty and saved after each change.
	Persisted bool

	// ReadOnly entries reject every external write.
	ReadOnly bool

	Setter Setter

	// Output, when set, is driven with every committed value. Only bool
	// entries may have an output; these are the outlets.
	Output Output
}

func (d Definition) validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDefinition)
	}
	if !d.Default.IsValid() {
		return fmt.Errorf("%w: %s has no default value", ErrInvalidDefinition, d.ID)
	}
	if d.Output != nil && d.Default.Kind() != KindBool {
		return fmt.Errorf("%w: %s binds an output but is %s", ErrInvalidDefinition, d.ID, d.Default.Kind())
	}
	return nil
}

// Info describes a registered entry.
type Info struct {
	ID        string
	Label     string
	Kind      Kind
	Persisted bool
	ReadOnly  bool
	Outlet    bool
}

// Snapshot is an entry ID paired with a value.
type Snapshot struct {
	ID    string
	Value Value
}

type entry struct {
	def   Definition
	value Value
	dirty bool
}

func (e *entry) info() Info {
	return Info{
		ID:        e.def.ID,
		Label:     e.def.Label,
		Kind:      e.def.Default.Kind(),
		Persisted: e.def.Persisted,
		ReadOnly:  e.def.ReadOnly,
		Outlet:    e.def.Output != nil,
	}
}

// ClampInt returns a Setter that keeps int values within [lo, hi].
func ClampInt(lo, hi int) Setter {
	return func(_, proposed Value) (Value, error) {
		n := proposed.Int()
		if n < lo {
			n = lo
		}
		if n > hi {
			n = hi
		}
		return IntValue(n), nil
	}
}
