package characteristic

import "fmt"

// Tx is a view of a locked Registry handed to Update callbacks. It must not
// be retained after the callback returns.
type Tx struct {
	r   *Registry
	arm bool
}

func (tx *Tx) lookup(id string) (*entry, error) {
	e, ok := tx.r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Get returns the current value of id.
func (tx *Tx) Get(id string) (Value, error) {
	e, err := tx.lookup(id)
	if err != nil {
		return Value{}, err
	}
	return e.value, nil
}

// IDs returns every entry ID in registration order.
func (tx *Tx) IDs() []string {
	return append([]string(nil), tx.r.order...)
}

// Outlets returns the IDs of entries bound to an output, in registration
// order.
func (tx *Tx) Outlets() []string {
	var ids []string
	for _, id := range tx.r.order {
		if tx.r.entries[id].def.Output != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Set commits v to id without consulting the entry's Setter. It is used by
// internally driven changes such as gestures.
func (tx *Tx) Set(id string, v Value) error {
	e, err := tx.lookup(id)
	if err != nil {
		return err
	}
	if v.Kind() != e.def.Default.Kind() {
		return fmt.Errorf("%w: %s is %s, got %s", ErrKindMismatch, id, e.def.Default.Kind(), v.Kind())
	}
	tx.commit(e, v)
	return nil
}

// Toggle inverts a bool entry and returns the new value.
func (tx *Tx) Toggle(id string) (bool, error) {
	e, err := tx.lookup(id)
	if err != nil {
		return false, err
	}
	if e.def.Default.Kind() != KindBool {
		return false, fmt.Errorf("%w: %s is %s, not bool", ErrKindMismatch, id, e.def.Default.Kind())
	}
	next := !e.value.Bool()
	tx.commit(e, BoolValue(next))
	return next, nil
}

// Restore overwrites id with a loaded value and drives its output. It does
// not notify or mark the entry dirty: the value came from the store.
func (tx *Tx) Restore(id string, v Value) error {
	e, err := tx.lookup(id)
	if err != nil {
		return err
	}
	if v.Kind() != e.def.Default.Kind() {
		return fmt.Errorf("%w: %s is %s, got %s", ErrKindMismatch, id, e.def.Default.Kind(), v.Kind())
	}
	e.value = v
	tx.r.drive(e)
	return nil
}

// DriveAll pushes every current value to its output.
func (tx *Tx) DriveAll() {
	for _, id := range tx.r.order {
		tx.r.drive(tx.r.entries[id])
	}
}

// DrainDirty returns the dirty entries in registration order and clears
// their flags.
func (tx *Tx) DrainDirty() []Snapshot {
	var out []Snapshot
	for _, id := range tx.r.order {
		e := tx.r.entries[id]
		if !e.dirty {
			continue
		}
		e.dirty = false
		out = append(out, Snapshot{ID: id, Value: e.value})
	}
	return out
}

// Requeue marks id dirty again without arming the scheduler, so a failed
// save is retried on the next natural arm.
func (tx *Tx) Requeue(id string) {
	if e, ok := tx.r.entries[id]; ok && e.def.Persisted {
		e.dirty = true
	}
}

// commit applies a mutation in order: store, drive the output, notify,
// then mark dirty.
func (tx *Tx) commit(e *entry, v Value) {
	e.value = v
	tx.r.drive(e)
	tx.r.notify(e.def.ID, v)
	tx.markDirty(e)
}

func (tx *Tx) markDirty(e *entry) {
	if !e.def.Persisted {
		return
	}
	e.dirty = true
	tx.arm = true
}
